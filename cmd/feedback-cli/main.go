// Command feedback-cli collects one piece of customer feedback in the terminal
// and writes it to the configured list.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/NomadCrew/customer-feedback-portal/config"
	"github.com/NomadCrew/customer-feedback-portal/logger"
	"github.com/NomadCrew/customer-feedback-portal/models/feedback"
	"github.com/NomadCrew/customer-feedback-portal/services"
	"github.com/NomadCrew/customer-feedback-portal/store/backend"
	"github.com/NomadCrew/customer-feedback-portal/types"
)

func main() {
	name := flag.String("name", "", "Submitter name (defaults to the signed-in list user)")
	flag.Parse()

	logger.InitLogger()
	defer logger.Close()
	log := logger.GetLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	list, err := backend.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize list backend: %v", err)
	}
	defer list.Close()

	candidates := feedback.DefaultCandidates()
	if cfg.List.CandidatesFile != "" {
		if candidates, err = feedback.LoadCandidates(cfg.List.CandidatesFile); err != nil {
			log.Fatalf("Failed to load field candidates: %v", err)
		}
	}

	submitter := services.NewFeedbackService(services.FeedbackServiceConfig{
		Store:      list.Store,
		ListName:   cfg.List.Name,
		Candidates: candidates,
	})

	displayName := services.NewIdentityService(list.Identity).DisplayName(ctx, *name)

	var opts []feedback.Option
	if len(cfg.Form.ServiceCategories) > 0 {
		opts = append(opts, feedback.WithServiceCategories(cfg.Form.ServiceCategories))
	}
	form := feedback.NewForm(submitter, opts...)
	form.SetIdentity(displayName)

	if err := run(ctx, form, &surveyPrompter{}, os.Stdout); err != nil {
		if errors.Is(err, errAborted) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

// run fills form from the prompter, submits it and prints the outcome.
func run(ctx context.Context, form *feedback.Form, p prompter, out io.Writer) error {
	if name := form.Draft().Name; name != "" {
		fmt.Fprintf(out, "Name: %s\n", name)
	} else {
		fmt.Fprintln(out, "Name: (not signed in)")
	}

	email, err := p.Email()
	if err != nil {
		return err
	}
	service, err := p.Service(form.ServiceCategories())
	if err != nil {
		return err
	}
	rating, err := p.Rating()
	if err != nil {
		return err
	}
	comments, err := p.Comments()
	if err != nil {
		return err
	}

	if err := form.Apply(types.FormUpdate{
		Email:           &email,
		ServiceCategory: &service,
		Rating:          &rating,
		Comments:        &comments,
	}); err != nil {
		fmt.Fprintln(out, err.Error())
		return err
	}

	view, err := form.Submit(ctx)
	fmt.Fprintln(out, view.Message)
	return err
}
