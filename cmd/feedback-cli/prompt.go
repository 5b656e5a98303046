package main

import (
	"errors"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/NomadCrew/customer-feedback-portal/models/feedback"
)

// errAborted is returned when the user interrupts a prompt.
var errAborted = errors.New("feedback entry aborted")

// prompter asks for the editable form fields.
type prompter interface {
	Email() (string, error)
	Service(options []string) (string, error)
	Rating() (int, error)
	Comments() (string, error)
}

type surveyPrompter struct {
	opts []survey.AskOpt
}

func (p *surveyPrompter) Email() (string, error) {
	var out string
	prompt := &survey.Input{
		Message: "Email:",
		Help:    "We only use it to follow up on your feedback.",
	}
	validate := func(ans interface{}) error {
		if s, _ := ans.(string); !feedback.IsValidEmail(s) {
			return errors.New("please enter a valid email address")
		}
		return nil
	}
	opts := append([]survey.AskOpt{survey.WithValidator(survey.Required), survey.WithValidator(validate)}, p.opts...)
	if err := survey.AskOne(prompt, &out, opts...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (p *surveyPrompter) Service(options []string) (string, error) {
	var out string
	prompt := &survey.Select{
		Message: "Service:",
		Options: options,
	}
	if err := survey.AskOne(prompt, &out, p.opts...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (p *surveyPrompter) Rating() (int, error) {
	options := make([]string, 0, feedback.MaxRating-feedback.MinRating+1)
	for r := feedback.MinRating; r <= feedback.MaxRating; r++ {
		options = append(options, strconv.Itoa(r))
	}

	var out string
	prompt := &survey.Select{
		Message: "Rating:",
		Options: options,
		Default: strconv.Itoa(feedback.MaxRating),
		Help:    "1 is poor, 5 is excellent.",
	}
	if err := survey.AskOne(prompt, &out, p.opts...); err != nil {
		return 0, translateSurveyErr(err)
	}
	return strconv.Atoi(out)
}

func (p *surveyPrompter) Comments() (string, error) {
	var out string
	prompt := &survey.Multiline{
		Message: "Comments (optional):",
	}
	if err := survey.AskOne(prompt, &out, p.opts...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return err
}
