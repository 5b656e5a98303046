package services

import (
	"context"
	"strings"
	"time"

	"github.com/NomadCrew/customer-feedback-portal/logger"
	"github.com/NomadCrew/customer-feedback-portal/models/feedback"
	"github.com/NomadCrew/customer-feedback-portal/store"
	"github.com/NomadCrew/customer-feedback-portal/types"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Submission outcomes used as metric labels.
const (
	OutcomeSuccess      = "success"
	OutcomeInvalid      = "invalid"
	OutcomeSchemaFailed = "schema_failed"
	OutcomeCreateFailed = "create_failed"
)

type FeedbackMetrics struct {
	submissions *prometheus.CounterVec
	duration    prometheus.Histogram
	dropped     *prometheus.CounterVec
}

func newFeedbackMetrics(reg prometheus.Registerer) *FeedbackMetrics {
	m := &FeedbackMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedback_submissions_total",
			Help: "Feedback submissions by outcome",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "feedback_submission_duration_seconds",
			Help:    "Time taken to fetch the list schema and create the record",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedback_fields_dropped_total",
			Help: "Form values left out because the list has no matching field",
		}, []string{"field"}),
	}

	reg.MustRegister(m.submissions, m.duration, m.dropped)
	return m
}

// FeedbackService writes validated drafts to the target list. It implements
// feedback.Submitter.
type FeedbackService struct {
	store      store.ListStore
	listName   string
	candidates feedback.CandidateTable
	notifier   Notifier
	metrics    *FeedbackMetrics
	log        *zap.SugaredLogger
}

var _ feedback.Submitter = (*FeedbackService)(nil)

// FeedbackServiceConfig contains the collaborators of a FeedbackService.
type FeedbackServiceConfig struct {
	Store    store.ListStore
	ListName string
	// Candidates defaults to feedback.DefaultCandidates.
	Candidates feedback.CandidateTable
	// Notifier is optional.
	Notifier Notifier
	// Registerer defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

func NewFeedbackService(cfg FeedbackServiceConfig) *FeedbackService {
	candidates := cfg.Candidates
	if len(candidates) == 0 {
		candidates = feedback.DefaultCandidates()
	}
	reg := cfg.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	return &FeedbackService{
		store:      cfg.Store,
		listName:   cfg.ListName,
		candidates: candidates,
		notifier:   cfg.Notifier,
		metrics:    newFeedbackMetrics(reg),
		log:        logger.GetLogger(),
	}
}

// ListName returns the name of the target list.
func (s *FeedbackService) ListName() string {
	return s.listName
}

// Submit validates draft, fetches the list schema, resolves field names and
// creates one record. Nothing is retried. Cancellation of ctx is ignored once
// the call has started.
func (s *FeedbackService) Submit(ctx context.Context, draft types.FeedbackSubmission) (*types.SubmissionResult, error) {
	ctx = context.WithoutCancel(ctx)

	if err := feedback.Validate(draft); err != nil {
		s.metrics.submissions.WithLabelValues(OutcomeInvalid).Inc()
		return nil, err
	}

	start := time.Now()
	defer func() {
		s.metrics.duration.Observe(time.Since(start).Seconds())
	}()

	schema, err := s.store.Fields(ctx, s.listName)
	if err != nil {
		s.metrics.submissions.WithLabelValues(OutcomeSchemaFailed).Inc()
		s.log.Errorw("Failed to fetch list schema",
			"list", s.listName,
			"kind", store.KindOf(err),
			"error", err)
		return nil, err
	}

	mapping := feedback.ResolveFieldNames(schema, s.candidates)
	record, dropped := feedback.BuildRecord(draft, mapping, schema)

	droppedNames := make([]string, 0, len(dropped))
	for _, field := range dropped {
		s.metrics.dropped.WithLabelValues(string(field)).Inc()
		droppedNames = append(droppedNames, string(field))
	}
	if len(dropped) > 0 {
		s.log.Warnw("List has no field for some form values",
			"list", s.listName,
			"dropped", droppedNames)
	}

	created, err := s.store.AddItem(ctx, s.listName, record)
	if err != nil {
		s.metrics.submissions.WithLabelValues(OutcomeCreateFailed).Inc()
		s.log.Errorw("Failed to create list item",
			"list", s.listName,
			"kind", store.KindOf(err),
			"error", err)
		return nil, err
	}

	s.metrics.submissions.WithLabelValues(OutcomeSuccess).Inc()
	s.log.Infow("Feedback submitted",
		"list", s.listName,
		"email", logger.MaskEmail(strings.TrimSpace(draft.Email)),
		"rating", draft.Rating,
		"service", draft.ServiceCategory)

	result := &types.SubmissionResult{
		ListName:      s.listName,
		Record:        record,
		Created:       created,
		DroppedFields: droppedNames,
	}

	if s.notifier != nil {
		if err := s.notifier.NotifySubmission(ctx, draft, result); err != nil {
			s.log.Warnw("Failed to send submission notifications", "error", err)
		}
	}

	return result, nil
}
