package handlers

import (
	"context"
	"sync"

	"github.com/NomadCrew/customer-feedback-portal/logger"
	"github.com/NomadCrew/customer-feedback-portal/types"
	"github.com/stretchr/testify/mock"
)

func init() {
	logger.IsTest = true
}

type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) Submit(ctx context.Context, draft types.FeedbackSubmission) (*types.SubmissionResult, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SubmissionResult), args.Error(1)
}

type MockIdentityResolver struct {
	mock.Mock
}

func (m *MockIdentityResolver) DisplayName(ctx context.Context, hostName string) string {
	args := m.Called(ctx, hostName)
	return args.String(0)
}

type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) CheckLiveness() types.HealthCheck {
	args := m.Called()
	return args.Get(0).(types.HealthCheck)
}

func (m *MockHealthChecker) CheckHealth(ctx context.Context) types.HealthCheck {
	args := m.Called(ctx)
	return args.Get(0).(types.HealthCheck)
}

// gateSubmitter blocks until released so tests can observe an in-flight submission.
type gateSubmitter struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func newGateSubmitter() *gateSubmitter {
	return &gateSubmitter{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gateSubmitter) Submit(ctx context.Context, draft types.FeedbackSubmission) (*types.SubmissionResult, error) {
	g.once.Do(func() { close(g.started) })
	<-g.release
	return &types.SubmissionResult{ListName: "cloudlist"}, nil
}
