package services

import (
	"context"

	"github.com/NomadCrew/customer-feedback-portal/logger"
	"github.com/NomadCrew/customer-feedback-portal/types"
	"github.com/stretchr/testify/mock"
)

func init() {
	logger.IsTest = true
}

type MockListStore struct {
	mock.Mock
}

func (m *MockListStore) Fields(ctx context.Context, list string) ([]types.FieldDescriptor, error) {
	args := m.Called(ctx, list)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.FieldDescriptor), args.Error(1)
}

func (m *MockListStore) AddItem(ctx context.Context, list string, record types.Record) (types.Record, error) {
	args := m.Called(ctx, list, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(types.Record), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifySubmission(ctx context.Context, draft types.FeedbackSubmission, result *types.SubmissionResult) error {
	args := m.Called(ctx, draft, result)
	return args.Error(0)
}

type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) CurrentUser(ctx context.Context) (*types.Identity, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Identity), args.Error(1)
}

func fullSchema() []types.FieldDescriptor {
	return []types.FieldDescriptor{
		{InternalName: "Title"},
		{InternalName: "CustomerName"},
		{InternalName: "Email"},
		{InternalName: "Rating"},
		{InternalName: "Comments"},
		{InternalName: "Service"},
	}
}

func validDraft() types.FeedbackSubmission {
	return types.FeedbackSubmission{
		Name:            "Jane Doe",
		Email:           " jane@x.com ",
		ServiceCategory: "Cloud Storage",
		Rating:          4,
		Comments:        "Great",
	}
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
