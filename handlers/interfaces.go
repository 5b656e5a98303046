package handlers

import (
	"context"

	"github.com/NomadCrew/customer-feedback-portal/models/feedback"
	"github.com/NomadCrew/customer-feedback-portal/types"
)

// FormSessions is the registry of open form sessions.
type FormSessions interface {
	Open(displayName string) *feedback.Form
	Get(id string) (*feedback.Form, error)
	Delete(id string) error
}

// DisplayNameResolver picks the name a form starts with.
type DisplayNameResolver interface {
	DisplayName(ctx context.Context, hostName string) string
}

// HealthChecker reports process and dependency health.
type HealthChecker interface {
	CheckLiveness() types.HealthCheck
	CheckHealth(ctx context.Context) types.HealthCheck
}
