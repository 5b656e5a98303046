package services

import (
	"context"
	"time"

	"github.com/NomadCrew/customer-feedback-portal/logger"
	"github.com/NomadCrew/customer-feedback-portal/store"
)

// IdentityService decides the display name a new form starts with.
type IdentityService struct {
	provider store.IdentityProvider
	timeout  time.Duration
}

// NewIdentityService creates an IdentityService. provider may be nil.
func NewIdentityService(provider store.IdentityProvider) *IdentityService {
	return &IdentityService{provider: provider, timeout: 5 * time.Second}
}

// DisplayName returns hostName when the host supplied one, otherwise the name
// reported by the list backend. Lookup failures yield an empty name.
func (s *IdentityService) DisplayName(ctx context.Context, hostName string) string {
	if hostName != "" {
		return hostName
	}
	if s.provider == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	identity, err := s.provider.CurrentUser(ctx)
	if err != nil {
		logger.GetLogger().Warnw("Could not resolve current user", "error", err)
		return ""
	}
	if identity == nil {
		return ""
	}
	return identity.DisplayName
}
