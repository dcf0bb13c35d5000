package services

import (
	"context"
	"strings"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/core"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
)

// ScopeService resolves requested scope strings against the registered scopes.
type ScopeService struct {
	scopes core.ScopeRepository
}

func NewScopeService(scopes core.ScopeRepository) *ScopeService {
	return &ScopeService{scopes: scopes}
}

// Resolve parses a space-delimited scope string. Every name must be
// registered; one unknown name rejects the whole request.
func (s *ScopeService) Resolve(ctx context.Context, scope string) (models.ScopeSet, error) {
	requested := models.ParseScopes(scope)
	if len(requested) == 0 {
		return requested, nil
	}

	known, err := s.scopes.GetScopesByNames(ctx, requested)
	if err != nil {
		return nil, fromStore("failed to load scopes", err)
	}

	registered := make(map[string]struct{}, len(known))
	for _, sc := range known {
		registered[sc.Name] = struct{}{}
	}

	var unknown []string
	for _, name := range requested {
		if _, ok := registered[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return nil, newError(KindInvalidScope, "unknown scope: "+strings.Join(unknown, " "), nil)
	}
	return requested, nil
}

// List returns every registered scope.
func (s *ScopeService) List(ctx context.Context) ([]models.Scope, error) {
	scopes, err := s.scopes.ListScopes(ctx)
	if err != nil {
		return nil, fromStore("failed to list scopes", err)
	}
	return scopes, nil
}
