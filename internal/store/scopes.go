package store

import (
	"context"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
)

func (s *Store) GetScopesByNames(ctx context.Context, names []string) ([]models.Scope, error) {
	if len(names) == 0 {
		return []models.Scope{}, nil
	}
	var scopes []models.Scope
	if err := s.conn(ctx).Where("name IN ?", names).Find(&scopes).Error; err != nil {
		return nil, mapError(err, ErrQueryFailed)
	}
	return scopes, nil
}

func (s *Store) CreateScope(ctx context.Context, scope *models.Scope) error {
	return mapError(s.conn(ctx).Create(scope).Error, ErrNotCreated)
}

func (s *Store) ListScopes(ctx context.Context) ([]models.Scope, error) {
	var scopes []models.Scope
	if err := s.conn(ctx).Order("name").Find(&scopes).Error; err != nil {
		return nil, mapError(err, ErrQueryFailed)
	}
	return scopes, nil
}
