package store

import (
	"context"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
)

func (s *Store) CreateRedirectURI(ctx context.Context, uri *models.RedirectURI) error {
	return mapError(s.conn(ctx).Create(uri).Error, ErrNotCreated)
}

func (s *Store) GetRedirectURI(ctx context.Context, clientID, uri string) (*models.RedirectURI, error) {
	var r models.RedirectURI
	err := s.conn(ctx).Where("client_id = ? AND uri = ?", clientID, uri).First(&r).Error
	if err != nil {
		return nil, mapError(err, ErrQueryFailed)
	}
	return &r, nil
}

func (s *Store) GetRedirectURIsByClient(ctx context.Context, clientID string) ([]models.RedirectURI, error) {
	var uris []models.RedirectURI
	if err := s.conn(ctx).Where("client_id = ?", clientID).Order("id").Find(&uris).Error; err != nil {
		return nil, mapError(err, ErrQueryFailed)
	}
	return uris, nil
}

func (s *Store) DeleteRedirectURI(ctx context.Context, clientID string, id uint) error {
	result := s.conn(ctx).Where("id = ? AND client_id = ?", id, clientID).Delete(&models.RedirectURI{})
	return affected(result, ErrNotDeleted, ErrNotFound)
}
