package store

import (
	"context"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"

	"gorm.io/gorm"
)

func (s *Store) CreateClient(ctx context.Context, client *models.Client) error {
	return mapError(s.conn(ctx).Create(client).Error, ErrNotCreated)
}

// GetClientByID loads the client together with its redirect URIs.
func (s *Store) GetClientByID(ctx context.Context, id string) (*models.Client, error) {
	var client models.Client
	err := s.conn(ctx).
		Preload("RedirectURIs", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("id = ?", id).
		First(&client).Error
	if err != nil {
		return nil, mapError(err, ErrQueryFailed)
	}
	return &client, nil
}

func (s *Store) GetClientByCredentials(ctx context.Context, id, secret string) (*models.Client, error) {
	client, err := s.GetClientByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if client.IsPublic || !client.ValidateSecret(secret) {
		return nil, ErrNotFound
	}
	return client, nil
}

func (s *Store) GetClientsByUser(ctx context.Context, userID string) ([]models.Client, error) {
	var clients []models.Client
	err := s.conn(ctx).
		Preload("RedirectURIs").
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&clients).Error
	if err != nil {
		return nil, mapError(err, ErrQueryFailed)
	}
	return clients, nil
}

// UpdateClient saves the descriptive fields. Secret, owner and client type
// are immutable after registration.
func (s *Store) UpdateClient(ctx context.Context, client *models.Client) error {
	result := s.conn(ctx).
		Model(&models.Client{}).
		Where("id = ?", client.ID).
		Updates(map[string]any{
			"name":         client.Name,
			"description":  client.Description,
			"homepage_url": client.HomepageURL,
		})
	return affected(result, ErrNotUpdated, ErrNotFound)
}

// DeleteClient removes the client, its redirect URIs and every credential
// issued to it.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	return s.WithTx(ctx, func(ctx context.Context) error {
		tx := s.conn(ctx)
		for _, model := range []any{
			&models.RedirectURI{},
			&models.AuthorizationCode{},
			&models.DeviceAuthorization{},
			&models.RefreshToken{},
			&models.AccessToken{},
		} {
			if err := tx.Where("client_id = ?", id).Delete(model).Error; err != nil {
				return mapError(err, ErrNotDeleted)
			}
		}
		return affected(tx.Where("id = ?", id).Delete(&models.Client{}), ErrNotDeleted, ErrNotFound)
	})
}
