package store

import (
	"context"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
)

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, mapError(err, ErrQueryFailed)
	}
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, mapError(err, ErrQueryFailed)
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return mapError(s.conn(ctx).Create(user).Error, ErrNotCreated)
}
