package db

import (
	"context"

	"gorm.io/gorm"

	"ers/src/core/ports"
	"ers/src/models"
)

// ProfileSource reads the registrant's identity snapshot from the users
// table at submission time.
type ProfileSource struct {
	conn *gorm.DB
}

func NewProfileSource(conn *gorm.DB) *ProfileSource {
	return &ProfileSource{conn: conn}
}

func (s *ProfileSource) Snapshot(ctx context.Context, userID uint) (*ports.Profile, error) {
	var user models.User
	err := s.conn.WithContext(ctx).
		Where(&models.User{ID: userID}).
		First(&user).
		Error
	if err != nil {
		return nil, err
	}
	return &ports.Profile{
		Name:       user.Name,
		Document:   user.Document,
		Phone:      user.Phone,
		Email:      user.Email,
		Reputation: user.Reputation,
	}, nil
}
