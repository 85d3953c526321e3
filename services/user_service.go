package services

import (
	"context"

	"github.com/anjiri1684/tutor_connect/apperrors"
	"github.com/anjiri1684/tutor_connect/database"
	"github.com/anjiri1684/tutor_connect/models"
)

type UserService struct {
	store database.Store
}

func NewUserService(store database.Store) *UserService {
	return &UserService{store: store}
}

func (s *UserService) Me(caller *models.User) models.UserProfile {
	return caller.Profile()
}

func (s *UserService) ListTutors(ctx context.Context) ([]models.UserProfile, error) {
	tutors, err := s.store.ListUsersByRole(ctx, models.RoleTutor)
	if err != nil {
		return nil, apperrors.Internal("failed to list tutors", err)
	}
	return models.Profiles(tutors), nil
}

// requireRole is the single capability check used by every role-gated operation.
func requireRole(caller *models.User, role models.Role, msg string) error {
	if caller == nil {
		return apperrors.Auth("please authenticate")
	}
	if caller.Role != role {
		return apperrors.Authorization(msg)
	}
	return nil
}
