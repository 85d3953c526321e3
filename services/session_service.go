package services

import (
	"context"
	"errors"
	"strings"

	"github.com/anjiri1684/tutor_connect/apperrors"
	"github.com/anjiri1684/tutor_connect/database"
	"github.com/anjiri1684/tutor_connect/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateSessionInput struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Subject     string  `json:"subject" validate:"required,max=255"`
	Description string  `json:"description" validate:"max=5000"`
	Date        string  `json:"date" validate:"required"`
	Duration    FlexInt `json:"duration" validate:"required,gt=0,lte=1440"`
}

type SessionService struct {
	store    database.Store
	notifier Notifier
	log      *zap.Logger
}

func NewSessionService(store database.Store, notifier Notifier, log *zap.Logger) *SessionService {
	return &SessionService{store: store, notifier: orNop(notifier), log: log}
}

// Create publishes a new slot owned by the calling tutor. Status always starts available.
func (s *SessionService) Create(ctx context.Context, caller *models.User, in CreateSessionInput) (*models.SessionView, error) {
	if err := requireRole(caller, models.RoleTutor, "only tutors can create sessions"); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	date, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		Title:       in.Title,
		Subject:     in.Subject,
		Description: in.Description,
		TutorID:     caller.ID,
		Date:        date,
		Duration:    int(in.Duration),
		Status:      models.SessionAvailable,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, apperrors.Internal("failed to create session", err)
	}
	session.Tutor = caller
	s.log.Info("session created", zap.String("session_id", session.ID.String()), zap.String("tutor_id", caller.ID.String()))

	view := session.View()
	return &view, nil
}

func (s *SessionService) ListAvailable(ctx context.Context) ([]models.SessionView, error) {
	sessions, err := s.store.ListSessionsByStatus(ctx, models.SessionAvailable)
	if err != nil {
		return nil, apperrors.Internal("failed to list sessions", err)
	}
	return models.SessionViews(sessions), nil
}

// ListMine returns the sessions a tutor owns or a student booked.
func (s *SessionService) ListMine(ctx context.Context, caller *models.User) ([]models.SessionView, error) {
	var (
		sessions []models.Session
		err      error
	)
	switch caller.Role {
	case models.RoleTutor:
		sessions, err = s.store.ListSessionsByTutor(ctx, caller.ID)
	case models.RoleStudent:
		sessions, err = s.store.ListSessionsByStudent(ctx, caller.ID)
	default:
		return []models.SessionView{}, nil
	}
	if err != nil {
		return nil, apperrors.Internal("failed to list sessions", err)
	}
	return models.SessionViews(sessions), nil
}

// Book claims an available session for the calling student. The status check and the write
// are one conditional update in the store, so concurrent attempts yield exactly one winner.
func (s *SessionService) Book(ctx context.Context, caller *models.User, rawID string) (*models.SessionView, error) {
	if err := requireRole(caller, models.RoleStudent, "only students can book sessions"); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return nil, apperrors.Conflict("session not available")
	}

	session, err := s.store.BookSession(ctx, id, caller.ID)
	if err != nil {
		if errors.Is(err, database.ErrSessionUnavailable) {
			return nil, apperrors.Conflict("session not available")
		}
		return nil, apperrors.Internal("failed to book session", err)
	}
	s.log.Info("session booked", zap.String("session_id", session.ID.String()), zap.String("student_id", caller.ID.String()))
	s.notifier.SessionBooked(*session)

	view := session.View()
	return &view, nil
}
