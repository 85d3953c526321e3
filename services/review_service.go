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

type SubmitReviewInput struct {
	SessionID string  `json:"sessionId" validate:"required"`
	Rating    FlexInt `json:"rating" validate:"required,min=1,max=5"`
	Comment   string  `json:"comment" validate:"max=5000"`
}

type ReviewService struct {
	store    database.Store
	notifier Notifier
	log      *zap.Logger
}

func NewReviewService(store database.Store, notifier Notifier, log *zap.Logger) *ReviewService {
	return &ReviewService{store: store, notifier: orNop(notifier), log: log}
}

// Submit records a review by the student who booked the session and folds its rating into
// the tutor's aggregate in the same transaction.
func (s *ReviewService) Submit(ctx context.Context, caller *models.User, in SubmitReviewInput) (*models.ReviewView, error) {
	if err := requireRole(caller, models.RoleStudent, "only students can submit reviews"); err != nil {
		return nil, err
	}
	in.Comment = strings.TrimSpace(in.Comment)
	if err := validateInput(in); err != nil {
		if int(in.Rating) < models.MinRating || int(in.Rating) > models.MaxRating {
			return nil, apperrors.Validation("rating must be an integer between 1 and 5")
		}
		return nil, err
	}

	sessionID, err := uuid.Parse(strings.TrimSpace(in.SessionID))
	if err != nil {
		return nil, apperrors.Validation("invalid session")
	}
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperrors.Validation("invalid session")
		}
		return nil, apperrors.Internal("failed to load session", err)
	}
	if !session.Status.HasStudent() || session.StudentID == nil || *session.StudentID != caller.ID {
		return nil, apperrors.Validation("invalid session")
	}

	review := &models.Review{
		SessionID: session.ID,
		TutorID:   session.TutorID,
		StudentID: caller.ID,
		Rating:    int(in.Rating),
		Comment:   in.Comment,
	}
	tutor, err := s.store.CreateReview(ctx, review)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrDuplicateReview):
			return nil, apperrors.Conflict("session already reviewed")
		case errors.Is(err, database.ErrNotFound):
			return nil, apperrors.Validation("invalid session")
		}
		return nil, apperrors.Internal("failed to submit review", err)
	}
	s.log.Info("review submitted",
		zap.String("review_id", review.ID.String()),
		zap.String("tutor_id", tutor.ID.String()),
		zap.Float64("tutor_rating", tutor.Rating),
		zap.Int("tutor_total_reviews", tutor.TotalReviews),
	)

	review.Session = &models.Session{ID: session.ID, Title: session.Title}
	review.Student = &models.User{ID: caller.ID, Name: caller.Name}
	s.notifier.ReviewSubmitted(*review, *tutor)

	view := review.View()
	return &view, nil
}

func (s *ReviewService) ListForTutor(ctx context.Context, rawTutorID string) ([]models.ReviewView, error) {
	tutorID, err := uuid.Parse(strings.TrimSpace(rawTutorID))
	if err != nil {
		return nil, apperrors.Validation("invalid tutor id")
	}
	reviews, err := s.store.ListReviewsByTutor(ctx, tutorID)
	if err != nil {
		return nil, apperrors.Internal("failed to list reviews", err)
	}
	return models.ReviewViews(reviews), nil
}
