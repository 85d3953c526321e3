package database

import (
	"context"
	"errors"

	"github.com/anjiri1684/tutor_connect/models"
	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrSessionUnavailable = errors.New("session not available")
	ErrDuplicateReview    = errors.New("session already reviewed")
)

// Store is the persistence contract shared by the Postgres and in-memory implementations.
//
// BookSession and CreateReview are the two read-modify-write operations. Both must be atomic
// against concurrent callers: BookSession is a compare-and-swap on status, CreateReview
// inserts the review and folds its rating into the tutor aggregate in one transaction.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error)

	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	// List methods return sessions with Tutor and Student populated.
	ListSessionsByStatus(ctx context.Context, status models.SessionStatus) ([]models.Session, error)
	ListSessionsByTutor(ctx context.Context, tutorID uuid.UUID) ([]models.Session, error)
	ListSessionsByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Session, error)
	// BookSession sets student and status=booked only if the session is still available.
	// It returns ErrSessionUnavailable when the session is missing or already taken.
	BookSession(ctx context.Context, sessionID, studentID uuid.UUID) (*models.Session, error)

	// CreateReview persists the review and returns the tutor with the updated aggregate.
	CreateReview(ctx context.Context, review *models.Review) (*models.User, error)
	// ListReviewsByTutor returns reviews newest first with Session and Student populated.
	ListReviewsByTutor(ctx context.Context, tutorID uuid.UUID) ([]models.Review, error)

	// ReconcileTutorRatings recomputes every tutor aggregate from the reviews table and
	// rewrites the ones that drifted. It returns how many tutors were corrected.
	ReconcileTutorRatings(ctx context.Context) (int, error)

	Close() error
}

const ratingTolerance = 1e-9

func ratingDrifted(user *models.User, mean float64, count int) bool {
	if user.TotalReviews != count {
		return true
	}
	diff := user.Rating - mean
	return diff > ratingTolerance || diff < -ratingTolerance
}
