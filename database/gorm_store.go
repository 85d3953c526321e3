package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/anjiri1684/tutor_connect/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *GormStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "get user")
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err, "get user by email")
	}
	return &user, nil
}

func (s *GormStore) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Where("role = ?", role).Order("name asc").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *GormStore) CreateSession(ctx context.Context, session *models.Session) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(session).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *GormStore) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var session models.Session
	if err := s.withRefs(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "get session")
	}
	return &session, nil
}

func (s *GormStore) ListSessionsByStatus(ctx context.Context, status models.SessionStatus) ([]models.Session, error) {
	return s.listSessions(ctx, "status = ?", status)
}

func (s *GormStore) ListSessionsByTutor(ctx context.Context, tutorID uuid.UUID) ([]models.Session, error) {
	return s.listSessions(ctx, "tutor_id = ?", tutorID)
}

func (s *GormStore) ListSessionsByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Session, error) {
	return s.listSessions(ctx, "student_id = ?", studentID)
}

func (s *GormStore) listSessions(ctx context.Context, query string, arg interface{}) ([]models.Session, error) {
	var sessions []models.Session
	if err := s.withRefs(ctx).Where(query, arg).Order("date asc, created_at asc").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (s *GormStore) BookSession(ctx context.Context, sessionID, studentID uuid.UUID) (*models.Session, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND status = ?", sessionID, models.SessionAvailable).
		Updates(map[string]interface{}{
			"student_id": studentID,
			"status":     models.SessionBooked,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("book session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrSessionUnavailable
	}
	return s.GetSession(ctx, sessionID)
}

func (s *GormStore) CreateReview(ctx context.Context, review *models.Review) (*models.User, error) {
	var tutor models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(review).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateReview
			}
			return err
		}

		// Both SET expressions read the pre-update row. The row lock taken here serializes
		// concurrent reviews of the same tutor until this transaction commits.
		res := tx.Model(&models.User{}).
			Where("id = ?", review.TutorID).
			Updates(map[string]interface{}{
				"rating":        gorm.Expr("(rating * total_reviews + ?) / (total_reviews + 1)", review.Rating),
				"total_reviews": gorm.Expr("total_reviews + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.First(&tutor, "id = ?", review.TutorID).Error
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateReview) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create review: %w", err)
	}
	return &tutor, nil
}

func (s *GormStore) ListReviewsByTutor(ctx context.Context, tutorID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.WithContext(ctx).
		Preload("Student", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Preload("Session", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title") }).
		Where("tutor_id = ?", tutorID).
		Order("created_at desc").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

func (s *GormStore) ReconcileTutorRatings(ctx context.Context) (int, error) {
	var tutorIDs []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleTutor).Pluck("id", &tutorIDs).Error; err != nil {
		return 0, fmt.Errorf("list tutors: %w", err)
	}

	fixed := 0
	for _, id := range tutorIDs {
		changed, err := s.reconcileTutor(ctx, id)
		if err != nil {
			return fixed, err
		}
		if changed {
			fixed++
		}
	}
	return fixed, nil
}

func (s *GormStore) reconcileTutor(ctx context.Context, tutorID uuid.UUID) (bool, error) {
	changed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tutor models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&tutor, "id = ?", tutorID).Error; err != nil {
			return err
		}

		var agg struct {
			Mean  float64
			Count int
		}
		if err := tx.Model(&models.Review{}).
			Select("COALESCE(AVG(rating), 0) AS mean, COUNT(*) AS count").
			Where("tutor_id = ?", tutorID).
			Scan(&agg).Error; err != nil {
			return err
		}

		if !ratingDrifted(&tutor, agg.Mean, agg.Count) {
			return nil
		}
		changed = true
		return tx.Model(&tutor).Updates(map[string]interface{}{
			"rating":        agg.Mean,
			"total_reviews": agg.Count,
		}).Error
	})
	if err != nil {
		return false, fmt.Errorf("reconcile tutor %s: %w", tutorID, err)
	}
	return changed, nil
}

func (s *GormStore) withRefs(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Tutor").Preload("Student")
}

func notFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
