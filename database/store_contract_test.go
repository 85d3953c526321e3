package database

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anjiri1684/tutor_connect/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// runStoreContract exercises behaviour every Store implementation must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("DuplicateEmail", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.CreateUser(ctx, newUser("dup@example.com", models.RoleStudent)))
		err := s.CreateUser(ctx, newUser("dup@example.com", models.RoleTutor))
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("LookupMissing", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.GetUserByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.GetSession(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ListTutors", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.CreateUser(ctx, newUser("t1@example.com", models.RoleTutor)))
		require.NoError(t, s.CreateUser(ctx, newUser("t2@example.com", models.RoleTutor)))
		require.NoError(t, s.CreateUser(ctx, newUser("s1@example.com", models.RoleStudent)))

		tutors, err := s.ListUsersByRole(ctx, models.RoleTutor)
		require.NoError(t, err)
		assert.Len(t, tutors, 2)
		for _, u := range tutors {
			assert.Equal(t, models.RoleTutor, u.Role)
		}
	})

	t.Run("BookSessionOnce", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		tutor, student := newUser("tutor@example.com", models.RoleTutor), newUser("student@example.com", models.RoleStudent)
		require.NoError(t, s.CreateUser(ctx, tutor))
		require.NoError(t, s.CreateUser(ctx, student))
		session := newSession(tutor.ID)
		require.NoError(t, s.CreateSession(ctx, session))

		booked, err := s.BookSession(ctx, session.ID, student.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SessionBooked, booked.Status)
		require.NotNil(t, booked.StudentID)
		assert.Equal(t, student.ID, *booked.StudentID)
		require.NotNil(t, booked.Tutor)
		require.NotNil(t, booked.Student)
		assert.Equal(t, student.Name, booked.Student.Name)

		_, err = s.BookSession(ctx, session.ID, student.ID)
		assert.ErrorIs(t, err, ErrSessionUnavailable)
		_, err = s.BookSession(ctx, uuid.New(), student.ID)
		assert.ErrorIs(t, err, ErrSessionUnavailable)

		available, err := s.ListSessionsByStatus(ctx, models.SessionAvailable)
		require.NoError(t, err)
		assert.Empty(t, available)

		mine, err := s.ListSessionsByStudent(ctx, student.ID)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, session.ID, mine[0].ID)

		owned, err := s.ListSessionsByTutor(ctx, tutor.ID)
		require.NoError(t, err)
		require.Len(t, owned, 1)
		require.NotNil(t, owned[0].Student)
	})

	t.Run("ConcurrentBookingHasOneWinner", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		tutor := newUser("tutor@example.com", models.RoleTutor)
		require.NoError(t, s.CreateUser(ctx, tutor))
		session := newSession(tutor.ID)
		require.NoError(t, s.CreateSession(ctx, session))

		const n = 16
		students := make([]*models.User, n)
		for i := range students {
			students[i] = newUser(fmt.Sprintf("student%d@example.com", i), models.RoleStudent)
			require.NoError(t, s.CreateUser(ctx, students[i]))
		}

		var wins, conflicts atomic.Int32
		var g errgroup.Group
		for _, st := range students {
			st := st
			g.Go(func() error {
				_, err := s.BookSession(ctx, session.ID, st.ID)
				switch {
				case err == nil:
					wins.Add(1)
				case err == ErrSessionUnavailable:
					conflicts.Add(1)
				default:
					return err
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())
		assert.Equal(t, int32(1), wins.Load())
		assert.Equal(t, int32(n-1), conflicts.Load())

		got, err := s.GetSession(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SessionBooked, got.Status)
		assert.NotNil(t, got.StudentID)
	})

	t.Run("ConcurrentReviewsKeepAggregate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		tutor := newUser("tutor@example.com", models.RoleTutor)
		require.NoError(t, s.CreateUser(ctx, tutor))

		ratings := []int{5, 3, 4, 1, 2, 5, 4, 3, 5, 4}
		reviews := make([]*models.Review, len(ratings))
		for i, r := range ratings {
			student := newUser(fmt.Sprintf("student%d@example.com", i), models.RoleStudent)
			require.NoError(t, s.CreateUser(ctx, student))
			session := newSession(tutor.ID)
			require.NoError(t, s.CreateSession(ctx, session))
			_, err := s.BookSession(ctx, session.ID, student.ID)
			require.NoError(t, err)
			reviews[i] = &models.Review{SessionID: session.ID, TutorID: tutor.ID, StudentID: student.ID, Rating: r}
		}

		var g errgroup.Group
		for _, rv := range reviews {
			rv := rv
			g.Go(func() error {
				_, err := s.CreateReview(ctx, rv)
				return err
			})
		}
		require.NoError(t, g.Wait())

		got, err := s.GetUserByID(ctx, tutor.ID)
		require.NoError(t, err)
		assert.Equal(t, len(ratings), got.TotalReviews)
		assert.InDelta(t, 3.6, got.Rating, 1e-9)

		listed, err := s.ListReviewsByTutor(ctx, tutor.ID)
		require.NoError(t, err)
		assert.Len(t, listed, len(ratings))
		for _, r := range listed {
			require.NotNil(t, r.Student)
			require.NotNil(t, r.Session)
			assert.NotEmpty(t, r.Student.Name)
			assert.Empty(t, r.Student.Email)
			assert.Equal(t, "Algebra", r.Session.Title)
		}
	})

	t.Run("DuplicateReviewRejected", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		tutor, student := newUser("tutor@example.com", models.RoleTutor), newUser("student@example.com", models.RoleStudent)
		require.NoError(t, s.CreateUser(ctx, tutor))
		require.NoError(t, s.CreateUser(ctx, student))
		session := newSession(tutor.ID)
		require.NoError(t, s.CreateSession(ctx, session))
		_, err := s.BookSession(ctx, session.ID, student.ID)
		require.NoError(t, err)

		updated, err := s.CreateReview(ctx, &models.Review{SessionID: session.ID, TutorID: tutor.ID, StudentID: student.ID, Rating: 5})
		require.NoError(t, err)
		assert.Equal(t, 1, updated.TotalReviews)
		assert.InDelta(t, 5.0, updated.Rating, 1e-9)

		_, err = s.CreateReview(ctx, &models.Review{SessionID: session.ID, TutorID: tutor.ID, StudentID: student.ID, Rating: 1})
		assert.ErrorIs(t, err, ErrDuplicateReview)

		got, err := s.GetUserByID(ctx, tutor.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.TotalReviews)
		assert.InDelta(t, 5.0, got.Rating, 1e-9)
	})

	t.Run("ReconcileLeavesConsistentRows", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		tutor := newUser("tutor@example.com", models.RoleTutor)
		require.NoError(t, s.CreateUser(ctx, tutor))

		fixed, err := s.ReconcileTutorRatings(ctx)
		require.NoError(t, err)
		assert.Zero(t, fixed)
	})
}

func newUser(email string, role models.Role) *models.User {
	return &models.User{
		Name:     "User " + email,
		Email:    email,
		Password: "$2a$10$not-a-real-hash",
		Role:     role,
		Subjects: []string{"math"},
	}
}

func newSession(tutorID uuid.UUID) *models.Session {
	return &models.Session{
		Title:    "Algebra",
		Subject:  "math",
		TutorID:  tutorID,
		Date:     time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second),
		Duration: 60,
		Status:   models.SessionAvailable,
	}
}
