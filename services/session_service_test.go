package services

import (
	"context"
	"testing"
	"time"

	"github.com/anjiri1684/tutor_connect/apperrors"
	"github.com/anjiri1684/tutor_connect/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestCreateSessionRequiresTutor(t *testing.T) {
	env := newTestEnv(t)
	student := env.register(t, "sam", models.RoleStudent)

	_, err := env.sessions.Create(context.Background(), student, CreateSessionInput{
		Title: "Algebra", Subject: "math", Date: "2030-01-02T15:04", Duration: 60,
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindAuthorization))

	sessions, err := env.sessions.ListAvailable(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestCreateSessionForcesAvailable(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.register(t, "ada", models.RoleTutor)

	s, err := env.sessions.Create(context.Background(), tutor, CreateSessionInput{
		Title:    " Algebra ",
		Subject:  "math",
		Date:     "2030-01-02T15:04",
		Duration: 90,
	})
	require.NoError(t, err)
	assert.Equal(t, "Algebra", s.Title)
	assert.Equal(t, models.SessionAvailable, s.Status)
	assert.Nil(t, s.Student)
	require.NotNil(t, s.Tutor)
	assert.Equal(t, tutor.ID, s.Tutor.ID)
	assert.Equal(t, 90, s.Duration)
	assert.True(t, s.Date.Equal(time.Date(2030, 1, 2, 15, 4, 0, 0, time.UTC)))
}

func TestCreateSessionValidation(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.register(t, "ada", models.RoleTutor)

	cases := map[string]CreateSessionInput{
		"missing title":    {Subject: "math", Date: "2030-01-02T15:04", Duration: 60},
		"missing subject":  {Title: "A", Date: "2030-01-02T15:04", Duration: 60},
		"missing date":     {Title: "A", Subject: "math", Duration: 60},
		"bad date":         {Title: "A", Subject: "math", Date: "next tuesday", Duration: 60},
		"zero duration":    {Title: "A", Subject: "math", Date: "2030-01-02T15:04"},
		"negative minutes": {Title: "A", Subject: "math", Date: "2030-01-02T15:04", Duration: -5},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.sessions.Create(context.Background(), tutor, in)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.KindValidation), "got %v", err)
		})
	}
}

func TestBookSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tutor := env.register(t, "ada", models.RoleTutor)
	student := env.register(t, "sam", models.RoleStudent)
	s := env.createSession(t, tutor, "Algebra")

	booked, err := env.sessions.Book(ctx, student, s.ID.String())
	require.NoError(t, err)
	assert.Equal(t, models.SessionBooked, booked.Status)
	require.NotNil(t, booked.Student)
	assert.Equal(t, student.ID, booked.Student.ID)

	available, err := env.sessions.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Empty(t, available)

	mine, err := env.sessions.ListMine(ctx, student)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, s.ID, mine[0].ID)

	tutorMine, err := env.sessions.ListMine(ctx, tutor)
	require.NoError(t, err)
	require.Len(t, tutorMine, 1)
	assert.Equal(t, models.SessionBooked, tutorMine[0].Status)

	require.Len(t, env.notifier.booked, 1)
	assert.Equal(t, s.ID, env.notifier.booked[0].ID)
}

func TestBookSessionRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tutor := env.register(t, "ada", models.RoleTutor)
	student := env.register(t, "sam", models.RoleStudent)
	other := env.register(t, "kim", models.RoleStudent)
	s := env.createSession(t, tutor, "Algebra")

	_, err := env.sessions.Book(ctx, tutor, s.ID.String())
	assert.True(t, apperrors.Is(err, apperrors.KindAuthorization))

	_, err = env.sessions.Book(ctx, student, "not-a-uuid")
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	_, err = env.sessions.Book(ctx, student, uuid.NewString())
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	env.book(t, student, s)

	_, err = env.sessions.Book(ctx, other, s.ID.String())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	assert.Contains(t, err.Error(), "session not available")

	_, err = env.sessions.Book(ctx, student, s.ID.String())
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	got, err := env.store.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, student.ID, *got.StudentID)
}

func TestConcurrentBookingHasOneWinner(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.register(t, "ada", models.RoleTutor)
	s := env.createSession(t, tutor, "Algebra")

	const n = 12
	students := make([]*models.User, n)
	for i := range students {
		students[i] = env.register(t, "student"+string(rune('a'+i)), models.RoleStudent)
	}

	results := make([]error, n)
	var g errgroup.Group
	for i := range students {
		i := i
		g.Go(func() error {
			_, results[i] = env.sessions.Book(context.Background(), students[i], s.ID.String())
			return nil
		})
	}
	require.NoError(t, g.Wait())

	winners := 0
	var winner uuid.UUID
	for i, err := range results {
		if err == nil {
			winners++
			winner = students[i].ID
			continue
		}
		assert.True(t, apperrors.Is(err, apperrors.KindConflict), "got %v", err)
	}
	assert.Equal(t, 1, winners)

	got, err := env.store.GetSession(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionBooked, got.Status)
	assert.Equal(t, winner, *got.StudentID)
	assert.Len(t, env.notifier.booked, 1)
}

func TestListMineOnlyOwnSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.register(t, "ada", models.RoleTutor)
	bob := env.register(t, "bob", models.RoleTutor)
	env.createSession(t, ada, "Algebra")
	env.createSession(t, ada, "Geometry")
	env.createSession(t, bob, "Chemistry")

	mine, err := env.sessions.ListMine(ctx, ada)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, s := range mine {
		assert.Equal(t, ada.ID, s.Tutor.ID)
	}

	student := env.register(t, "sam", models.RoleStudent)
	none, err := env.sessions.ListMine(ctx, student)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
