package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/anjiri1684/tutor_connect/database"
	"github.com/anjiri1684/tutor_connect/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type recordingNotifier struct {
	mu      sync.Mutex
	booked  []models.Session
	reviews []models.Review
}

func (r *recordingNotifier) SessionBooked(s models.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.booked = append(r.booked, s)
}

func (r *recordingNotifier) ReviewSubmitted(rv models.Review, _ models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews = append(r.reviews, rv)
}

type testEnv struct {
	store    *database.MemoryStore
	tokens   *TokenService
	auth     *AuthService
	users    *UserService
	sessions *SessionService
	reviews  *ReviewService
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := database.NewMemoryStore()
	tokens := NewTokenService("test-secret-0123456789abcdef0123", time.Hour)
	auth, err := NewAuthService(store, tokens, bcrypt.MinCost, zap.NewNop())
	require.NoError(t, err)
	notifier := &recordingNotifier{}
	return &testEnv{
		store:    store,
		tokens:   tokens,
		auth:     auth,
		users:    NewUserService(store),
		sessions: NewSessionService(store, notifier, zap.NewNop()),
		reviews:  NewReviewService(store, notifier, zap.NewNop()),
		notifier: notifier,
	}
}

func (e *testEnv) register(t *testing.T, name string, role models.Role) *models.User {
	t.Helper()
	res, err := e.auth.Register(context.Background(), RegisterInput{
		Name:     name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: "secret123",
		Role:     role,
	})
	require.NoError(t, err)
	user, err := e.store.GetUserByID(context.Background(), res.User.ID)
	require.NoError(t, err)
	return user
}

func (e *testEnv) createSession(t *testing.T, tutor *models.User, title string) *models.SessionView {
	t.Helper()
	s, err := e.sessions.Create(context.Background(), tutor, CreateSessionInput{
		Title:    title,
		Subject:  "math",
		Date:     "2030-01-02T15:04:05Z",
		Duration: 60,
	})
	require.NoError(t, err)
	return s
}

func (e *testEnv) book(t *testing.T, student *models.User, session *models.SessionView) {
	t.Helper()
	_, err := e.sessions.Book(context.Background(), student, session.ID.String())
	require.NoError(t, err)
}
