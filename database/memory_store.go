package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anjiri1684/tutor_connect/models"
	"github.com/google/uuid"
)

// MemoryStore keeps everything in-process behind a single mutex. It backs local development
// and unit tests, and honours the same atomicity contract as GormStore.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]models.User
	emails   map[string]uuid.UUID
	sessions map[uuid.UUID]models.Session
	reviews  map[uuid.UUID]models.Review
	reviewed map[uuid.UUID]uuid.UUID // session ID -> review ID
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uuid.UUID]models.User),
		emails:   make(map[string]uuid.UUID),
		sessions: make(map[uuid.UUID]models.Session),
		reviews:  make(map[uuid.UUID]models.Review),
		reviewed: make(map[uuid.UUID]uuid.UUID),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.emails[user.Email]; taken {
		return ErrDuplicateEmail
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = m.now()
	}
	m.users[user.ID] = *user
	m.emails[user.Email] = user.ID
	return nil
}

func (m *MemoryStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.emails[email]
	if !ok {
		return nil, ErrNotFound
	}
	user := m.users[id]
	return &user, nil
}

func (m *MemoryStore) ListUsersByRole(_ context.Context, role models.Role) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]models.User, 0)
	for _, u := range m.users {
		if u.Role == role {
			res = append(res, u)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (m *MemoryStore) CreateSession(_ context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = m.now()
	}
	stored := *session
	stored.Tutor, stored.Student = nil, nil
	m.sessions[session.ID] = stored
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, id uuid.UUID) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.resolve(&session)
	return &session, nil
}

func (m *MemoryStore) ListSessionsByStatus(_ context.Context, status models.SessionStatus) ([]models.Session, error) {
	return m.listSessions(func(s *models.Session) bool { return s.Status == status }), nil
}

func (m *MemoryStore) ListSessionsByTutor(_ context.Context, tutorID uuid.UUID) ([]models.Session, error) {
	return m.listSessions(func(s *models.Session) bool { return s.TutorID == tutorID }), nil
}

func (m *MemoryStore) ListSessionsByStudent(_ context.Context, studentID uuid.UUID) ([]models.Session, error) {
	return m.listSessions(func(s *models.Session) bool {
		return s.StudentID != nil && *s.StudentID == studentID
	}), nil
}

func (m *MemoryStore) listSessions(keep func(*models.Session) bool) []models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]models.Session, 0)
	for _, s := range m.sessions {
		if keep(&s) {
			m.resolve(&s)
			res = append(res, s)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Date.Equal(res[j].Date) {
			return res[i].Date.Before(res[j].Date)
		}
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res
}

func (m *MemoryStore) BookSession(_ context.Context, sessionID, studentID uuid.UUID) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok || session.Status != models.SessionAvailable {
		return nil, ErrSessionUnavailable
	}
	student := studentID
	session.StudentID = &student
	session.Status = models.SessionBooked
	m.sessions[sessionID] = session

	m.resolve(&session)
	return &session, nil
}

func (m *MemoryStore) CreateReview(_ context.Context, review *models.Review) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, done := m.reviewed[review.SessionID]; done {
		return nil, ErrDuplicateReview
	}
	tutor, ok := m.users[review.TutorID]
	if !ok {
		return nil, ErrNotFound
	}
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = m.now()
	}

	stored := *review
	stored.Session, stored.Student = nil, nil
	m.reviews[review.ID] = stored
	m.reviewed[review.SessionID] = review.ID

	tutor.Rating = models.RunningMean(tutor.Rating, tutor.TotalReviews, review.Rating)
	tutor.TotalReviews++
	m.users[tutor.ID] = tutor
	return &tutor, nil
}

func (m *MemoryStore) ListReviewsByTutor(_ context.Context, tutorID uuid.UUID) ([]models.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]models.Review, 0)
	for _, r := range m.reviews {
		if r.TutorID != tutorID {
			continue
		}
		if s, ok := m.sessions[r.SessionID]; ok {
			r.Session = &models.Session{ID: s.ID, Title: s.Title}
		}
		if u, ok := m.users[r.StudentID]; ok {
			r.Student = &models.User{ID: u.ID, Name: u.Name}
		}
		res = append(res, r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (m *MemoryStore) ReconcileTutorRatings(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sums := make(map[uuid.UUID]int)
	counts := make(map[uuid.UUID]int)
	for _, r := range m.reviews {
		sums[r.TutorID] += r.Rating
		counts[r.TutorID]++
	}

	fixed := 0
	for id, u := range m.users {
		if u.Role != models.RoleTutor {
			continue
		}
		count := counts[id]
		mean := 0.0
		if count > 0 {
			mean = float64(sums[id]) / float64(count)
		}
		if !ratingDrifted(&u, mean, count) {
			continue
		}
		u.Rating, u.TotalReviews = mean, count
		m.users[id] = u
		fixed++
	}
	return fixed, nil
}

// SetUserRating overwrites a user's aggregate without touching reviews. Tests use it to
// simulate drift.
func (m *MemoryStore) SetUserRating(id uuid.UUID, rating float64, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.Rating, u.TotalReviews = rating, total
		m.users[id] = u
	}
}

// resolve fills Tutor and Student from the user table. Callers hold m.mu.
func (m *MemoryStore) resolve(s *models.Session) {
	if u, ok := m.users[s.TutorID]; ok {
		tutor := u
		s.Tutor = &tutor
	}
	s.Student = nil
	if s.StudentID != nil {
		if u, ok := m.users[*s.StudentID]; ok {
			student := u
			s.Student = &student
		}
	}
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*GormStore)(nil)
)
