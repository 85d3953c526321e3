package client

import (
	"errors"
	"fmt"
	"sync"

	"github.com/anjiri1684/tutor_connect/models"
)

type View string

const (
	ViewLogin         View = "login"
	ViewRegister      View = "register"
	ViewHome          View = "home"
	ViewTutors        View = "tutors"
	ViewSessions      View = "sessions"
	ViewCreateSession View = "create-session"
	ViewMySessions    View = "my-sessions"
)

var ErrNotLoggedIn = errors.New("not logged in")

// allowed reports whether a caller with role may open v. A nil role means logged out.
func allowed(v View, role *models.Role) bool {
	if role == nil {
		return v == ViewLogin || v == ViewRegister
	}
	if !role.Valid() {
		return false
	}
	switch v {
	case ViewHome, ViewMySessions:
		return true
	case ViewTutors, ViewSessions:
		return *role == models.RoleStudent
	case ViewCreateSession:
		return *role == models.RoleTutor
	}
	return false
}

// AppState is the front-end session. It changes only through its transition methods and is
// safe for concurrent use.
type AppState struct {
	mu         sync.RWMutex
	user       *models.UserProfile
	token      string
	view       View
	tutors     []models.UserProfile
	sessions   []models.SessionView
	mySessions []models.SessionView
}

func NewAppState() *AppState {
	return &AppState{view: ViewLogin}
}

type Snapshot struct {
	User       *models.UserProfile
	Token      string
	View       View
	Tutors     []models.UserProfile
	Sessions   []models.SessionView
	MySessions []models.SessionView
}

func (s *AppState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Token:      s.token,
		View:       s.view,
		Tutors:     append([]models.UserProfile(nil), s.tutors...),
		Sessions:   append([]models.SessionView(nil), s.sessions...),
		MySessions: append([]models.SessionView(nil), s.mySessions...),
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

func (s *AppState) LoginSucceeded(user models.UserProfile, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
	s.token = token
	s.view = ViewHome
}

// Logout drops the user, token and every fetched list.
func (s *AppState) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
	s.view = ViewLogin
	s.tutors, s.sessions, s.mySessions = nil, nil, nil
}

func (s *AppState) ShowView(v View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var role *models.Role
	if s.user != nil {
		role = &s.user.Role
	}
	if !allowed(v, role) {
		if role == nil {
			return ErrNotLoggedIn
		}
		return fmt.Errorf("view %q is not available to %s accounts", v, *role)
	}
	s.view = v
	return nil
}

func (s *AppState) TutorsLoaded(tutors []models.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tutors = append([]models.UserProfile(nil), tutors...)
}

func (s *AppState) SessionsLoaded(sessions []models.SessionView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append([]models.SessionView(nil), sessions...)
}

func (s *AppState) MySessionsLoaded(sessions []models.SessionView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mySessions = append([]models.SessionView(nil), sessions...)
}
