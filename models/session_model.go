package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionStatus string

// Only available -> booked is ever performed. Completed and cancelled are part of the stored
// vocabulary but no operation moves a session into them.
const (
	SessionAvailable SessionStatus = "available"
	SessionBooked    SessionStatus = "booked"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// HasStudent reports whether a session in this status must carry a student.
func (s SessionStatus) HasStudent() bool {
	return s == SessionBooked || s == SessionCompleted
}

// Session is a tutoring slot published by a tutor. Not an authentication session.
type Session struct {
	ID          uuid.UUID     `gorm:"type:uuid;primary_key"`
	Title       string        `gorm:"size:255;not null"`
	Subject     string        `gorm:"size:255;not null"`
	Description string        `gorm:"type:text"`
	TutorID     uuid.UUID     `gorm:"type:uuid;not null;index"`
	StudentID   *uuid.UUID    `gorm:"type:uuid;index"`
	Date        time.Time     `gorm:"not null"`
	Duration    int           `gorm:"not null"`
	Status      SessionStatus `gorm:"size:20;not null;default:'available';index"`

	Tutor   *User `gorm:"foreignKey:TutorID"`
	Student *User `gorm:"foreignKey:StudentID"`

	CreatedAt time.Time
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SessionView is the wire shape of a session with its user references resolved to public
// profiles. Student is null until the session is booked.
type SessionView struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Subject     string        `json:"subject"`
	Description string        `json:"description"`
	Tutor       *UserProfile  `json:"tutor"`
	Student     *UserProfile  `json:"student"`
	Date        time.Time     `json:"date"`
	Duration    int           `json:"duration"`
	Status      SessionStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
}

func (s *Session) View() SessionView {
	v := SessionView{
		ID:          s.ID,
		Title:       s.Title,
		Subject:     s.Subject,
		Description: s.Description,
		Date:        s.Date,
		Duration:    s.Duration,
		Status:      s.Status,
		CreatedAt:   s.CreatedAt,
	}
	if s.Tutor != nil {
		p := s.Tutor.Profile()
		v.Tutor = &p
	}
	if s.Student != nil {
		p := s.Student.Profile()
		v.Student = &p
	}
	return v
}

func SessionViews(sessions []Session) []SessionView {
	res := make([]SessionView, 0, len(sessions))
	for i := range sessions {
		res = append(res, sessions[i].View())
	}
	return res
}
