package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is immutable once written. SessionID is unique: a session is reviewed at most once.
type Review struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	TutorID   uuid.UUID `gorm:"type:uuid;not null;index"`
	StudentID uuid.UUID `gorm:"type:uuid;not null"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Comment   string    `gorm:"type:text"`

	Session *Session `gorm:"foreignKey:SessionID"`
	Student *User    `gorm:"foreignKey:StudentID"`

	CreatedAt time.Time
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type ReviewStudent struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type ReviewSession struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

// ReviewView discloses only the reviewing student's name and the session's title.
type ReviewView struct {
	ID        uuid.UUID     `json:"id"`
	Session   ReviewSession `json:"session"`
	Tutor     uuid.UUID     `json:"tutor"`
	Student   ReviewStudent `json:"student"`
	Rating    int           `json:"rating"`
	Comment   string        `json:"comment"`
	CreatedAt time.Time     `json:"createdAt"`
}

func (r *Review) View() ReviewView {
	v := ReviewView{
		ID:        r.ID,
		Session:   ReviewSession{ID: r.SessionID},
		Tutor:     r.TutorID,
		Student:   ReviewStudent{ID: r.StudentID},
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
	if r.Session != nil {
		v.Session.Title = r.Session.Title
	}
	if r.Student != nil {
		v.Student.Name = r.Student.Name
	}
	return v
}

func ReviewViews(reviews []Review) []ReviewView {
	res := make([]ReviewView, 0, len(reviews))
	for i := range reviews {
		res = append(res, reviews[i].View())
	}
	return res
}

// RunningMean folds one more rating into a mean over count values.
func RunningMean(mean float64, count int, rating int) float64 {
	return (mean*float64(count) + float64(rating)) / float64(count+1)
}
