package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTutor
}

type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name         string         `gorm:"size:255;not null" json:"name"`
	Email        string         `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password     string         `gorm:"not null" json:"-"`
	Role         Role           `gorm:"size:20;not null;index" json:"role"`
	Subjects     pq.StringArray `gorm:"type:text[]" json:"subjects"`
	Bio          string         `gorm:"type:text" json:"bio"`
	Rating       float64        `gorm:"not null;default:0" json:"rating"`
	TotalReviews int            `gorm:"not null;default:0" json:"totalReviews"`

	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserProfile is the public view of a user. It has no password field at all, so no read
// path can leak the hash by accident.
type UserProfile struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	Subjects     []string  `json:"subjects"`
	Bio          string    `json:"bio"`
	Rating       float64   `json:"rating"`
	TotalReviews int       `json:"totalReviews"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (u *User) Profile() UserProfile {
	subjects := make([]string, len(u.Subjects))
	copy(subjects, u.Subjects)
	return UserProfile{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		Subjects:     subjects,
		Bio:          u.Bio,
		Rating:       u.Rating,
		TotalReviews: u.TotalReviews,
		CreatedAt:    u.CreatedAt,
	}
}

func Profiles(users []User) []UserProfile {
	res := make([]UserProfile, 0, len(users))
	for i := range users {
		res = append(res, users[i].Profile())
	}
	return res
}
