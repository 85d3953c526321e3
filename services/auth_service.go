package services

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"

	"github.com/anjiri1684/tutor_connect/apperrors"
	"github.com/anjiri1684/tutor_connect/database"
	"github.com/anjiri1684/tutor_connect/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Name     string      `json:"name" validate:"required,max=255"`
	Email    string      `json:"email" validate:"required,email,max=255"`
	Password string      `json:"password" validate:"required,min=6,max=72"`
	Role     models.Role `json:"role" validate:"required,oneof=student tutor"`
	Subjects []string    `json:"subjects" validate:"max=50,dive,max=100"`
	Bio      string      `json:"bio" validate:"max=5000"`
}

const maxPasswordBytes = 72

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResult struct {
	User  models.UserProfile `json:"user"`
	Token string             `json:"token"`
}

type AuthService struct {
	store  database.Store
	tokens *TokenService
	log    *zap.Logger

	hashCost  int
	dummyHash []byte
}

// NewAuthService uses bcrypt at the given cost; pass bcrypt.DefaultCost outside tests.
func NewAuthService(store database.Store, tokens *TokenService, hashCost int, log *zap.Logger) (*AuthService, error) {
	// Compared against on unknown emails so both login failure paths cost one bcrypt check.
	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	dummy, err := bcrypt.GenerateFromPassword(seed, hashCost)
	if err != nil {
		return nil, err
	}
	return &AuthService{store: store, tokens: tokens, log: log, hashCost: hashCost, dummyHash: dummy}, nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Bio = strings.TrimSpace(in.Bio)
	in.Subjects = cleanSubjects(in.Subjects)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	// validator counts runes; bcrypt's limit is in bytes.
	if len(in.Password) > maxPasswordBytes {
		return nil, apperrors.Validation("password must be at most 72 bytes")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hash),
		Role:     in.Role,
		Subjects: in.Subjects,
		Bio:      in.Bio,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, apperrors.Validation("email already registered")
		}
		return nil, apperrors.Internal("failed to create user", err)
	}
	s.log.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return nil, apperrors.Internal("failed to look up user", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(in.Password))
		return nil, apperrors.InvalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, apperrors.InvalidCredentials()
	}
	return s.issue(user)
}

// Authenticate verifies a raw bearer token and resolves it to a live user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperrors.Auth("please authenticate")
	}
	return s.ResolveUser(ctx, id)
}

// ResolveUser loads the user a verified token is bound to. A token whose user is gone is
// treated like an invalid token.
func (s *AuthService) ResolveUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperrors.Auth("please authenticate")
		}
		return nil, apperrors.Internal("failed to load user", err)
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperrors.Internal("failed to create token", err)
	}
	return &AuthResult{User: user.Profile(), Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cleanSubjects(subjects []string) []string {
	res := make([]string, 0, len(subjects))
	for _, s := range subjects {
		if s = strings.TrimSpace(s); s != "" {
			res = append(res, s)
		}
	}
	return res
}
