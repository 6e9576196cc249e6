package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/micrositio/authd/internal/auth/domain"
	"github.com/micrositio/authd/internal/auth/store"
	"github.com/micrositio/authd/pkg/cryptox"
	"github.com/micrositio/authd/pkg/idx"
	"github.com/micrositio/authd/pkg/slogx"
)

var (
	ErrNotAuthorized    = errors.New("matricula not authorized to register")
	ErrDuplicateAccount = errors.New("account already exists")
	ErrUsernameTaken    = errors.New("username already taken")
)

type RegisterService struct {
	Store    store.Store
	Notifier *Notifier
}

type RegisterInput struct {
	Matricula       string
	Username        string
	Password        string
	ConfirmPassword string
	AcceptTerms     bool
}

type RegisterResult struct {
	UserID string
	Email  string
}

// Register creates a pending account for an allowlisted matricula. The
// account email always comes from the allowlist row, never from the caller.
func (s *RegisterService) Register(ctx context.Context, in RegisterInput, meta domain.RequestMeta) (RegisterResult, error) {
	l := slogx.FromContext(ctx)

	// 1. Shape validation, collecting every violation.
	v := &validator{}
	v.matricula(in.Matricula)
	v.username(in.Username)
	v.password(in.Password)
	if in.Password != in.ConfirmPassword {
		v.addf("passwords do not match")
	}
	if !in.AcceptTerms {
		v.addf("terms and conditions must be accepted")
	}
	if err := v.err(); err != nil {
		return RegisterResult{}, err
	}

	// 2. Allowlist check by matricula only.
	authorized, err := s.Store.AuthorizedUsers().GetByMatricula(ctx, in.Matricula)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("unauthorized registration attempt",
				"matricula", in.Matricula,
				"ip", meta.IPAddress,
			)
			s.Notifier.UnauthorizedAttempt(ctx, in.Matricula, in.Username, meta)
			return RegisterResult{}, ErrNotAuthorized
		}
		return RegisterResult{}, fmt.Errorf("allowlist lookup: %w", err)
	}

	// 3. Duplicate checks against the derived email, the matricula and the
	// requested username.
	if _, err := s.Store.Users().GetByEmail(ctx, authorized.Email); err == nil {
		s.Notifier.DuplicateAttempt(ctx, in.Matricula, in.Username, meta)
		return RegisterResult{}, ErrDuplicateAccount
	} else if !errors.Is(err, store.ErrNotFound) {
		return RegisterResult{}, fmt.Errorf("duplicate check by email: %w", err)
	}

	if _, err := s.Store.Users().GetByMatricula(ctx, in.Matricula); err == nil {
		s.Notifier.DuplicateAttempt(ctx, in.Matricula, in.Username, meta)
		return RegisterResult{}, ErrDuplicateAccount
	} else if !errors.Is(err, store.ErrNotFound) {
		return RegisterResult{}, fmt.Errorf("duplicate check by matricula: %w", err)
	}

	if _, err := s.Store.Users().GetByUsername(ctx, in.Username); err == nil {
		// Not a security event, no alert.
		return RegisterResult{}, ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return RegisterResult{}, fmt.Errorf("duplicate check by username: %w", err)
	}

	// 4. Hash and create in a pending (inactive) state.
	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Email:        authorized.Email,
		Username:     in.Username,
		Matricula:    in.Matricula,
		PasswordHash: hash,
		IsActive:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// A concurrent registration won one of the unique constraints.
			s.Notifier.DuplicateAttempt(ctx, in.Matricula, in.Username, meta)
			return RegisterResult{}, ErrDuplicateAccount
		}
		return RegisterResult{}, fmt.Errorf("create user: %w", err)
	}

	l.Info("account registered", "user_id", user.ID, "matricula", user.Matricula)
	s.Notifier.NewRegistration(ctx, user)

	return RegisterResult{UserID: user.ID, Email: user.Email}, nil
}
