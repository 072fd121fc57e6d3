package service

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	autherrors "stayhub/internal/auth/errors"
	"stayhub/internal/auth/token"
	"stayhub/pkg/config"
	apperrors "stayhub/pkg/errors"
	"stayhub/pkg/logger"
	"stayhub/pkg/model"
)

type mockUserRepository struct {
	createFunc      func(ctx context.Context, user *model.User) error
	findByEmailFunc func(ctx context.Context, email string) (*model.User, error)
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	user.ID = "507f1f77bcf86cd799439021"
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return nil, autherrors.ErrNotFound
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return nil, autherrors.ErrNotFound
}

func newTestService(repo *mockUserRepository) AuthService {
	cfg := &config.Config{
		Log: logger.New(logger.Config{Level: "error", Format: logger.FormatText}),
	}
	return NewAuthService(repo, token.NewManager("test-secret", time.Hour), cfg)
}

func TestRegister(t *testing.T) {
	var stored *model.User
	repo := &mockUserRepository{
		createFunc: func(ctx context.Context, user *model.User) error {
			user.ID = "507f1f77bcf86cd799439021"
			stored = user
			return nil
		},
	}
	svc := newTestService(repo)

	resp, err := svc.Register(context.Background(), &model.RegisterRequest{
		Name:     "  Dana  Levi ",
		Email:    " Dana@Example.com ",
		Password: "correct horse",
		IsHost:   true,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if stored.Name != "Dana Levi" {
		t.Errorf("name not normalized: %q", stored.Name)
	}
	if stored.Email != "dana@example.com" {
		t.Errorf("email not normalized: %q", stored.Email)
	}
	if stored.PasswordHash == "correct horse" || stored.PasswordHash == "" {
		t.Error("password stored unhashed")
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct horse")) != nil {
		t.Error("stored hash does not match password")
	}
	if resp.Token == "" {
		t.Error("no token issued")
	}
}

func TestRegisterShortPassword(t *testing.T) {
	svc := newTestService(&mockUserRepository{})

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Name:     "Dana",
		Email:    "dana@example.com",
		Password: "short",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeValidation {
		t.Errorf("error code = %s, want %s", apperrors.AsAppError(err).Code, apperrors.CodeValidation)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := &mockUserRepository{
		createFunc: func(ctx context.Context, user *model.User) error {
			return autherrors.ErrEmailTaken
		},
	}
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Name:     "Dana",
		Email:    "dana@example.com",
		Password: "correct horse",
	})
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeConflict {
		t.Errorf("error code = %s, want %s", apperrors.AsAppError(err).Code, apperrors.CodeConflict)
	}
}

func TestLogin(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	repo := &mockUserRepository{
		findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           "507f1f77bcf86cd799439021",
				Email:        email,
				PasswordHash: string(hash),
			}, nil
		},
	}
	svc := newTestService(repo)

	resp, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "dana@example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.Token == "" {
		t.Error("no token issued")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)

	tests := []struct {
		name string
		repo *mockUserRepository
	}{
		{
			"wrong password",
			&mockUserRepository{
				findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
					return &model.User{PasswordHash: string(hash)}, nil
				},
			},
		},
		{
			"unknown email",
			&mockUserRepository{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(tt.repo)

			_, err := svc.Login(context.Background(), &model.LoginRequest{
				Email:    "dana@example.com",
				Password: "wrong",
			})
			if err == nil {
				t.Fatal("expected unauthorized error")
			}

			appErr := apperrors.AsAppError(err)
			if appErr.Code != apperrors.CodeUnauthorized {
				t.Errorf("error code = %s, want %s", appErr.Code, apperrors.CodeUnauthorized)
			}
			// Same message for both cases so the endpoint cannot be used to
			// probe which emails exist.
			if appErr.Message != "Invalid email or password" {
				t.Errorf("message = %q", appErr.Message)
			}
		})
	}
}
