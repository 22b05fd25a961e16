package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rmaulana/rh-tracker-api/internal/model"
	"github.com/rmaulana/rh-tracker-api/internal/repository"
	"github.com/rmaulana/rh-tracker-api/internal/whatsapp"
	"github.com/rmaulana/rh-tracker-api/pkg/auth"
	apperrors "github.com/rmaulana/rh-tracker-api/pkg/errors"
	"github.com/rmaulana/rh-tracker-api/pkg/logger"
)

type Service interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error)
	Session(ctx context.Context, userID string) (*model.User, error)
}

type service struct {
	userRepo repository.UserRepository
	tokens   *auth.JWTManager
	logger   *logger.Logger
}

func NewService(userRepo repository.UserRepository, tokens *auth.JWTManager, log *logger.Logger) Service {
	return &service{userRepo: userRepo, tokens: tokens, logger: log}
}

// Register creates a user account. The WhatsApp number is stored in
// international form so the dispatcher never has to convert it.
func (s *service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if !whatsapp.ValidNumber(req.WhatsApp) {
		return nil, apperrors.BadRequest("invalid whatsapp number", nil)
	}

	if _, err := s.userRepo.GetByUsername(ctx, req.Username); err == nil {
		return nil, apperrors.Conflict("username already taken", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	role := model.UserRoleStaff
	if strings.EqualFold(req.Role, string(model.UserRoleAdmin)) {
		role = model.UserRoleAdmin
	}

	user := &model.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		WhatsApp:     whatsapp.FormatNumber(req.WhatsApp),
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperrors.Conflict("failed to create user", err)
	}

	s.logger.Info("user registered", "username", user.Username, "role", string(user.Role))
	return user, nil
}

// Login verifies credentials and issues a token. Unknown usernames and bad
// passwords are indistinguishable to the caller.
func (s *service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthorized(errors.New("invalid credentials"))
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthorized(errors.New("invalid credentials"))
	}

	token, expiresAt, err := s.tokens.Generate(user)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.TokenResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

// Session resolves the authenticated user's current record.
func (s *service) Session(ctx context.Context, userID string) (*model.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}
	user, err := s.userRepo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthorized(err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return user, nil
}
