package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "library-service/internal/domain/user"
	pkgerrors "library-service/pkg/errors"
	"library-service/pkg/security"
)

// Repository defines the interface for user identity data access.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Usecase implements the business logic for login and registration.
type Usecase struct {
	repo     Repository
	log      *zap.Logger
	validate *validator.Validate
}

// New creates a new instance of Usecase with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Usecase {
	return &Usecase{repo: r, log: log, validate: validator.New()}
}

// formatValidationError converts validator.ValidationErrors into a human-readable error.
func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
			case "email":
				messages = append(messages, fmt.Sprintf("%s must be a valid email", e.Field()))
			case "max":
				messages = append(messages, fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param()))
			default:
				messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
			}
		}
		return pkgerrors.NewValidationError("", strings.Join(messages, ", "))
	}
	return err
}

// Login verifies the submitted credentials against the stored identity.
// Unknown usernames and wrong passwords produce the same error so the form
// cannot be used to probe for accounts.
func (uc *Usecase) Login(ctx context.Context, in LoginRequest) (*domain.User, error) {
	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("login validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	u, err := uc.repo.GetByUsername(ctx, in.Username)
	if err != nil {
		uc.log.Error("failed to look up user for login", zap.String("username", in.Username), zap.Error(err))
		return nil, err
	}
	if u == nil || !security.CheckPassword(u.PasswordHash, in.Password) {
		uc.log.Warn("invalid credentials", zap.String("username", in.Username))
		return nil, pkgerrors.ErrInvalidCredentials
	}

	uc.log.Info("user logged in", zap.Int64("id", u.ID), zap.String("username", u.Username))
	return u, nil
}

// Register applies the account-creation rules in order: password
// confirmation, username uniqueness, email uniqueness. Only the first failing
// rule is reported per submission.
func (uc *Usecase) Register(ctx context.Context, in RegisterRequest) error {
	uc.log.Info("registering user", zap.String("username", in.Username), zap.String("email", in.Email))

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("register validate failed", zap.Error(err))
		return formatValidationError(err)
	}

	if in.Password1 != in.Password2 {
		return pkgerrors.NewValidationError("password", "Passwords do not match")
	}

	existing, err := uc.repo.GetByUsername(ctx, in.Username)
	if err != nil {
		uc.log.Error("failed to check username uniqueness", zap.String("username", in.Username), zap.Error(err))
		return err
	}
	if existing != nil {
		return pkgerrors.NewAlreadyExistsError("username", "Username already exists")
	}

	existing, err = uc.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		uc.log.Error("failed to check email uniqueness", zap.String("email", in.Email), zap.Error(err))
		return err
	}
	if existing != nil {
		return pkgerrors.NewAlreadyExistsError("email", "Email already registered")
	}

	hash, err := security.HashPassword(in.Password1)
	if err != nil {
		uc.log.Error("failed to hash password", zap.Error(err))
		return err
	}

	id, err := uc.repo.Create(ctx, &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	})
	if err != nil {
		uc.log.Error("failed to create user", zap.Error(err))
		return err
	}

	uc.log.Info("user registered", zap.Int64("id", id), zap.String("username", in.Username))
	return nil
}
