// Package account implements registration, authentication and profile
// management on top of the user repository.
package account

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/ch1tg/GameTrackr-api/apperror"
	"github.com/ch1tg/GameTrackr-api/core/auth"
	"github.com/ch1tg/GameTrackr-api/logger"
	"github.com/ch1tg/GameTrackr-api/model"
	"github.com/ch1tg/GameTrackr-api/repository"

	"github.com/go-playground/validator/v10"
)

var allowedCharset = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Service holds account business logic.
type Service struct {
	users    repository.UserRepository
	validate *validator.Validate
}

// NewService creates an account service.
func NewService(users repository.UserRepository) *Service {
	v := validator.New()
	// Usernames and passwords allow letters, digits, underscore and hyphen.
	_ = v.RegisterValidation("charset", func(fl validator.FieldLevel) bool {
		return allowedCharset.MatchString(fl.Field().String())
	})
	return &Service{users: users, validate: v}
}

// RegisterInput carries a registration request.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=20,charset"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,charset"`
}

// UpdateProfileInput carries a partial profile update. Nil fields are left
// untouched.
type UpdateProfileInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

// Register validates the input, checks uniqueness and creates the account
// with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fieldErrors(err)
	}

	taken, err := s.users.UsernameTaken(ctx, input.Username, 0)
	if err != nil {
		return nil, apperror.NewDatabase("failed to check username", err)
	}
	if taken {
		return nil, apperror.NewConflict("Username already exists", nil)
	}

	taken, err = s.users.EmailTaken(ctx, input.Email, 0)
	if err != nil {
		return nil, apperror.NewDatabase("failed to check email", err)
	}
	if taken {
		return nil, apperror.NewConflict("Email already exists", nil)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal("failed to process password", err)
	}

	user := &model.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// The unique indexes catch the race between the pre-check and insert.
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, apperror.NewConflict("Username or email already exists", err)
		}
		return nil, apperror.NewDatabase("failed to create user", err)
	}

	logger.Info("user registered",
		logger.Int64("userId", user.ID),
		logger.String("username", user.Username))

	return user, nil
}

// Authenticate looks the user up by username, or by email when the
// identifier contains "@", and verifies the password.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*model.User, error) {
	if identifier == "" || password == "" {
		return nil, apperror.NewValidation("Username/email and password are required", nil)
	}

	var user *model.User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = s.users.GetByEmail(ctx, identifier)
	} else {
		user, err = s.users.GetByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, apperror.NewDatabase("failed to look up user", err)
	}

	if user == nil || !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, apperror.NewAuth("Invalid username/email or password", nil)
	}

	return user, nil
}

// GetByID returns the user or a NotFound error.
func (s *Service) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.NewDatabase("failed to look up user", err)
	}
	if user == nil {
		return nil, apperror.NewNotFound("User not found", nil)
	}
	return user, nil
}

// GetByUsername returns the user or a NotFound error.
func (s *Service) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperror.NewDatabase("failed to look up user", err)
	}
	if user == nil {
		return nil, apperror.NewNotFound("User not found", nil)
	}
	return user, nil
}

// UpdateProfile applies a partial update. Each supplied field is validated
// and uniqueness-checked against all other users; supplying the current
// value is a no-op.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, input UpdateProfileInput) (*model.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	changed := false

	if input.Username != nil && *input.Username != user.Username {
		username := *input.Username
		if err := s.validate.Var(username, "required,min=3,max=20,charset"); err != nil {
			return nil, apperror.NewFieldValidation(map[string]string{
				"username": "Username must be 3-20 characters of letters, numbers, underscores or hyphens",
			})
		}
		taken, err := s.users.UsernameTaken(ctx, username, userID)
		if err != nil {
			return nil, apperror.NewDatabase("failed to check username", err)
		}
		if taken {
			return nil, apperror.NewConflict("Username already exists", nil)
		}
		user.Username = username
		changed = true
	}

	if input.Email != nil && *input.Email != user.Email {
		email := *input.Email
		if err := s.validate.Var(email, "required,email"); err != nil {
			return nil, apperror.NewFieldValidation(map[string]string{
				"email": "Not a valid email address",
			})
		}
		taken, err := s.users.EmailTaken(ctx, email, userID)
		if err != nil {
			return nil, apperror.NewDatabase("failed to check email", err)
		}
		if taken {
			return nil, apperror.NewConflict("Email already exists", nil)
		}
		user.Email = email
		changed = true
	}

	if !changed {
		return user, nil
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, apperror.NewConflict("Username or email already exists", err)
		}
		return nil, apperror.NewDatabase("failed to update profile", err)
	}

	return user, nil
}

// ChangePassword re-hashes after verifying the old password. Reusing the old
// password is a conflict.
func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) (*model.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !auth.VerifyPassword(oldPassword, user.PasswordHash) {
		return nil, apperror.NewForbidden("Current password is incorrect", nil)
	}

	if newPassword == oldPassword {
		return nil, apperror.NewConflict("New password must differ from the current password", nil)
	}

	if err := s.validate.Var(newPassword, "required,min=8,charset"); err != nil {
		return nil, apperror.NewFieldValidation(map[string]string{
			"new_password": "Password must be at least 8 characters of letters, numbers, underscores or hyphens",
		})
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return nil, apperror.NewInternal("failed to process password", err)
	}
	user.PasswordHash = hash

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperror.NewDatabase("failed to update password", err)
	}

	logger.Info("password changed", logger.Int64("userId", userID))
	return user, nil
}

// DeleteAccount removes the user and, by cascade, all owned wishlist entries
// after the password is confirmed.
func (s *Service) DeleteAccount(ctx context.Context, userID int64, password string) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return apperror.NewForbidden("Password is incorrect", nil)
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return apperror.NewDatabase("failed to delete account", err)
	}

	logger.Info("account deleted", logger.Int64("userId", userID))
	return nil
}

// fieldErrors converts validator errors into a field-keyed validation error.
func fieldErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewValidation("invalid input", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			fields[field] = "This field is required"
		case "min":
			fields[field] = "Too short (minimum " + fe.Param() + " characters)"
		case "max":
			fields[field] = "Too long (maximum " + fe.Param() + " characters)"
		case "email":
			fields[field] = "Not a valid email address"
		case "charset":
			fields[field] = "Only letters, numbers, underscores and hyphens are allowed"
		default:
			fields[field] = "Invalid value"
		}
	}
	return apperror.NewFieldValidation(fields)
}
