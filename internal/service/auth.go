package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"qwiktest/internal/middleware"
	"qwiktest/internal/model"
	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/database"
	"qwiktest/internal/pkg/logger"
	"qwiktest/internal/pkg/mail"
	"qwiktest/internal/types"
)

// Default admin account created on first start.
const (
	DefaultAdminUserName = "admin"
	DefaultAdminEmail    = "admin@qwiktest.local"
	DefaultAdminPassword = "qwiktest"
)

var Auth = &AuthService{clock: clockwork.NewRealClock()}

type AuthService struct {
	clock clockwork.Clock
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.Internal("failed to hash password", err)
	}
	return string(hashed), nil
}

// ensureUniqueUser checks user name and email against every user but
// excludeID, soft-deleted ones included since the unique index still holds them.
func ensureUniqueUser(db *gorm.DB, userName, email string, excludeID uint) error {
	var users []model.User
	q := db.Unscoped().Where("user_name = ? OR email = ?", userName, email)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Find(&users).Error; err != nil {
		return err
	}
	for _, u := range users {
		if strings.EqualFold(u.UserName, userName) {
			return apperr.Conflict("user name is already taken").WithField("user_name", "user name is already taken")
		}
		if strings.EqualFold(u.Email, email) {
			return apperr.Conflict("email is already registered").WithField("email", "email is already registered")
		}
	}
	return nil
}

// Register creates an active student account.
func (s *AuthService) Register(ctx context.Context, req types.RegisterRequest) (*model.User, error) {
	site, err := Settings.Site(ctx)
	if err != nil {
		return nil, err
	}
	if !site.CanRegister {
		return nil, apperr.Forbidden("registration is disabled")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := ensureUniqueUser(database.DB.WithContext(ctx), req.UserName, email, 0); err != nil {
		return nil, err
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		UserName:  req.UserName,
		Email:     email,
		Password:  hashed,
		Role:      model.RoleStudent,
		IsActive:  true,
	}
	if err := database.DB.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}

	mail.SendAsync(mail.Message{
		ToName:    user.FullName(),
		ToAddress: user.Email,
		Subject:   "Welcome to " + site.AppName,
		Text:      fmt.Sprintf("Hi %s,\n\nyour %s account %q is ready.", user.FirstName, site.AppName, user.UserName),
	})

	logger.Infof("user %s registered", user.UserName)
	return user, nil
}

// Login accepts a user name or an email address.
func (s *AuthService) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	login = strings.TrimSpace(login)

	var user model.User
	err := database.DB.WithContext(ctx).
		Where("user_name = ? OR email = ?", login, strings.ToLower(login)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if !user.IsActive {
		return nil, apperr.Forbidden("account is disabled")
	}

	token, expiresAt, err := middleware.GenerateToken(&user)
	if err != nil {
		return nil, apperr.Internal("failed to issue token", err)
	}

	now := s.clock.Now()
	if err := database.DB.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		logger.Warnf("update last login of user %d: %v", user.ID, err)
	}
	user.LastLoginAt = &now

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: &user}, nil
}

// EnsureDefaultAdmin creates the default admin account when no admin exists.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context) error {
	var count int64
	if err := database.DB.WithContext(ctx).Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	admin, err := s.CreateAdmin(ctx, DefaultAdminUserName, DefaultAdminEmail, DefaultAdminPassword)
	if err != nil {
		return err
	}
	logger.Warnf("default admin %q created with the default password, change it after the first login", admin.UserName)
	return nil
}

// CreateAdmin adds an admin account. Used by EnsureDefaultAdmin and the CLI.
func (s *AuthService) CreateAdmin(ctx context.Context, userName, email, password string) (*model.User, error) {
	if userName == "" || email == "" || password == "" {
		return nil, apperr.Validation("user name, email and password are required")
	}
	email = strings.ToLower(email)
	if err := ensureUniqueUser(database.DB.WithContext(ctx), userName, email, 0); err != nil {
		return nil, err
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	admin := &model.User{
		FirstName:       "Administrator",
		UserName:        userName,
		Email:           email,
		Password:        hashed,
		Role:            model.RoleAdmin,
		IsActive:        true,
		EmailVerifiedAt: &now,
	}
	if err := database.DB.WithContext(ctx).Create(admin).Error; err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return admin, nil
}

// ResetPassword sets a new password for the user with the given user name or
// email.
func (s *AuthService) ResetPassword(ctx context.Context, login, password string) error {
	if login == "" || password == "" {
		return apperr.Validation("login and password are required")
	}

	var user model.User
	err := database.DB.WithContext(ctx).Where("user_name = ? OR email = ?", login, strings.ToLower(login)).First(&user).Error
	if err != nil {
		return notFound(err, "user")
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}
	if err := database.DB.WithContext(ctx).Model(&user).Update("password", hashed).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	logger.Infof("password of user %s was reset", user.UserName)
	return nil
}
