package service

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"qwiktest/internal/model"
	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/database"
	"qwiktest/internal/types"
)

var User = new(UserService)

type UserService struct{}

func (s *UserService) Get(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := database.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req types.UpdateProfileRequest) (*model.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := ensureUniqueUser(database.DB.WithContext(ctx), user.UserName, email, user.ID); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"first_name": req.FirstName,
		"last_name":  req.LastName,
		"email":      email,
	}
	if email != user.Email {
		updates["email_verified_at"] = nil
	}
	if err := database.DB.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *UserService) ChangePassword(ctx context.Context, userID uint, req types.ChangePasswordRequest) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return apperr.Validation("current password is incorrect").WithField("current_password", "current password is incorrect")
	}

	hashed, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return database.DB.WithContext(ctx).Model(user).Update("password", hashed).Error
}

// List returns users filtered by role and a search over names and email.
func (s *UserService) List(ctx context.Context, q types.UserQuery) ([]model.User, int64, error) {
	db := database.DB.WithContext(ctx).Model(&model.User{})
	if q.Role != "" {
		db = db.Where("role = ?", q.Role)
	}
	if q.Search != "" {
		term := like(q.Search)
		db = db.Where("first_name LIKE ? OR last_name LIKE ? OR user_name LIKE ? OR email LIKE ?", term, term, term, term)
	}
	return paginate[model.User](db, q.PageQuery, "id DESC")
}

func (s *UserService) Create(ctx context.Context, req types.UserRequest) (*model.User, error) {
	if req.Password == "" {
		return nil, apperr.Validation("password is required").WithField("password", "password is required")
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
		Role:      req.Role,
		IsActive:  boolOr(req.IsActive, true),
	}
	if err := database.DB.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, actorID, id uint, req types.UserRequest) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := ensureUniqueUser(database.DB.WithContext(ctx), req.UserName, email, id); err != nil {
		return nil, err
	}

	isActive := boolOr(req.IsActive, user.IsActive)
	if actorID == id && (!isActive || req.Role != user.Role) {
		return nil, apperr.Forbidden("you cannot deactivate yourself or change your own role")
	}

	updates := map[string]any{
		"first_name": req.FirstName,
		"last_name":  req.LastName,
		"user_name":  req.UserName,
		"email":      email,
		"role":       req.Role,
		"is_active":  isActive,
	}
	if req.Password != "" {
		hashed, err := hashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		updates["password"] = hashed
	}
	if err := database.DB.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete soft-deletes a user. Admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actorID, id uint) error {
	if actorID == id {
		return apperr.Forbidden("you cannot delete your own account")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return database.DB.WithContext(ctx).Delete(user).Error
}
