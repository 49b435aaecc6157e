package service

import (
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qwiktest/internal/config"
	"qwiktest/internal/model"
	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/database"
	"qwiktest/internal/types"
)

func useConfig(t *testing.T) {
	t.Helper()
	prev := config.GlobalConfig
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireTime = 3600
	config.GlobalConfig = cfg
	t.Cleanup(func() { config.GlobalConfig = prev })
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	ctx := setup(t)
	useConfig(t)
	useClock(t, clockwork.NewFakeClockAt(testNow))

	req := types.RegisterRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		UserName:  "ada",
		Email:     " Ada@Example.com ",
		Password:  "password123",
	}
	user, err := Auth.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, user.Role)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEqual(t, req.Password, user.Password)

	_, err = Auth.Register(ctx, req)
	assertType(t, err, apperr.TypeConflict)

	req.UserName = "ada2"
	_, err = Auth.Register(ctx, req)
	assertType(t, err, apperr.TypeConflict)

	for _, login := range []string{"ada", "ADA@example.com"} {
		res, err := Auth.Login(ctx, login, "password123")
		require.NoError(t, err, login)
		assert.NotEmpty(t, res.Token)
		assert.Equal(t, user.ID, res.User.ID)
		require.NotNil(t, res.User.LastLoginAt)
		assert.True(t, res.User.LastLoginAt.Equal(testNow))
	}

	_, err = Auth.Login(ctx, "ada", "wrong-password")
	assertType(t, err, apperr.TypeUnauthorized)
	_, err = Auth.Login(ctx, "nobody", "password123")
	assertType(t, err, apperr.TypeUnauthorized)

	require.NoError(t, database.DB.Model(user).Update("is_active", false).Error)
	_, err = Auth.Login(ctx, "ada", "password123")
	assertType(t, err, apperr.TypeForbidden)
}

func TestAuth_RegistrationDisabled(t *testing.T) {
	ctx := setup(t)
	saveSettings(t, ctx, GroupSite, `{"app_name":"QwikTest","can_register":false}`)

	_, err := Auth.Register(ctx, types.RegisterRequest{
		FirstName: "Ada", UserName: "ada", Email: "ada@example.com", Password: "password123",
	})
	assertType(t, err, apperr.TypeForbidden)
}

func TestAuth_DefaultAdminAndReset(t *testing.T) {
	ctx := setup(t)
	useConfig(t)

	require.NoError(t, Auth.EnsureDefaultAdmin(ctx))
	require.NoError(t, Auth.EnsureDefaultAdmin(ctx))

	var admins int64
	require.NoError(t, database.DB.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&admins).Error)
	assert.Equal(t, int64(1), admins)

	_, err := Auth.Login(ctx, DefaultAdminUserName, DefaultAdminPassword)
	require.NoError(t, err)

	require.NoError(t, Auth.ResetPassword(ctx, DefaultAdminEmail, "a-new-password"))
	_, err = Auth.Login(ctx, DefaultAdminUserName, DefaultAdminPassword)
	assertType(t, err, apperr.TypeUnauthorized)
	_, err = Auth.Login(ctx, DefaultAdminUserName, "a-new-password")
	require.NoError(t, err)

	assertType(t, Auth.ResetPassword(ctx, "ghost", "a-new-password"), apperr.TypeNotFound)
	_, err = Auth.CreateAdmin(ctx, DefaultAdminUserName, "other@example.com", "password123")
	assertType(t, err, apperr.TypeConflict)
}

func TestUser_ProfileAndAdminRules(t *testing.T) {
	ctx := setup(t)
	admin := newUser(t, ctx, model.RoleAdmin)
	student := newUser(t, ctx, model.RoleStudent)

	updated, err := User.UpdateProfile(ctx, student.ID, types.UpdateProfileRequest{
		FirstName: "Grace", LastName: "Hopper", Email: "GRACE@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", updated.Email)
	assert.Equal(t, "Grace Hopper", updated.FullName())

	_, err = User.UpdateProfile(ctx, student.ID, types.UpdateProfileRequest{FirstName: "G", Email: admin.Email})
	assertType(t, err, apperr.TypeConflict)

	err = User.ChangePassword(ctx, student.ID, types.ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "new-password"})
	assertType(t, err, apperr.TypeValidation)
	require.NoError(t, User.ChangePassword(ctx, student.ID, types.ChangePasswordRequest{CurrentPassword: "password123", NewPassword: "new-password"}))

	inactive := false
	_, err = User.Update(ctx, admin.ID, admin.ID, types.UserRequest{
		FirstName: "A", UserName: admin.UserName, Email: admin.Email, Role: model.RoleAdmin, IsActive: &inactive,
	})
	assertType(t, err, apperr.TypeForbidden)

	promoted, err := User.Update(ctx, admin.ID, student.ID, types.UserRequest{
		FirstName: "Grace", UserName: student.UserName, Email: "grace@example.com", Role: model.RoleInstructor,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleInstructor, promoted.Role)
	assert.True(t, promoted.IsActive)

	list, total, err := User.List(ctx, types.UserQuery{Role: model.RoleInstructor})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, student.ID, list[0].ID)

	assertType(t, User.Delete(ctx, admin.ID, admin.ID), apperr.TypeForbidden)
	require.NoError(t, User.Delete(ctx, admin.ID, student.ID))
	_, err = User.Get(ctx, student.ID)
	assertType(t, err, apperr.TypeNotFound)
}
