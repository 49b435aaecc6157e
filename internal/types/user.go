package types

type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required,max=64"`
	LastName  string `json:"last_name" binding:"max=64"`
	UserName  string `json:"user_name" binding:"required,min=3,max=64,alphanum"`
	Email     string `json:"email" binding:"required,email,max=128"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	Login    string `json:"login" binding:"required"` // user name or email
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	FirstName string `json:"first_name" binding:"required,max=64"`
	LastName  string `json:"last_name" binding:"max=64"`
	Email     string `json:"email" binding:"required,email,max=128"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
}

type UserQuery struct {
	PageQuery
	Role string `form:"role" binding:"omitempty,oneof=admin instructor student"`
}

// UserRequest is used by admins to create or update users. Password is
// optional on update.
type UserRequest struct {
	FirstName string `json:"first_name" binding:"required,max=64"`
	LastName  string `json:"last_name" binding:"max=64"`
	UserName  string `json:"user_name" binding:"required,min=3,max=64,alphanum"`
	Email     string `json:"email" binding:"required,email,max=128"`
	Password  string `json:"password" binding:"omitempty,min=8,max=72"`
	Role      string `json:"role" binding:"required,oneof=admin instructor student"`
	IsActive  *bool  `json:"is_active"`
}
