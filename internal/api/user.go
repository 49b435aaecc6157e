package api

import (
	"github.com/gin-gonic/gin"

	"qwiktest/internal/pkg/response"
	"qwiktest/internal/service"
	"qwiktest/internal/types"
)

func GetProfile(c *gin.Context) {
	user, err := service.User.Get(c.Request.Context(), c.GetUint("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

func UpdateProfile(c *gin.Context) {
	var req types.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	user, err := service.User.UpdateProfile(c.Request.Context(), c.GetUint("userId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

func ChangePassword(c *gin.Context) {
	var req types.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	if err := service.User.ChangePassword(c.Request.Context(), c.GetUint("userId"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "password updated")
}

// GetDashboard returns the student's subscriptions, recent attempts and totals.
func GetDashboard(c *gin.Context) {
	dashboard, err := service.Statistics.Student(c.Request.Context(), c.GetUint("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dashboard)
}
