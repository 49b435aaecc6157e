package admin

import (
	"github.com/gin-gonic/gin"

	"qwiktest/internal/api"
	"qwiktest/internal/pkg/response"
	"qwiktest/internal/service"
	"qwiktest/internal/types"
)

// GetUsers lists users filtered by role and a search term.
func GetUsers(c *gin.Context) {
	var q types.UserQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}
	q.Normalize()

	users, total, err := service.User.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, users, total, q.Page, q.Size)
}

func GetUser(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	user, err := service.User.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

func CreateUser(c *gin.Context) {
	var req types.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	user, err := service.User.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

func UpdateUser(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	var req types.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	user, err := service.User.Update(c.Request.Context(), c.GetUint("userId"), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

func DeleteUser(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	if err := service.User.Delete(c.Request.Context(), c.GetUint("userId"), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "user deleted")
}
