package admin

import (
	"github.com/gin-gonic/gin"

	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/response"
	"qwiktest/internal/service"
)

func GetSettingGroups(c *gin.Context) {
	response.OK(c, service.Settings.Groups())
}

// GetSettings returns one settings group merged over its defaults.
func GetSettings(c *gin.Context) {
	values, err := service.Settings.Get(c.Request.Context(), c.Param("group"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, values)
}

// SaveSettings replaces a settings group. The body is decoded by the
// service against the group's own schema.
func SaveSettings(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil || len(body) == 0 {
		response.Error(c, apperr.BadRequest("request body is required"))
		return
	}
	values, err := service.Settings.Save(c.Request.Context(), c.Param("group"), body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, values)
}
