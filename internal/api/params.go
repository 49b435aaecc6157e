package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/response"
)

// ParamID reads a numeric path parameter. On failure it answers 400 and
// returns false.
func ParamID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, apperr.BadRequest("invalid "+name))
		return 0, false
	}
	return uint(id), true
}
