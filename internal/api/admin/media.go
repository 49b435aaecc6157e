package admin

import (
	"github.com/gin-gonic/gin"

	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/response"
	"qwiktest/internal/service"
)

// UploadMedia stores an image used in question or exam content.
func UploadMedia(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, apperr.Validation("file is required").WithField("file", "upload an image"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, apperr.BadRequest("cannot read uploaded file"))
		return
	}
	defer file.Close()

	result, err := service.Media.Upload(c.Request.Context(), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
