package handler

import (
	"errors"
	"net/http"

	"community_hub/internal/gateway"
	"community_hub/internal/media"
	"community_hub/internal/view"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
)

// writeError 只按错误类别选状态码，提示语统一用调用方给的通用文案
func writeError(c *gin.Context, err error, msg string) {
	var fe view.FieldErrors
	switch {
	case errors.As(err, &fe):
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params", "errors": fe})
		return
	case errors.Is(err, gateway.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"msg": "not_found"})
		return
	case errors.Is(err, view.ErrSignInRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "unauthorized"})
		return
	case errors.Is(err, view.ErrImageRequired):
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	case errors.Is(err, media.ErrNotImage):
		c.JSON(http.StatusBadRequest, gin.H{"msg": "only image files can be uploaded"})
		return
	case errors.Is(err, media.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"msg": "file too large"})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, gateway.ErrAlreadyMember), errors.Is(err, gateway.ErrNotMember),
		errors.Is(err, gateway.ErrConflict), errors.Is(err, view.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, media.ErrUploadFailed):
		status = http.StatusBadGateway
	default:
		glog.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"msg": msg})
}
