package handler

import (
	"net/http"

	"community_hub/internal/gateway"
	"community_hub/internal/media"
	"community_hub/internal/middleware"
	"community_hub/internal/view"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	gw       gateway.Gateway
	uploader media.Uploader
}

type ProfileUpdateReq struct {
	FullName *string `json:"full_name" form:"full_name"`
}

func NewProfileHandler(gw gateway.Gateway, uploader media.Uploader) *ProfileHandler {
	return &ProfileHandler{gw: gw, uploader: uploader}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	v := view.NewProfile(h.gw, middleware.SessionFrom(c), h.uploader)
	if err := v.Load(c.Request.Context()); err != nil {
		writeError(c, err, "load failed")
		return
	}
	c.JSON(http.StatusOK, v.Render())
}

// Update 可选 avatar 文件，先上传再更新资料
func (h *ProfileHandler) Update(c *gin.Context) {
	var req ProfileUpdateReq
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	avatar, err := readImage(c, "avatar")
	if err != nil {
		writeError(c, err, "upload failed")
		return
	}

	v := view.NewProfile(h.gw, middleware.SessionFrom(c), h.uploader)
	user, err := v.Update(c.Request.Context(), req.FullName, avatar)
	if err != nil {
		writeError(c, err, "failed to update profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
