package handler

import (
	"net/http"

	"community_hub/internal/gateway"
	"community_hub/internal/media"
	"community_hub/internal/middleware"
	"community_hub/internal/view"

	"github.com/gin-gonic/gin"
)

type CommunityHandler struct {
	gw       gateway.Gateway
	uploader media.Uploader
}

type CommunityCreateReq struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
	ImageURL    string `json:"image_url" form:"image_url"`
}

func NewCommunityHandler(gw gateway.Gateway, uploader media.Uploader) *CommunityHandler {
	return &CommunityHandler{gw: gw, uploader: uploader}
}

// List 列表页，q 为搜索词
func (h *CommunityHandler) List(c *gin.Context) {
	v := view.NewCommunityList(h.gw)
	if err := v.Load(c.Request.Context()); err != nil {
		writeError(c, err, "list failed")
		return
	}
	c.JSON(http.StatusOK, v.Render(c.Query("q")))
}

func (h *CommunityHandler) ListEvents(c *gin.Context) {
	v := view.NewCommunityList(h.gw)
	q := c.Query("q")
	stream(c, v, func() any { return v.Render(q) })
}

func (h *CommunityHandler) detail(c *gin.Context) *view.CommunityDetail {
	return view.NewCommunityDetail(h.gw, middleware.SessionFrom(c), c.Param("id"))
}

func (h *CommunityHandler) Get(c *gin.Context) {
	v := h.detail(c)
	if err := v.Load(c.Request.Context()); err != nil {
		writeError(c, err, "load failed")
		return
	}
	if v.State() == view.StateNotFound {
		c.JSON(http.StatusNotFound, gin.H{"msg": "not_found"})
		return
	}
	c.JSON(http.StatusOK, v.Render())
}

func (h *CommunityHandler) Events(c *gin.Context) {
	v := h.detail(c)
	stream(c, v, func() any { return v.Render() })
}

// Create 支持 JSON（已上传图片的 URL）或 multipart（附带图片文件）
func (h *CommunityHandler) Create(c *gin.Context) {
	var req CommunityCreateReq
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	ctx := c.Request.Context()
	form := view.NewCreateForm(h.gw, middleware.SessionFrom(c), h.uploader)
	form.SetFields(req.Name, req.Description)
	if err := form.Validate(); err != nil {
		writeError(c, err, "invalid params")
		return
	}

	file, err := readImage(c, "image")
	if err != nil {
		writeError(c, err, "upload failed")
		return
	}
	if file != nil {
		if _, err = form.AttachImage(ctx, *file); err != nil {
			writeError(c, err, "upload failed")
			return
		}
	} else {
		form.UseImageURL(req.ImageURL)
	}

	id, err := form.Submit(ctx)
	if err != nil {
		writeError(c, err, "failed to create community")
		return
	}
	c.Header("Location", view.DetailPath(id))
	c.JSON(http.StatusCreated, gin.H{"id": id, "location": view.DetailPath(id)})
}

func (h *CommunityHandler) membership(c *gin.Context, join bool) {
	ctx := c.Request.Context()
	v := h.detail(c)
	if err := v.Load(ctx); err != nil {
		writeError(c, err, "load failed")
		return
	}
	if v.State() == view.StateNotFound {
		c.JSON(http.StatusNotFound, gin.H{"msg": "not_found"})
		return
	}

	var err error
	msg := "failed to join community"
	if join {
		err = v.Join(ctx)
	} else {
		msg = "failed to leave community"
		err = v.Leave(ctx)
	}
	if err != nil {
		writeError(c, err, msg)
		return
	}
	// 成员数与成员列表重新读取
	if err = v.Load(ctx); err != nil {
		writeError(c, err, "load failed")
		return
	}
	c.JSON(http.StatusOK, v.Render())
}

func (h *CommunityHandler) Join(c *gin.Context) {
	h.membership(c, true)
}

func (h *CommunityHandler) Leave(c *gin.Context) {
	h.membership(c, false)
}
