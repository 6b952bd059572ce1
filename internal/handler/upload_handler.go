package handler

import (
	"errors"
	"io"
	"net/http"

	"community_hub/internal/media"

	"github.com/gin-gonic/gin"
)

// readImage 读取可选的图片字段，未上传时返回 nil
func readImage(c *gin.Context, field string) (*media.File, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fh.Size > media.MaxImageSize {
		return nil, media.ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, media.MaxImageSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > media.MaxImageSize {
		return nil, media.ErrTooLarge
	}
	return &media.File{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data}, nil
}

type UploadHandler struct {
	uploader media.Uploader
}

func NewUploadHandler(uploader media.Uploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := readImage(c, "file")
	if err != nil {
		writeError(c, err, "upload failed")
		return
	}
	if file == nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "file is required"})
		return
	}
	url, err := h.uploader.Upload(c.Request.Context(), *file)
	if err != nil {
		writeError(c, err, "upload failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
