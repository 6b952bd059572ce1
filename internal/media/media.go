// Package media stores uploaded images with a remote host and hands back a
// public URL.
package media

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const MaxImageSize = 5 << 20

var (
	ErrUploadFailed = errors.New("upload failed")
	ErrNotImage     = errors.New("file is not an image")
	ErrTooLarge     = errors.New("file too large")
)

type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type Uploader interface {
	Upload(ctx context.Context, f File) (string, error)
}

// Sniff 以文件内容判断类型，不信任客户端声明的 Content-Type
func Sniff(f *File) error {
	if len(f.Data) == 0 {
		return fmt.Errorf("%w: empty file", ErrNotImage)
	}
	if len(f.Data) > MaxImageSize {
		return ErrTooLarge
	}
	mt := mimetype.Detect(f.Data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return fmt.Errorf("%w: %s", ErrNotImage, mt.String())
	}
	f.ContentType = mt.String()
	if path.Ext(f.Name) == "" {
		f.Name += mt.Extension()
	}
	return nil
}

func objectKey(prefix string, f File) string {
	ext := strings.ToLower(path.Ext(f.Name))
	return path.Join(prefix, uuid.NewString()+ext)
}
