package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"community_hub/internal/gateway"
	"community_hub/internal/media"
	"community_hub/internal/model"
	"community_hub/internal/session"
)

var (
	ErrImageRequired = errors.New("an uploaded image is required")
	ErrSuperseded    = errors.New("upload superseded by a newer image")
)

// CreateForm backs the create-community page. Submission stays disabled until
// an image URL is present and no upload is running.
type CreateForm struct {
	gw       gateway.Gateway
	sess     *session.Store
	uploader media.Uploader

	mu          sync.Mutex
	name        string
	description string
	imageURL    string
	uploading   bool
	attempt     uint64
}

func NewCreateForm(gw gateway.Gateway, sess *session.Store, uploader media.Uploader) *CreateForm {
	return &CreateForm{gw: gw, sess: sess, uploader: uploader}
}

func (f *CreateForm) SetFields(name, description string) {
	f.mu.Lock()
	f.name, f.description = name, description
	f.mu.Unlock()
}

// AttachImage 上传选中的图片；较早发起的上传若晚返回则丢弃
func (f *CreateForm) AttachImage(ctx context.Context, file media.File) (string, error) {
	f.mu.Lock()
	f.attempt++
	attempt := f.attempt
	f.uploading = true
	f.imageURL = ""
	f.mu.Unlock()

	url, err := f.uploader.Upload(ctx, file)

	f.mu.Lock()
	defer f.mu.Unlock()
	if attempt != f.attempt {
		return "", ErrSuperseded
	}
	f.uploading = false
	if err != nil {
		return "", err
	}
	f.imageURL = url
	return url, nil
}

// UseImageURL accepts a URL the client already obtained from the upload endpoint.
func (f *CreateForm) UseImageURL(url string) {
	f.mu.Lock()
	f.attempt++
	f.uploading = false
	f.imageURL = strings.TrimSpace(url)
	f.mu.Unlock()
}

func (f *CreateForm) ClearImage() {
	f.UseImageURL("")
}

func (f *CreateForm) ImageURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.imageURL
}

func (f *CreateForm) Uploading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploading
}

func (f *CreateForm) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.uploading && f.imageURL != ""
}

func (f *CreateForm) Validate() error {
	f.mu.Lock()
	in := CommunityInput{Name: f.name, Description: f.description}
	f.mu.Unlock()
	return in.Validate()
}

// Submit 创建社区（创建者自动成为首个成员），返回新社区 id 供跳转
func (f *CreateForm) Submit(ctx context.Context) (string, error) {
	uid := f.sess.UserID()
	if uid == "" {
		return "", ErrSignInRequired
	}
	if err := f.Validate(); err != nil {
		return "", err
	}
	if !f.CanSubmit() {
		return "", ErrImageRequired
	}

	f.mu.Lock()
	c := &model.Community{
		Name:        strings.TrimSpace(f.name),
		Description: strings.TrimSpace(f.description),
		ImageURL:    f.imageURL,
		CreatedBy:   uid,
	}
	f.mu.Unlock()

	if err := f.gw.CreateCommunity(ctx, c); err != nil {
		return "", fmt.Errorf("create community: %w", err)
	}
	return c.ID, nil
}

// DetailPath 新社区详情页路径
func DetailPath(id string) string {
	return "/communities/" + id
}
