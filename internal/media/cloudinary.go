package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const DefaultPreset = "communities"

// Cloudinary uploads through an unsigned upload preset.
type Cloudinary struct {
	URL    string
	Preset string
	Client *http.Client
}

func NewCloudinary(url, preset string) *Cloudinary {
	if preset == "" {
		preset = DefaultPreset
	}
	return &Cloudinary{URL: url, Preset: preset, Client: &http.Client{Timeout: 30 * time.Second}}
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Cloudinary) Upload(ctx context.Context, f File) (string, error) {
	if err := Sniff(&f); err != nil {
		return "", err
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", f.Name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if _, err = part.Write(f.Data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	_ = w.WriteField("upload_preset", c.Preset)
	if err = w.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var out cloudinaryResponse
	_ = json.Unmarshal(raw, &out)
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if out.Error != nil {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("%w: %s", ErrUploadFailed, msg)
	}
	if out.SecureURL == "" {
		return "", fmt.Errorf("%w: no secure_url in response", ErrUploadFailed)
	}
	return out.SecureURL, nil
}
