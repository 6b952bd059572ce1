package media

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 最小 PNG 文件头
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
}

func TestSniff(t *testing.T) {
	f := File{Name: "logo", Data: pngBytes}
	require.NoError(t, Sniff(&f))
	assert.Equal(t, "image/png", f.ContentType)
	assert.Equal(t, "logo.png", f.Name)

	err := Sniff(&File{Name: "notes.txt", Data: []byte("plain text")})
	assert.ErrorIs(t, err, ErrNotImage)

	assert.ErrorIs(t, Sniff(&File{}), ErrNotImage)
}

func TestCloudinary_Upload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "communities", r.FormValue("upload_preset"))
		file, _, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		assert.Equal(t, pngBytes, data)
		_, _ = io.WriteString(w, `{"secure_url":"https://res.example.com/img.png","public_id":"img"}`)
	}))
	defer srv.Close()

	url, err := NewCloudinary(srv.URL, "").Upload(context.Background(), File{Name: "img.png", Data: pngBytes})
	require.NoError(t, err)
	assert.Equal(t, "https://res.example.com/img.png", url)
}

func TestCloudinary_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"Upload preset not found"}}`)
	}))
	defer srv.Close()

	_, err := NewCloudinary(srv.URL, "missing").Upload(context.Background(), File{Name: "img.png", Data: pngBytes})
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Contains(t, err.Error(), "Upload preset not found")
}

func TestCloudinary_NotImageSkipsNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	_, err := NewCloudinary(srv.URL, "").Upload(context.Background(), File{Name: "a.txt", Data: []byte("hello")})
	assert.ErrorIs(t, err, ErrNotImage)
	assert.False(t, called)
}

type fakePutObject struct {
	in  *s3.PutObjectInput
	err error
}

func (f *fakePutObject) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3_Upload(t *testing.T) {
	api := &fakePutObject{}
	u := &S3{api: api, Bucket: "hub-media", Region: "us-east-1", Prefix: "communities"}

	url, err := u.Upload(context.Background(), File{Name: "Logo.PNG", Data: pngBytes})
	require.NoError(t, err)
	assert.Equal(t, "hub-media", aws.ToString(api.in.Bucket))
	assert.Equal(t, "image/png", aws.ToString(api.in.ContentType))
	key := aws.ToString(api.in.Key)
	assert.True(t, strings.HasPrefix(key, "communities/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "https://hub-media.s3.us-east-1.amazonaws.com/"+key, url)
}

func TestS3_UploadFailure(t *testing.T) {
	u := &S3{api: &fakePutObject{err: errors.New("access denied")}, Bucket: "b", Region: "r", BaseURL: "https://cdn.example.com/"}
	_, err := u.Upload(context.Background(), File{Name: "a.png", Data: pngBytes})
	assert.ErrorIs(t, err, ErrUploadFailed)
}
