package media

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 stores images in a public-read bucket and returns the object URL.
type S3 struct {
	api     putObjectAPI
	Bucket  string
	Region  string
	Prefix  string
	BaseURL string
}

func NewS3(ctx context.Context, bucket, region, baseURL string) (*S3, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3{
		api:     s3.NewFromConfig(cfg),
		Bucket:  bucket,
		Region:  region,
		Prefix:  "communities",
		BaseURL: baseURL,
	}, nil
}

func (u *S3) objectURL(key string) string {
	if u.BaseURL != "" {
		return strings.TrimRight(u.BaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.Bucket, u.Region, key)
}

func (u *S3) Upload(ctx context.Context, f File) (string, error) {
	if err := Sniff(&f); err != nil {
		return "", err
	}
	key := objectKey(u.Prefix, f)
	_, err := u.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(f.Data),
		ContentType: aws.String(f.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return u.objectURL(key), nil
}
