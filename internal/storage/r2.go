package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/muhammadolammi/resumeanalyzer/internal/extract"
)

// R2Config holds the Cloudflare R2 bucket a resume can be fetched from.
type R2Config struct {
	AccountID string
	Bucket    string
	AccessKey string
	SecretKey string
}

// Enabled reports whether any R2 setting was provided.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" || c.Bucket != "" || c.AccessKey != "" || c.SecretKey != ""
}

// Validate checks that either all settings or none are set.
func (c R2Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	var errs []error
	if c.AccountID == "" {
		errs = append(errs, errors.New("r2.account_id is required"))
	}
	if c.Bucket == "" {
		errs = append(errs, errors.New("r2.bucket is required"))
	}
	if c.AccessKey == "" {
		errs = append(errs, errors.New("r2.access_key is required"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("r2.secret_key is required"))
	}
	return errors.Join(errs...)
}

func (c R2Config) Endpoint() string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
}

// R2 reads resumes from an R2 bucket through the S3 API.
type R2 struct {
	client *s3.Client
	bucket string
}

func NewR2(ctx context.Context, r2Config R2Config) (*R2, error) {
	if !r2Config.Enabled() {
		return nil, errors.New("r2 is not configured")
	}
	if err := r2Config.Validate(); err != nil {
		return nil, err
	}
	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r2Config.AccessKey, r2Config.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating aws config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(r2Config.Endpoint())
	})
	return &R2{client: client, bucket: r2Config.Bucket}, nil
}

// Download returns the object body stored under key.
func (r *R2) Download(ctx context.Context, key string) ([]byte, error) {
	data, _, err := r.get(ctx, key)
	return data, err
}

// Fetch downloads key and wraps it as a Document. The object's content type
// is used when set, otherwise the key's extension decides.
func (r *R2) Fetch(ctx context.Context, key string) (extract.Document, error) {
	data, contentType, err := r.get(ctx, key)
	if err != nil {
		return extract.Document{}, err
	}
	name := path.Base(key)
	return extract.Document{
		Filename: name,
		MIME:     extract.Detect(name, contentType),
		Data:     data,
	}, nil
}

func (r *R2) get(ctx context.Context, key string) ([]byte, string, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	_, err = io.Copy(buf, out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read object body: %w", err)
	}
	return buf.Bytes(), aws.ToString(out.ContentType), nil
}
