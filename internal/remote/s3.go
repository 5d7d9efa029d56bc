package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/mateotomas2/ai-journaling-sub001/internal/common"
)

// appDataPrefix keeps sync blobs out of the user-visible part of the
// bucket; access policies scope the app to this prefix only.
const appDataPrefix = "appdata/"

// S3Config carries the connection settings for the blob store. Works
// against AWS S3 and MinIO alike.
type S3Config struct {
	Region       string
	BaseEndpoint string
	Bucket       string
	AccessKey    string
	SecretKey    string
}

// S3Transport implements Transport on an S3-compatible store. The file id
// of a blob is its object key under the app-data prefix. The caller's
// access token rides along as the session-token credential, so an expired
// grant surfaces as an auth error from the store itself.
type S3Transport struct {
	cfg S3Config
}

func NewS3Transport(cfg S3Config) *S3Transport {
	return &S3Transport{cfg: cfg}
}

// Test seams, following the pattern used across the codebase.
var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

func (t *S3Transport) client(ctx context.Context, token string) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(t.cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			t.cfg.AccessKey,
			t.cfg.SecretKey,
			token,
		)))
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if t.cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(t.cfg.BaseEndpoint)
		}
		o.UsePathStyle = true
	}), nil
}

func (t *S3Transport) FindByName(ctx context.Context, token, name string) (string, error) {
	client, err := t.client(ctx, token)
	if err != nil {
		return "", err
	}

	key := appDataPrefix + name
	_, err = client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(t.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		mapped := mapS3Error(err)
		if errors.Is(mapped, common.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("locating remote blob: %w", mapped)
	}
	return key, nil
}

func (t *S3Transport) Download(ctx context.Context, token, fileID string) ([]byte, error) {
	client, err := t.client(ctx, token)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(t.cfg.Bucket),
		Key:    aws.String(fileID),
	})
	if err != nil {
		return nil, fmt.Errorf("downloading remote blob: %w", mapS3Error(err))
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading remote blob: %w", err)
	}
	return data, nil
}

func (t *S3Transport) Upload(ctx context.Context, token, name string, data []byte, existingID string) (string, error) {
	client, err := t.client(ctx, token)
	if err != nil {
		return "", err
	}

	key := existingID
	if key == "" {
		key = appDataPrefix + name
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(t.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading remote blob: %w", mapS3Error(err))
	}
	return key, nil
}

// mapS3Error folds the SDK's error zoo into the two sentinels the sync
// engine dispatches on. 401/403 must map to ErrUnauthorized so the engine
// enters needs-reauth instead of plain error.
func mapS3Error(err error) error {
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", common.ErrNotFound, err)
		}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "InvalidAccessKeyId", "ExpiredToken", "SignatureDoesNotMatch":
			return fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %v", common.ErrNotFound, err)
		}
	}
	return err
}
