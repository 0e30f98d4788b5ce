package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

var ErrNotConfigured = errors.New("S3 configuration missing")

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// PublicURL - базовый адрес, по которому объекты доступны клиентам
	PublicURL string
	Folder    string
}

// S3Uploader загружает вложения чатов в S3-совместимое хранилище
type S3Uploader struct {
	client  s3iface.S3API
	bucket  string
	baseURL string
	folder  string
}

func NewS3Uploader(cfg S3Config) (*S3Uploader, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, ErrNotConfigured
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg := &aws.Config{
		Region:           aws.String(region),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	baseURL := cfg.PublicURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s", cfg.Bucket)
	}

	return NewS3UploaderWithClient(s3.New(sess), cfg.Bucket, baseURL, cfg.Folder), nil
}

func NewS3UploaderWithClient(client s3iface.S3API, bucket, baseURL, folder string) *S3Uploader {
	if folder == "" {
		folder = "chat"
	}
	return &S3Uploader{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		folder:  strings.Trim(folder, "/"),
	}
}

// Upload кладет данные под ключом folder/logicalName и возвращает публичный URL
func (u *S3Uploader) Upload(ctx context.Context, data []byte, logicalName string) (string, error) {
	key := u.folder + "/" + strings.TrimLeft(logicalName, "/")
	contentType := mimetype.Detect(data).String()

	_, err := u.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := fmt.Sprintf("%s/%s", u.baseURL, key)
	log.Debug().Str("key", key).Str("content_type", contentType).Msg("attachment uploaded")
	return publicURL, nil
}

// Delete удаляет объект по публичному URL, выданному Upload
func (u *S3Uploader) Delete(ctx context.Context, url string) error {
	key, ok := u.keyFromURL(url)
	if !ok {
		return fmt.Errorf("url %q does not belong to bucket %s", url, u.bucket)
	}

	_, err := u.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	log.Debug().Str("key", key).Msg("attachment deleted")
	return nil
}

func (u *S3Uploader) keyFromURL(url string) (string, bool) {
	prefix := u.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	return key, key != ""
}
