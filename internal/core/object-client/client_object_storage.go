package objectclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	appcfg "github.com/markdave123-py/Botforge/internal/config"
	"github.com/markdave123-py/Botforge/internal/core"
)

type S3Client struct {
	client *s3.Client
	region string
	bucket string
}

// NewS3Client builds an S3-compatible storage client. A non-empty
// StorageEndpoint points it at Cloudflare R2 (or any other S3-compatible
// store) instead of AWS.
func NewS3Client(ctx context.Context, cfg *appcfg.Config) (core.ObjectClient, error) {
	if cfg.StorageAccessKey == "" || cfg.StorageSecretKey == "" {
		return nil, fmt.Errorf("storage credentials not set")
	}
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("bucket name not set")
	}

	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(cfg.StorageRegion),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.StorageAccessKey, cfg.StorageSecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.StorageEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.StorageEndpoint)
		}
	})

	return &S3Client{
		client: client,
		region: cfg.StorageRegion,
		bucket: cfg.BucketName,
	}, nil
}

// UploadFile uploads an object and returns its URL.
func (c *S3Client) UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (string, error) {
	uploader := manager.NewUploader(c.client)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
	}

	ctxUpload, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	_, err := uploader.Upload(ctxUpload, input)
	if err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, c.region, key)
	return url, nil
}

func (c *S3Client) DeleteFile(ctx context.Context, bucket, key string) error {
	ctxDel, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := c.client.DeleteObject(ctxDel, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete failed: %w", err)
	}
	return nil
}

// ObjectExists issues a HEAD request. A NotFound answer is (false, nil);
// any other failure is an error so callers can distinguish "confirmed
// absent" from "could not check".
func (c *S3Client) ObjectExists(ctx context.Context, bucket, key string) (bool, error) {
	ctxHead, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := c.client.HeadObject(ctxHead, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "NotFound", "NoSuchKey", "404":
				return false, nil
			}
		}
		return false, fmt.Errorf("s3 head failed: %w", err)
	}
	return true, nil
}

// DownloadToFile streams the object into destPath.
func (c *S3Client) DownloadToFile(ctx context.Context, bucket, key, destPath string) error {
	ctxGet, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	defer f.Close()

	downloader := manager.NewDownloader(c.client)
	_, err = downloader.Download(ctxGet, f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 download failed: %w", err)
	}
	return nil
}

// PresignURL creates a time-limited GET URL for a private object.
func (c *S3Client) PresignURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	presigner := s3.NewPresignClient(c.client)

	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("s3 presign failed: %w", err)
	}
	return req.URL, nil
}
