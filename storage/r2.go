package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Store talks to Cloudflare R2 through its S3-compatible API.
type R2Store struct {
	client       *s3.Client
	bucket       string
	publicDomain string
}

// NewR2Store expects endpoint in the form
// https://<account-id>.r2.cloudflarestorage.com. publicDomain is the custom
// domain or r2.dev URL objects are served from.
func NewR2Store(ctx context.Context, endpoint, accessKey, secretKey, bucket, publicDomain string) (*R2Store, error) {
	if bucket == "" || accessKey == "" || secretKey == "" || endpoint == "" {
		return nil, fmt.Errorf("r2: bucket, access key, secret key and endpoint are required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &R2Store{
		client:       client,
		bucket:       bucket,
		publicDomain: strings.TrimRight(publicDomain, "/"),
	}, nil
}

func (s *R2Store) Put(ctx context.Context, objectName string, body io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectName),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("r2 put %s: %w", objectName, err)
	}
	return s.publicURL(objectName), nil
}

func (s *R2Store) Delete(ctx context.Context, objectName string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectName),
	})
	if err != nil {
		return fmt.Errorf("r2 delete %s: %w", objectName, err)
	}
	return nil
}

func (s *R2Store) publicURL(objectName string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicDomain, s.bucket, objectName)
}

// ObjectNameFromURL accepts URLs on the configured public domain as well as
// r2.dev style URLs, where the whole path is the object name.
func (s *R2Store) ObjectNameFromURL(raw string) (string, error) {
	if s.publicDomain != "" {
		if name, ok := strings.CutPrefix(raw, s.publicDomain+"/"+s.bucket+"/"); ok && name != "" {
			return name, nil
		}
	}

	for _, scheme := range []string{"https://", "http://"} {
		rest, ok := strings.CutPrefix(raw, scheme)
		if !ok {
			continue
		}
		slash := strings.Index(rest, "/")
		if slash == -1 || slash == len(rest)-1 {
			return "", fmt.Errorf("no object path in url")
		}
		return rest[slash+1:], nil
	}
	return "", fmt.Errorf("not a recognised R2 public url")
}

func (s *R2Store) Close() error { return nil }
