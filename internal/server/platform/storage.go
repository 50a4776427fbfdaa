package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/server/config"
)

// ObjectAPI is the part of *s3.Client the storage uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// PresignAPI is the part of *s3.PresignClient the storage uses.
type PresignAPI interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// PresignExpiry bounds the lifetime of presigned view and download links.
const PresignExpiry = 15 * time.Minute

var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// InputFile is a blob to upload. Body is rewound before every attempt, so
// the same InputFile can be retried.
type InputFile struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.ReadSeeker
}

// StoredFile describes a blob after upload.
type StoredFile struct {
	ID          string
	Name        string
	Size        int64
	ContentType string
}

// Object is an open blob. The caller closes Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// Storage is the blob store: one S3 bucket, keys "files/<id>".
type Storage struct {
	client  ObjectAPI
	presign PresignAPI
	bucket  string
}

func NewStorage(client ObjectAPI, presign PresignAPI, bucket string) *Storage {
	return &Storage{client: client, presign: presign, bucket: bucket}
}

// NewS3Storage connects to the S3-compatible endpoint of cfg using static
// credentials and path-style addressing.
func NewS3Storage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return NewStorage(client, s3.NewPresignClient(client), cfg.S3Bucket), nil
}

func objectKey(id string) string {
	return "files/" + id
}

// EnsureBucket creates the bucket unless it already exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err == nil {
		return nil
	}

	_, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("error creating bucket %s: %w", s.bucket, err)
	}
	return nil
}

// CreateFile uploads in under id.
func (s *Storage) CreateFile(ctx context.Context, id string, in InputFile) (*StoredFile, error) {
	if _, err := in.Body.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey(id)),
		Body:          in.Body,
		ContentLength: aws.Int64(in.Size),
		ContentType:   aws.String(contentType),
		Metadata:      map[string]string{"name": in.Name},
	})
	if err != nil {
		return nil, err
	}

	return &StoredFile{ID: id, Name: in.Name, Size: in.Size, ContentType: contentType}, nil
}

// DeleteFile removes a blob. Removing a missing blob is not an error.
func (s *Storage) DeleteFile(ctx context.Context, id string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(id)),
	})
	return err
}

// Open streams a blob. Missing blobs yield common.ErrorNotFound.
func (s *Storage) Open(ctx context.Context, id string) (*Object, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(id)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}

	return &Object{
		Body:        out.Body,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}, nil
}

// ViewURL is a short-lived link that renders the blob inline.
func (s *Storage) ViewURL(ctx context.Context, id, name string) (string, error) {
	return s.presignGet(ctx, id, mime.FormatMediaType("inline", map[string]string{"filename": name}))
}

// DownloadURL is a short-lived link that forces a download named name.
func (s *Storage) DownloadURL(ctx context.Context, id, name string) (string, error) {
	return s.presignGet(ctx, id, mime.FormatMediaType("attachment", map[string]string{"filename": name}))
}

func (s *Storage) presignGet(ctx context.Context, id, disposition string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(s.bucket),
		Key:                        aws.String(objectKey(id)),
		ResponseContentDisposition: aws.String(disposition),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
