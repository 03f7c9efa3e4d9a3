package asset

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// PublicURL serves stored objects. Defaults to the bucket URL. A
	// configured http:// URL is served as https://; a derived one is kept.
	PublicURL string
	// ThumbnailURL is an image transformation endpoint serving renditions as
	// <ThumbnailURL>/<crop>/<key>. Without one, thumbnails are the original
	// object.
	ThumbnailURL string
}

// S3Host stores assets in an S3 compatible bucket. Asset ids are object keys.
type S3Host struct {
	client    objectAPI
	bucket    string
	publicURL string
	thumbURL  string
}

var _ Host = (*S3Host)(nil)

// NewS3 creates an S3 host. A non-empty endpoint enables path-style
// addressing for MinIO and similar.
func NewS3(ctx context.Context, o S3Options) (*S3Host, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(o.Region),
	}
	if o.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if o.Endpoint != "" {
		s3opts = append(s3opts, func(so *s3.Options) {
			so.BaseEndpoint = aws.String(o.Endpoint)
			so.UsePathStyle = true
		})
	}
	return newS3Host(s3.NewFromConfig(cfg, s3opts...), o), nil
}

func newS3Host(client objectAPI, o S3Options) *S3Host {
	public := secure(o.PublicURL)
	if public == "" {
		if o.Endpoint != "" {
			public = strings.TrimRight(o.Endpoint, "/") + "/" + o.Bucket
		} else {
			public = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", o.Bucket, o.Region)
		}
	}
	return &S3Host{
		client:    client,
		bucket:    o.Bucket,
		publicURL: strings.TrimRight(public, "/"),
		thumbURL:  strings.TrimRight(secure(o.ThumbnailURL), "/"),
	}
}

func secure(u string) string {
	if rest, ok := strings.CutPrefix(u, "http://"); ok {
		return "https://" + rest
	}
	return u
}

// objectKey returns images/<slug of name>/<uuid>.
func objectKey(name string) string {
	s := slug.Make(name)
	if s == "" {
		s = "image"
	}
	return "images/" + s + "/" + uuid.NewString()
}

func (h *S3Host) Upload(ctx context.Context, name string, data []byte) (Uploaded, error) {
	key := objectKey(name)
	_, err := h.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(h.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(http.DetectContentType(data)),
	})
	if err != nil {
		return Uploaded{}, fmt.Errorf("s3 put object: %w", err)
	}
	return Uploaded{AssetID: key, URL: h.publicURL + "/" + key}, nil
}

// ThumbnailURL falls back to the original object when no transformation
// endpoint is configured, since the bucket never stores renditions.
func (h *S3Host) ThumbnailURL(assetID string, crop Crop) string {
	if h.thumbURL == "" {
		return h.publicURL + "/" + assetID
	}
	return h.thumbURL + "/" + crop.Transformation() + "/" + assetID
}

func (h *S3Host) Destroy(ctx context.Context, assetID string) error {
	_, err := h.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(assetID),
	})
	if err != nil {
		return fmt.Errorf("s3 delete object: %w", err)
	}
	return nil
}
