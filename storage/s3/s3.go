// Package s3 implements storage.Storage on Amazon S3 and S3-compatible
// services such as MinIO.
package s3

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kbukum/asrkit/errors"
	"github.com/kbukum/asrkit/logger"
	"github.com/kbukum/asrkit/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderS3, func(cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		log.Debug("connecting to bucket", logger.Fields("bucket", cfg.Bucket, "endpoint", cfg.Endpoint))
		return NewStorage(context.Background(), cfg)
	})
}

// Storage serves objects from one bucket.
type Storage struct {
	client *awss3.Client
	bucket string
}

// NewStorage creates an S3 client from the storage config. Static keys are
// used when both are set; otherwise the default AWS credential chain applies.
func NewStorage(ctx context.Context, cfg storage.Config) (*Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.MissingField("storage.bucket")
	}
	region := cfg.Region
	if region == "" {
		region = storage.DefaultRegion
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.ExternalServiceError("s3", fmt.Errorf("load aws config: %w", err))
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// Custom endpoints (MinIO, localstack) rarely support virtual hosts.
			o.UsePathStyle = true
		}
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
	})
	return &Storage{client: client, bucket: cfg.Bucket}, nil
}

// Upload writes data from reader to the object at p.
func (s *Storage) Upload(ctx context.Context, p string, reader io.Reader) error {
	input := &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(p),
		Body:   reader,
	}
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		input.ContentType = aws.String(ct)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return errors.ExternalServiceError("s3", fmt.Errorf("put %s: %w", p, err))
	}
	return nil
}

// Download returns the body of the object at p.
func (s *Storage) Download(ctx context.Context, p string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(p),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if stderrors.As(err, &noKey) {
			return nil, errors.NotFound("object", p)
		}
		return nil, errors.ExternalServiceError("s3", fmt.Errorf("get %s: %w", p, err))
	}
	return out.Body, nil
}

// Delete removes the object at p. S3 treats missing keys as success.
func (s *Storage) Delete(ctx context.Context, p string) error {
	_, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(p),
	})
	if err != nil {
		return errors.ExternalServiceError("s3", fmt.Errorf("delete %s: %w", p, err))
	}
	return nil
}

// Exists checks whether an object exists at p.
func (s *Storage) Exists(ctx context.Context, p string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(p),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if stderrors.As(err, &notFound) {
		return false, nil
	}
	return false, errors.ExternalServiceError("s3", fmt.Errorf("head %s: %w", p, err))
}

// URL returns the path-style URL of p.
func (s *Storage) URL(_ context.Context, p string) (string, error) {
	return fmt.Sprintf("%s/%s/%s", s.endpoint(), s.bucket, strings.TrimPrefix(p, "/")), nil
}

// List returns every object whose key starts with prefix, following
// continuation tokens.
func (s *Storage) List(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	input := &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}

	files := []storage.FileInfo{}
	paginator := awss3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.ExternalServiceError("s3", fmt.Errorf("list %s: %w", prefix, err))
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			fi := storage.FileInfo{
				Path: key,
				Size: aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				fi.LastModified = *obj.LastModified
			}
			files = append(files, fi)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (s *Storage) endpoint() string {
	opts := s.client.Options()
	if opts.BaseEndpoint != nil && *opts.BaseEndpoint != "" {
		return strings.TrimSuffix(*opts.BaseEndpoint, "/")
	}
	return fmt.Sprintf("https://s3.%s.amazonaws.com", opts.Region)
}

var _ storage.Storage = (*Storage)(nil)
