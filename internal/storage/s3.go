package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/galgamex/fuxiaochen/internal/config"
	"github.com/galgamex/fuxiaochen/internal/model"
)

const (
	presignCacheSize = 1024
	presignCacheTTL  = time.Minute
)

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type s3Presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignPutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type s3Storage struct {
	client    s3API
	presigner s3Presigner
	bucket    string
	publicURL string
	getCache  *lru.LRU[string, string]
}

func NewS3Storage(ctx context.Context, cfg config.S3Config) (Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = cfg.ForcePathStyle
	})
	return &s3Storage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
		getCache:  lru.NewLRU[string, string](presignCacheSize, nil, presignCacheTTL),
	}, nil
}

func (s *s3Storage) Put(ctx context.Context, key string, body io.Reader, contentType string, metadata map[string]string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.publicURL + "/" + strings.TrimPrefix(key, "/"), nil
}

func (s *s3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (s *s3Storage) Exists(ctx context.Context, key string) (bool, *ObjectMeta, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil, nil
		}
		return false, nil, fmt.Errorf("head object %s: %w", key, err)
	}
	meta := &ObjectMeta{
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
		ETag:        aws.ToString(out.ETag),
	}
	if out.LastModified != nil {
		meta.LastModified = *out.LastModified
	}
	return true, meta, nil
}

// List returns at most maxKeys objects under prefix. Single page only;
// continuation tokens are not followed.
func (s *s3Storage) List(ctx context.Context, prefix string, maxKeys int32) ([]model.FileObject, error) {
	if maxKeys <= 0 {
		maxKeys = 100
	}
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(maxKeys),
	})
	if err != nil {
		return nil, fmt.Errorf("list objects %s: %w", prefix, err)
	}
	files := make([]model.FileObject, 0, len(out.Contents))
	for _, item := range out.Contents {
		obj := model.FileObject{
			Key:  aws.ToString(item.Key),
			Size: aws.ToInt64(item.Size),
			ETag: aws.ToString(item.ETag),
		}
		if item.LastModified != nil {
			obj.LastModified = item.LastModified.Unix()
		}
		files = append(files, obj)
	}
	return files, nil
}

func (s *s3Storage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	cacheKey := key + "|" + strconv.FormatInt(int64(ttl/time.Second), 10)
	cacheable := ttl >= 2*presignCacheTTL
	if cacheable {
		if url, ok := s.getCache.Get(cacheKey); ok {
			return url, nil
		}
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}
	if cacheable {
		s.getCache.Add(cacheKey, req.URL)
	}
	return req.URL, nil
}

func (s *s3Storage) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}
	return req.URL, nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &noSuchKey)
}

// BuildKey derives a bucket key from the original file name: base name, a
// millisecond timestamp and a short random suffix, then the extension, all
// under an optional folder prefix. Collisions are not checked.
func BuildKey(originalName, folder string) string {
	ext := strings.ToLower(path.Ext(originalName))
	base := strings.TrimSuffix(path.Base(originalName), path.Ext(originalName))
	if base == "" {
		base = "file"
	}
	name := base + "_" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + randomSuffix() + ext
	if folder == "" {
		return name
	}
	return strings.Trim(folder, "/") + "/" + name
}
