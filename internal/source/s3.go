package source

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/paperdex/paperdex/internal/model"
	appErr "github.com/paperdex/paperdex/internal/pkg/errors"
)

type s3Config struct {
	Region    string `json:"region"`
	Bucket    string `json:"bucket"`
	Prefix    string `json:"prefix"`
	Endpoint  string `json:"endpoint"`
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
}

type s3Loader struct {
	client *s3.Client
	bucket string
	prefix string
}

func init() {
	Register("s3", createS3Loader)
}

func createS3Loader(args interface{}) (Loader, error) {
	cfg := &s3Config{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required: %w", appErr.ErrConfiguration)
	}
	opts := s3.Options{
		Region: cfg.Region,
	}
	if cfg.SecretID != "" && cfg.SecretKey != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.SecretID, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return &s3Loader{
		client: s3.New(opts),
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (l *s3Loader) Load(ctx context.Context) ([]*model.SourceDocument, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("bucket", l.bucket), zap.String("prefix", l.prefix))
	var docs []*model.SourceDocument
	var token *string
	for {
		out, err := l.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(l.bucket),
			Prefix:            aws.String(l.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list corpus objects: %w", err)
		}
		for _, obj := range out.Contents {
			if obj.Key == nil {
				continue
			}
			key := *obj.Key
			data, err := l.fetch(ctx, key)
			if err != nil {
				logger.Warn("skip unreadable object", zap.String("key", key), zap.Error(err))
				continue
			}
			parsed, err := parseFile(path.Base(key), data)
			if err != nil {
				logger.Warn("skip unparsable object", zap.String("key", key), zap.Error(err))
				continue
			}
			docs = append(docs, parsed...)
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
	}
	logger.Info("corpus loaded", zap.Int("documents", len(docs)))
	return docs, nil
}

func (l *s3Loader) fetch(ctx context.Context, key string) ([]byte, error) {
	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}
