package upload

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ethpandaops/solverstats/pkg/config"
)

// s3Uploader implements Uploader for S3-compatible storage.
type s3Uploader struct {
	log    logrus.FieldLogger
	cfg    *config.S3UploadConfig
	client *s3.Client
}

// Ensure interface compliance.
var _ Uploader = (*s3Uploader)(nil)

// NewS3Uploader creates a new S3 uploader from the given configuration.
func NewS3Uploader(log logrus.FieldLogger, cfg *config.S3UploadConfig) (Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	return &s3Uploader{
		log:    log.WithField("component", "s3-uploader"),
		cfg:    cfg,
		client: newS3Client(cfg),
	}, nil
}

func newS3Client(cfg *config.S3UploadConfig) *s3.Client {
	return s3.New(s3.Options{}, func(o *s3.Options) {
		o.Region = cfg.Region
		if o.Region == "" {
			o.Region = config.DefaultS3Region
		}

		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		}

		o.UsePathStyle = cfg.ForcePathStyle

		if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
			o.Credentials = credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID, cfg.SecretAccessKey, "",
			)
		}
	})
}

// Preflight verifies S3 connectivity by writing a small test object.
func (u *s3Uploader) Preflight(ctx context.Context) error {
	content := fmt.Sprintf("solverstats write test: %s", time.Now().UTC().Format(time.RFC3339))

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(u.objectPrefix() + "/.solverstats-write-test"),
		Body:        strings.NewReader(content),
		ContentType: aws.String("text/plain"),
	})
	if err != nil {
		return fmt.Errorf("writing test object to s3://%s: %w", u.cfg.Bucket, err)
	}

	return nil
}

// Upload uploads every regular file below localDir, at most
// cfg.Concurrency at a time.
func (u *s3Uploader) Upload(ctx context.Context, localDir string) (int, error) {
	prefix := u.resolvePrefix(filepath.Base(localDir))

	files, err := listFiles(localDir)
	if err != nil {
		return 0, fmt.Errorf("walking directory %s: %w", localDir, err)
	}

	var count atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(u.cfg.Concurrency, 1))

	for _, relPath := range files {
		g.Go(func() error {
			key := prefix + "/" + filepath.ToSlash(relPath)

			if err := u.uploadFile(gctx, filepath.Join(localDir, relPath), key); err != nil {
				return fmt.Errorf("uploading %s: %w", relPath, err)
			}

			count.Add(1)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(count.Load()), err
	}

	u.log.WithFields(logrus.Fields{
		"files":  count.Load(),
		"bucket": u.cfg.Bucket,
		"prefix": prefix,
	}).Info("Upload completed")

	return int(count.Load()), nil
}

// listFiles returns the paths of regular files below dir, relative to it.
func listFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return fmt.Errorf("computing relative path: %w", err)
		}

		files = append(files, rel)

		return nil
	})

	return files, err
}

// uploadFile uploads a single file to S3.
func (u *s3Uploader) uploadFile(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer func() { _ = f.Close() }()

	input := &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(detectContentType(localPath)),
	}

	if u.cfg.StorageClass != "" {
		input.StorageClass = s3types.StorageClass(u.cfg.StorageClass)
	}

	if u.cfg.ACL != "" {
		input.ACL = s3types.ObjectCannedACL(u.cfg.ACL)
	}

	u.log.WithFields(logrus.Fields{
		"key":    key,
		"bucket": u.cfg.Bucket,
	}).Debug("Uploading file")

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("PutObject: %w", err)
	}

	return nil
}

func (u *s3Uploader) objectPrefix() string {
	prefix := u.cfg.Prefix
	if prefix == "" {
		prefix = config.DefaultS3Prefix
	}

	return strings.TrimRight(prefix, "/")
}

// resolvePrefix builds the S3 key prefix for an export directory.
func (u *s3Uploader) resolvePrefix(baseName string) string {
	return u.objectPrefix() + "/exports/" + baseName
}

// detectContentType returns a MIME type based on file extension.
func detectContentType(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return "application/octet-stream"
	}

	if ext == ".md" {
		return "text/markdown; charset=utf-8"
	}

	ct := mime.TypeByExtension(ext)
	if ct == "" {
		return "application/octet-stream"
	}

	return ct
}
