package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/solverstats/pkg/config"
)

// S3Reader reads previously uploaded exports from S3-compatible storage.
type S3Reader struct {
	log    logrus.FieldLogger
	cfg    *config.S3UploadConfig
	client *s3.Client
}

// NewS3Reader creates a new S3Reader from the given configuration.
func NewS3Reader(
	log logrus.FieldLogger,
	cfg *config.S3UploadConfig,
) *S3Reader {
	return &S3Reader{
		log:    log.WithField("component", "s3-reader"),
		cfg:    cfg,
		client: newS3Client(cfg),
	}
}

// ListExports returns the names of the uploaded export directories.
func (r *S3Reader) ListExports(ctx context.Context) ([]string, error) {
	u := &s3Uploader{cfg: r.cfg}
	root := u.resolvePrefix("")

	prefixes, err := r.listPrefixes(ctx, root)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		names = append(names, exportName(root, p))
	}

	r.log.WithField("count", len(names)).Debug("Listed remote exports")

	return names, nil
}

// ExportObject returns the contents of file inside the named export.
// If the object does not exist, it returns (nil, nil).
func (r *S3Reader) ExportObject(ctx context.Context, name, file string) ([]byte, error) {
	u := &s3Uploader{cfg: r.cfg}

	return r.getObject(ctx, u.resolvePrefix(name)+"/"+file)
}

// exportName strips root and the trailing delimiter from a common prefix.
func exportName(root, prefix string) string {
	return strings.TrimSuffix(strings.TrimPrefix(prefix, root), "/")
}

// listPrefixes lists immediate "subdirectory" prefixes under the given prefix.
func (r *S3Reader) listPrefixes(
	ctx context.Context, prefix string,
) ([]string, error) {
	var prefixes []string

	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(r.cfg.Bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing prefixes under %q: %w", prefix, err)
		}

		for _, cp := range page.CommonPrefixes {
			if cp.Prefix != nil {
				prefixes = append(prefixes, *cp.Prefix)
			}
		}
	}

	return prefixes, nil
}

func (r *S3Reader) getObject(
	ctx context.Context, key string,
) ([]byte, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("getting object %q: %w", key, err)
	}

	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading object %q: %w", key, err)
	}

	return data, nil
}

// isS3NotFound returns true if the error indicates the object does not exist.
func isS3NotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	// Some S3-compatible implementations return a generic error with
	// "NoSuchKey" in the message rather than the typed error.
	return strings.Contains(err.Error(), "NoSuchKey")
}
