package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/opscart/eks-cost-agent/pkg/models"
)

// Sink persists one audit record per optimization cycle.
type Sink interface {
	Persist(ctx context.Context, record *models.AuditRecord) error
}

// S3Sink writes audit records as JSON objects under a date-partitioned
// prefix so Athena and lifecycle rules can operate on them directly.
type S3Sink struct {
	client *s3.Client
	bucket string
}

// NewS3Sink creates a sink writing to the given bucket.
func NewS3Sink(cfg aws.Config, bucket string) *S3Sink {
	return &S3Sink{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}
}

// ObjectKey returns the date-partitioned key for a record timestamp.
func ObjectKey(ts time.Time) string {
	return ts.UTC().Format("analysis/2006/01/02/analysis_150405.json")
}

// Persist marshals the record and writes it to S3. Failures are the
// caller's to log; persistence never blocks the next cycle.
func (s *S3Sink) Persist(ctx context.Context, record *models.AuditRecord) error {
	key := ObjectKey(record.Timestamp)

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put audit record s3://%s/%s: %w", s.bucket, key, err)
	}

	slog.Info("audit record persisted", "bucket", s.bucket, "key", key, "bytes", len(body))
	return nil
}
