package callrecord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used by Archive.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archive writes finished call transcripts to S3. With no bucket every
// call is a no-op.
type Archive struct {
	bucket string
	s3     S3API
}

func NewArchive(client S3API, bucket string) *Archive {
	return &Archive{bucket: bucket, s3: client}
}

// Enabled reports whether archival is configured.
func (a *Archive) Enabled() bool {
	return a != nil && a.bucket != "" && a.s3 != nil
}

// ArchiveKey returns the date-partitioned object key for a call.
func ArchiveKey(callSID string, endedAt time.Time) string {
	t := endedAt.UTC()
	return fmt.Sprintf("calls/v1/by-date/%d/%02d/%02d/%s.json", t.Year(), t.Month(), t.Day(), callSID)
}

// Put stores the summary as JSON and returns the object key.
func (a *Archive) Put(ctx context.Context, s Summary) (string, error) {
	if !a.Enabled() {
		return "", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("callrecord: marshal summary: %w", err)
	}
	endedAt := s.EndedAt
	if endedAt.IsZero() {
		endedAt = time.Now()
	}
	key := ArchiveKey(s.CallSID, endedAt)
	_, err = a.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("callrecord: put %s: %w", key, err)
	}
	return key, nil
}
