// Package s3driver provides a session driver that persists payloads as
// objects in an S3 bucket, one object per session id. It suits setups
// that already run stateless behind object storage and can tolerate S3
// latency on session load.
package s3driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ggoodman/http-sessions-go/driver"
)

var _ driver.Driver = (*Driver)(nil)

// Config controls the S3 driver.
type Config struct {
	// Client is an S3 client from aws-sdk-go-v2. Required.
	Client *s3.Client

	// Bucket is the bucket holding session objects. Required.
	Bucket string

	// KeyPrefix is prepended to every object key, e.g. "sessions/".
	KeyPrefix string
}

// Driver is an S3-backed driver.Driver implementation.
type Driver struct {
	client *s3.Client
	bucket string
	prefix string
}

// New creates an S3 driver.
func New(cfg Config) (*Driver, error) {
	if cfg.Client == nil {
		return nil, errors.New("s3driver: client is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("s3driver: bucket is required")
	}
	return &Driver{client: cfg.Client, bucket: cfg.Bucket, prefix: cfg.KeyPrefix}, nil
}

func (d *Driver) key(sessionID string) string { return d.prefix + sessionID }

func (d *Driver) Load(ctx context.Context, sessionID string) (string, bool, error) {
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.key(sessionID)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return "", false, fmt.Errorf("read session %s: %w", sessionID, err)
	}
	return string(b), true, nil
}

func (d *Driver) Save(ctx context.Context, sessionID string, payload string) error {
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(d.key(sessionID)),
		Body:        bytes.NewReader([]byte(payload)),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	return nil
}

func (d *Driver) Remove(ctx context.Context, sessionID string) error {
	_, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.key(sessionID)),
	})
	if err != nil {
		return fmt.Errorf("remove session %s: %w", sessionID, err)
	}
	return nil
}

// List returns the session ids stored under the key prefix, paging
// through the bucket listing. Intended for operational tooling.
func (d *Driver) List(ctx context.Context) ([]string, error) {
	var ids []string
	var token *string
	for {
		out, err := d.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(d.bucket),
			Prefix:            aws.String(d.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		for _, obj := range out.Contents {
			if obj.Key == nil {
				continue
			}
			ids = append(ids, strings.TrimPrefix(*obj.Key, d.prefix))
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			return ids, nil
		}
		token = out.NextContinuationToken
	}
}
