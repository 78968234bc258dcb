// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/staranto/levctl/internal/fetch"
)

// ErrBadS3Key is wrapped when an s3:// key lacks a bucket or object key.
var ErrBadS3Key = errors.New("s3 key must look like s3://bucket/object")

// ObjectGetter is the part of the S3 client S3Fetcher needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3v2.GetObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error)
}

// S3Fetcher reads s3://bucket/object keys.
type S3Fetcher struct {
	client ObjectGetter
}

// NewS3Fetcher returns an S3Fetcher backed by client.
func NewS3Fetcher(client ObjectGetter) *S3Fetcher {
	return &S3Fetcher{client: client}
}

// ParseS3Key splits an s3:// key into bucket and object key.
func ParseS3Key(key string) (bucket, object string, err error) {
	u, err := url.Parse(key)
	if err != nil {
		return "", "", err
	}
	if !strings.EqualFold(u.Scheme, "s3") {
		return "", "", ErrBadS3Key
	}
	bucket = u.Host
	object = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || object == "" {
		return "", "", ErrBadS3Key
	}
	return bucket, object, nil
}

func (f *S3Fetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	bucket, object, err := ParseS3Key(key)
	if err != nil {
		return nil, &fetch.NetworkError{URL: key, Err: err}
	}

	result, err := f.client.GetObject(ctx, &s3v2.GetObjectInput{
		Bucket: awsv2.String(bucket),
		Key:    awsv2.String(object),
	})
	if err != nil {
		return nil, &fetch.NetworkError{URL: key, Err: fmt.Errorf("failed to get S3 object: %w", err)}
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, &fetch.NetworkError{URL: key, Err: fmt.Errorf("failed to read S3 object body: %w", err)}
	}
	return data, nil
}
