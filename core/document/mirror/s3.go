// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package mirror copies rotated glossary backups to S3-compatible object
storage (AWS S3, MinIO, Garage), so that losing the host does not lose the
backup history.
*/
package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const contentType = "application/json; charset=utf-8"

var errBucketRequired = errors.New("mirror bucket is required")

// Config holds the S3 connection parameters. Credentials come from the
// default AWS chain (AWS_ACCESS_KEY_ID, shared config, instance roles).
type Config struct {
	Bucket       string
	Region       string
	Endpoint     string // optional, for S3-compatible services
	Prefix       string // object key prefix, e.g. "backups/"
	UsePathStyle bool
}

// PutObjectAPI is the subset of *s3.Client the mirror uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 uploads backups as objects named Prefix + backup name.
type S3 struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewS3 loads the default AWS configuration and returns a mirror for cfg.
func NewS3(ctx context.Context, cfg Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, errBucketRequired
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle

		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewS3WithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewS3WithClient returns a mirror using an existing client.
func NewS3WithClient(client PutObjectAPI, bucket, prefix string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key for a backup name.
func (m *S3) Key(name string) string {
	if m.prefix == "" {
		return name
	}

	return path.Join(strings.TrimSuffix(m.prefix, "/"), name)
}

// Upload implements document.Mirror.
func (m *S3) Upload(ctx context.Context, name string, data []byte) error {
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(m.Key(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", m.bucket, m.Key(name), err)
	}

	return nil
}
