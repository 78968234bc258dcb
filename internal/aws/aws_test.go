// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// no-cloc

package aws

import (
	"context"
	"testing"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent")
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
}

func TestLoadAWSConfig(t *testing.T) {
	isolate(t)

	cfg, err := LoadAWSConfig(context.Background(), WithRegion("eu-west-2"), WithMaxAttempts(1))
	require.NoError(t, err)
	assert.Equal(t, "eu-west-2", cfg.Region)
	assert.Equal(t, 1, cfg.RetryMaxAttempts)
}

func TestNewS3(t *testing.T) {
	isolate(t)

	client, err := NewS3(context.Background(), WithRegion("us-east-1"), WithEndpoint("http://127.0.0.1:9000"))
	require.NoError(t, err)

	o := client.Options()
	assert.Equal(t, "http://127.0.0.1:9000", awsv2.ToString(o.BaseEndpoint))
	assert.True(t, o.UsePathStyle)

	client, err = NewS3(context.Background(), WithRegion("us-east-1"))
	require.NoError(t, err)
	assert.Nil(t, client.Options().BaseEndpoint)
	assert.False(t, client.Options().UsePathStyle)
}
