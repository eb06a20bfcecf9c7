package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerhub-backend/config"
	"careerhub-backend/errors"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	data := []byte("resume")
	require.NoError(t, m.Put(ctx, "u/1/a.txt", "text/plain", data))
	data[0] = 'R'

	got, err := m.Get(ctx, "u/1/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "resume", string(got))

	_, err = m.Get(ctx, "missing")
	assert.True(t, errors.IsNotFoundError(err))

	url, err := m.URL(ctx, "u/1/a.txt", time.Minute)
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestNewFallsBackToMemory(t *testing.T) {
	s, err := New(context.Background(), config.S3Config{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)
}

func TestS3Presign(t *testing.T) {
	s, err := NewS3(context.Background(), config.S3Config{
		Bucket:    "careerhub",
		Region:    "auto",
		Endpoint:  "https://example.r2.cloudflarestorage.com",
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
	})
	require.NoError(t, err)

	url, err := s.URL(context.Background(), "exports/1.pdf", 15*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "careerhub/exports/1.pdf")
	assert.Contains(t, url, "X-Amz-Expires=900")
}
