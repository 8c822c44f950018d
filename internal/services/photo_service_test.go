package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhotoServiceStoreComputesDigest(t *testing.T) {
	ctx := context.Background()
	svc := NewPhotoService(newMemPhotoRepo())

	content := []byte("jpeg bytes go here")
	p, err := svc.Store(ctx, content, "image/jpeg")
	require.NoError(t, err)

	sum := sha256.Sum256(content)
	assert.Equal(t, hex.EncodeToString(sum[:]), p.Digest)
	assert.Equal(t, int64(len(content)), p.SizeBytes)
	assert.Equal(t, "image/jpeg", p.ContentType)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, content, got.Content)
}

func TestPhotoServiceGetAbsent(t *testing.T) {
	svc := NewPhotoService(newMemPhotoRepo())
	p, err := svc.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, p)
}
