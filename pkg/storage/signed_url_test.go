package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("undertaking-1", "signatures/student.png")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	recordID, path, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "undertaking-1", recordID)
	require.Equal(t, "signatures/student.png", path)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Millisecond*10)
	token, _, err := signer.Generate("undertaking-1", "signatures/student.png")
	require.NoError(t, err)
	time.Sleep(time.Millisecond * 20)

	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	recordID, path, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "undertaking-1", recordID)
	require.Equal(t, "signatures/student.png", path)
}

func TestUploadStoreRemoveOutcomes(t *testing.T) {
	store, err := NewUploadStore(t.TempDir())
	require.NoError(t, err)

	outcome := store.Remove("signatures/missing.png")
	require.Equal(t, CleanupNotFound, outcome.Status)
}
