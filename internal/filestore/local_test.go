package filestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/insuregenie/internal/config"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": t.TempDir()}})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, WriteBytes(ctx, store, "models/risk_model.json", []byte("v1")))
	require.NoError(t, WriteBytes(ctx, store, "models/risk_model.json", []byte("v2")))

	data, err := ReadBytes(ctx, store, "models/risk_model.json")
	require.NoError(t, err)
	require.Equal(t, "v2", string(data))
}

func TestLocalStoreMissingKey(t *testing.T) {
	store := NewLocal(t.TempDir())
	_, err := ReadBytes(context.Background(), store, "absent.json")
	require.ErrorIs(t, err, ErrNotExist)
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store := NewLocal(t.TempDir())
	require.Error(t, WriteBytes(context.Background(), store, "../outside", []byte("x")))
	require.Error(t, WriteBytes(context.Background(), store, "", []byte("x")))
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "ftp"})
	require.Error(t, err)
	_, err = New(config.FileStoreConfig{})
	require.Error(t, err)
	_, err = New(config.FileStoreConfig{Type: "s3", Data: map[string]interface{}{"bucket": "b"}})
	require.Error(t, err)
}

func TestBuildEndpoint(t *testing.T) {
	require.Equal(t, "https://minio.local:9000", buildEndpoint("minio.local:9000", true))
	require.Equal(t, "http://minio.local", buildEndpoint("minio.local/", false))
	require.Equal(t, "https://s3.example.com", buildEndpoint("https://s3.example.com/", false))
}
