package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_UploadReplacesContent(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Upload(ctx, strings.NewReader("first"), "registers/raw.csv")
	require.NoError(t, err)
	path, err := s.Upload(ctx, strings.NewReader("second"), "registers/raw.csv")
	require.NoError(t, err)
	assert.Equal(t, "registers/raw.csv", path)

	rc, err := s.Download(ctx, path)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "second", string(body))
}

func TestLocalStorage_MissingFile(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	exists, err := s.Exists(context.Background(), "nope.csv")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.Download(context.Background(), "nope.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete(context.Background(), "nope.csv"))
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Upload(context.Background(), strings.NewReader("x"), "../escape.csv")
	assert.Error(t, err)
}
