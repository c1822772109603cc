package filestore

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorcraft/tutorcraft/core"
)

func newStore(t *testing.T) core.FileStore {
	t.Helper()
	store, err := NewLocalStore(core.NewTestConfig(t.TempDir()))
	require.NoError(t, err)
	return store
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{path: "resources/u1/a.pdf"},
		{path: "a b.pdf"},
		{path: "", wantErr: true},
		{path: "/etc/passwd", wantErr: true},
		{path: "../secret", wantErr: true},
		{path: "resources/../../x", wantErr: true},
		{path: "resources/./x", wantErr: true},
		{path: "resources\\x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := CleanPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("CleanPath() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	f, err := store.Upload(ctx, "resources/u1/notes.txt", strings.NewReader("hello"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "resources/u1/notes.txt", f.Path)
	assert.Equal(t, int64(5), f.Size)

	_, err = store.Upload(ctx, "resources/u2/quiz.txt", strings.NewReader("quiz"), "text/plain")
	require.NoError(t, err)

	_, err = store.Upload(ctx, "../escape.txt", strings.NewReader("x"), "text/plain")
	assert.Equal(t, core.ErrInvalidPath, err)

	files, err := store.List(ctx, "resources/u1/")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "resources/u1/notes.txt", files[0].Path)

	files, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	rc, info, err := store.Open(ctx, "resources/u1/notes.txt")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, int64(5), info.Size)

	require.NoError(t, store.Remove(ctx, "resources/u1/notes.txt", "resources/missing.txt"))
	_, _, err = store.Open(ctx, "resources/u1/notes.txt")
	assert.Equal(t, core.ErrFileNotFound, err)
}

func TestSignedURL(t *testing.T) {
	store := newStore(t)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	NowFunc = func() time.Time { return now }
	defer func() { NowFunc = time.Now }()

	signed, err := store.SignURL("resources/u1/my notes.pdf", time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "files.test", u.Host)
	assert.Equal(t, "/files/resources/u1/my notes.pdf", u.Path)

	expires, err := strconv.ParseInt(u.Query().Get("expires"), 10, 64)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour).Unix(), expires)
	sig := u.Query().Get("signature")

	assert.NoError(t, store.Verify("resources/u1/my notes.pdf", expires, sig))
	assert.Equal(t, core.ErrInvalidSignature, store.Verify("resources/u1/other.pdf", expires, sig))
	assert.Equal(t, core.ErrInvalidSignature, store.Verify("resources/u1/my notes.pdf", expires+1, sig))
	assert.Equal(t, core.ErrInvalidSignature, store.Verify("../x", expires, sig))

	NowFunc = func() time.Time { return now.Add(2 * time.Hour) }
	assert.Equal(t, core.ErrInvalidSignature, store.Verify("resources/u1/my notes.pdf", expires, sig), "expired")

	_, err = store.SignURL("/abs", time.Hour)
	assert.Equal(t, core.ErrInvalidPath, err)
}
