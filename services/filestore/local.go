// Package filestore keeps uploaded files on the local disk and signs time limited URLs
// to them.
package filestore

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/tutorcraft/tutorcraft/core"
)

var (
	salt    = []byte("tutorcraft.services.filestore")
	NowFunc = time.Now // mockable
)

type localStore struct {
	root    string
	baseURL string
	key     [32]byte
}

var _ core.FileStore = (*localStore)(nil)

// NewLocalStore stores files under conf.Storage.Root and signs URLs with the app secret.
func NewLocalStore(conf *core.Config) (core.FileStore, error) {
	root, err := filepath.Abs(conf.Storage.Root)
	if err != nil {
		return nil, errors.Wrap(err, "resolving storage root")
	}
	if err = os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating storage root")
	}
	return &localStore{
		root:    root,
		baseURL: strings.TrimSuffix(conf.Storage.BaseURL, "/"),
		key:     sha256.Sum256(append(append([]byte{}, salt...), conf.SecretKey...)),
	}, nil
}

// CleanPath validates a storage path: relative, slash separated, without "." or ".."
// elements.
func CleanPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") || !fs.ValidPath(p) {
		return "", core.ErrInvalidPath
	}
	return p, nil
}

func (s *localStore) fullPath(p string) (string, error) {
	p, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(p)), nil
}

func (s *localStore) Upload(ctx context.Context, p string, r io.Reader, _ string) (core.StoredFile, error) {
	fp, err := s.fullPath(p)
	if err != nil {
		return core.StoredFile{}, err
	}
	if err = os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return core.StoredFile{}, errors.Wrap(err, "creating directory")
	}

	// write to a temp file first so a failed upload never leaves a partial object
	tmp, err := os.CreateTemp(filepath.Dir(fp), ".upload-*")
	if err != nil {
		return core.StoredFile{}, errors.Wrap(err, "creating temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	size, err := io.Copy(tmp, ctxReader{ctx: ctx, r: r})
	if cErr := tmp.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		return core.StoredFile{}, errors.Wrap(err, "writing file")
	}
	if err = os.Rename(tmp.Name(), fp); err != nil {
		return core.StoredFile{}, errors.Wrap(err, "moving file")
	}

	info, err := os.Stat(fp)
	if err != nil {
		return core.StoredFile{}, errors.Wrap(err, "stat file")
	}
	return core.StoredFile{Path: p, Size: size, ModTime: info.ModTime().UTC()}, nil
}

// Remove deletes the given objects; missing ones are ignored.
func (s *localStore) Remove(ctx context.Context, paths ...string) error {
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		fp, err := s.fullPath(p)
		if err != nil {
			return errors.Wrapf(err, "removing %q", p)
		}
		if err = os.Remove(fp); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "removing %q", p)
		}
	}
	return nil
}

// List returns every object whose path starts with prefix, sorted by path.
func (s *localStore) List(ctx context.Context, prefix string) ([]core.StoredFile, error) {
	files := make([]core.StoredFile, 0)
	err := filepath.WalkDir(s.root, func(fp string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cErr := ctx.Err(); cErr != nil {
			return cErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".upload-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, fp)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, core.StoredFile{Path: rel, Size: info.Size(), ModTime: info.ModTime().UTC()})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing files")
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (s *localStore) Open(_ context.Context, p string) (io.ReadSeekCloser, core.StoredFile, error) {
	fp, err := s.fullPath(p)
	if err != nil {
		return nil, core.StoredFile{}, err
	}
	f, err := os.Open(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.StoredFile{}, core.ErrFileNotFound
		}
		return nil, core.StoredFile{}, errors.Wrap(err, "opening file")
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, core.StoredFile{}, errors.Wrap(err, "stat file")
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, core.StoredFile{}, core.ErrFileNotFound
	}
	return f, core.StoredFile{Path: p, Size: info.Size(), ModTime: info.ModTime().UTC()}, nil
}

// SignURL returns <base>/files/<path>?expires=<unix>&signature=<sig>.
func (s *localStore) SignURL(p string, ttl time.Duration) (string, error) {
	p, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	expires := NowFunc().Add(ttl).Unix()

	q := make(url.Values)
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("signature", s.sign(p, expires))

	u := s.baseURL + "/files/" + (&url.URL{Path: p}).EscapedPath()
	return u + "?" + q.Encode(), nil
}

func (s *localStore) Verify(p string, expires int64, signature string) error {
	p, err := CleanPath(p)
	if err != nil {
		return core.ErrInvalidSignature
	}
	if !hmac.Equal([]byte(s.sign(p, expires)), []byte(signature)) {
		return core.ErrInvalidSignature
	}
	if NowFunc().Unix() > expires {
		return core.ErrInvalidSignature
	}
	return nil
}

func (s *localStore) sign(p string, expires int64) string {
	h := hmac.New(sha256.New, s.key[:])
	_, _ = io.WriteString(h, path.Clean(p)+"|"+strconv.FormatInt(expires, 10))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// ctxReader stops reading once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
