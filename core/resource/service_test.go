package resource_test

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/url"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorcraft/tutorcraft/core"
	"github.com/tutorcraft/tutorcraft/core/resource"
	"github.com/tutorcraft/tutorcraft/core/user"
	"github.com/tutorcraft/tutorcraft/internal/testutil"
	"github.com/tutorcraft/tutorcraft/services/filestore"
	logsvc "github.com/tutorcraft/tutorcraft/services/logger"
	inmemdb "github.com/tutorcraft/tutorcraft/storage/database/inmem"
)

type fixture struct {
	svc      resource.Service
	store    core.FileStore
	usrRepo  user.Repository
	uploader user.User
}

func setup(t *testing.T) fixture {
	conf := core.NewTestConfig(t.TempDir())
	store, err := filestore.NewLocalStore(conf)
	require.NoError(t, err)

	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	return fixture{
		svc:      resource.NewService(conf, inmemdb.NewResourceRepository(db), store, logsvc.NewDiscardLogger()),
		store:    store,
		usrRepo:  usrRepo,
		uploader: testutil.CreateUser(t, usrRepo, "Tom", "tom@tutorcraft.test", "", []string{user.RoleTutor}, true),
	}
}

func TestNewResourceValidate(t *testing.T) {
	validate, _ := testutil.NewValidator()

	tests := []struct {
		name    string
		nr      resource.NewResource
		wantErr bool
	}{
		{name: "blank title", nr: resource.NewResource{Title: "  ", Subject: "Maths", Category: resource.CategoryWorksheet}, wantErr: true},
		{name: "no subject", nr: resource.NewResource{Title: "Fractions", Category: resource.CategoryWorksheet}, wantErr: true},
		{name: "unknown category", nr: resource.NewResource{Title: "Fractions", Subject: "Maths", Category: "poster"}, wantErr: true},
		{name: "long title", nr: resource.NewResource{Title: strings.Repeat("a", 201), Subject: "Maths", Category: resource.CategoryVideo}, wantErr: true},
		{name: "valid", nr: resource.NewResource{Title: " Fractions ", Subject: "Maths", Category: " Lesson-Plan "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nr.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Fractions", tt.nr.Title)
			assert.Equal(t, resource.CategoryLessonPlan, tt.nr.Category)
		})
	}
}

func TestUpload(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	nr := resource.NewResource{Title: "Fractions", Description: "Halves and quarters", Subject: "Maths", Category: resource.CategoryWorksheet}

	t.Run("no file", func(t *testing.T) {
		_, err := f.svc.Upload(ctx, f.uploader.ID, nr, nil)
		var verr *core.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "file", verr.Fields[0].Field)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := f.svc.Upload(ctx, f.uploader.ID, nr, &resource.File{Name: "big.pdf", Size: 2 << 20, Content: strings.NewReader("x")})
		var verr *core.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.Error(), "too large")
	})

	t.Run("stored", func(t *testing.T) {
		res, err := f.svc.Upload(ctx, f.uploader.ID, nr, &resource.File{
			Name:        `C:\docs\fractions.pdf`,
			ContentType: "application/pdf",
			Size:        5,
			Content:     strings.NewReader("%PDF-"),
		})
		require.NoError(t, err)
		assert.Equal(t, "fractions.pdf", res.FileName)
		assert.Equal(t, int64(5), res.Size)
		assert.Equal(t, "Halves and quarters", res.Description.String)
		assert.Equal(t, f.uploader.ID, res.UploadedBy.String)
		assert.True(t, strings.HasPrefix(res.StoragePath, "resources/"+f.uploader.ID+"/"))
		assert.True(t, strings.HasSuffix(res.StoragePath, "-fractions.pdf"))

		rc, info, err := f.store.Open(ctx, res.StoragePath)
		require.NoError(t, err)
		defer func() { _ = rc.Close() }()
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-", string(content))
		assert.Equal(t, int64(5), info.Size)

		got, err := f.svc.GetByID(ctx, res.ID)
		require.NoError(t, err)
		assert.Equal(t, res.StoragePath, got.StoragePath)
	})
}

// brokenStore is a file store whose objects can never be removed.
type brokenStore struct {
	core.FileStore
}

func (brokenStore) Remove(context.Context, ...string) error {
	return errors.New("bucket unavailable")
}

// rejectingRepo refuses every new resource.
type rejectingRepo struct {
	resource.Repository
}

func (rejectingRepo) CreateResource(context.Context, resource.Resource) (resource.Resource, error) {
	return resource.Resource{}, resource.ErrDuplicatePath
}

func TestUploadRollback(t *testing.T) {
	conf := core.NewTestConfig(t.TempDir())
	store, err := filestore.NewLocalStore(conf)
	require.NoError(t, err)
	db := inmemdb.Open()
	uploader := testutil.CreateUser(t, inmemdb.NewUserRepository(db), "Tom", "tom@tutorcraft.test", "", []string{user.RoleTutor}, true)

	repo := rejectingRepo{Repository: inmemdb.NewResourceRepository(db)}
	svc := resource.NewService(conf, repo, store, logsvc.NewDiscardLogger())
	ctx := context.Background()

	_, err = svc.Upload(ctx, uploader.ID, resource.NewResource{Title: "Fractions", Subject: "Maths", Category: resource.CategoryWorksheet}, &resource.File{
		Name:    "fractions.pdf",
		Size:    5,
		Content: strings.NewReader("%PDF-"),
	})
	require.Error(t, err)
	assert.Equal(t, resource.ErrDuplicatePath, errors.Cause(err))

	files, err := store.List(ctx, "resources/")
	require.NoError(t, err)
	assert.Empty(t, files, "the stored object is removed again")
}

func TestDeleteKeepsGoingWhenFilesStay(t *testing.T) {
	conf := core.NewTestConfig(t.TempDir())
	store, err := filestore.NewLocalStore(conf)
	require.NoError(t, err)
	db := inmemdb.Open()
	uploader := testutil.CreateUser(t, inmemdb.NewUserRepository(db), "Tom", "tom@tutorcraft.test", "", []string{user.RoleTutor}, true)

	logs := new(bytes.Buffer)
	logger := logsvc.NewRollbarLogger(log.New(logs, "", 0), conf)
	svc := resource.NewService(conf, inmemdb.NewResourceRepository(db), brokenStore{FileStore: store}, logger)
	ctx := context.Background()
	res := testutil.Upload(t, svc, uploader.ID, "Fractions", "Maths", resource.CategoryWorksheet, "f.pdf")

	require.NoError(t, svc.Delete(ctx, res.ID))

	_, err = svc.GetByID(ctx, res.ID)
	assert.Equal(t, resource.ErrNotFound, errors.Cause(err))
	assert.Contains(t, logs.String(), "removing resource files")
	assert.Contains(t, logs.String(), "bucket unavailable")

	orphans, err := svc.CleanOrphans(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{res.StoragePath}, orphans)
}

func TestUploaderDeleted(t *testing.T) {
	f := setup(t)
	res := testutil.Upload(t, f.svc, f.uploader.ID, "Fractions", "Maths", resource.CategoryWorksheet, "f.pdf")
	require.NoError(t, f.usrRepo.DeleteUsersByID(context.Background(), f.uploader.ID))

	got, err := f.svc.GetByID(context.Background(), res.ID)
	require.NoError(t, err)
	assert.False(t, got.UploadedBy.Valid)
}

func TestQueryAllAndDelete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	first := testutil.Upload(t, f.svc, f.uploader.ID, "Fractions", "Maths", resource.CategoryWorksheet, "f.pdf")
	second := testutil.Upload(t, f.svc, f.uploader.ID, "Cells", "Biology", resource.CategoryVideo, "c.mp4")

	all, err := f.svc.QueryAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")

	_, err = f.svc.GetByID(ctx, "nope")
	assert.Equal(t, resource.ErrNotFound, err)

	require.NoError(t, f.svc.Delete(ctx, first.ID, "nope"))
	all, err = f.svc.QueryAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, second.ID, all[0].ID)

	files, err := f.store.List(ctx, "resources/")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, second.StoragePath, files[0].Path)

	assert.NoError(t, f.svc.Delete(ctx))
}

func TestSignedURL(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	res := testutil.Upload(t, f.svc, f.uploader.ID, "Fractions", "Maths", resource.CategoryWorksheet, "f.pdf")

	_, err := f.svc.SignedURL(ctx, "  ")
	var verr *core.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = f.svc.SignedURL(ctx, "resources/other/file.pdf")
	assert.Equal(t, resource.ErrNotFound, errors.Cause(err))

	signed, err := f.svc.SignedURL(ctx, res.StoragePath)
	require.NoError(t, err)
	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "files.test", u.Host)
	assert.Equal(t, "/files/"+res.StoragePath, u.Path)
	assert.NotEmpty(t, u.Query().Get("signature"))
	assert.NotEmpty(t, u.Query().Get("expires"))
}

func TestCleanOrphans(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	kept := testutil.Upload(t, f.svc, f.uploader.ID, "Fractions", "Maths", resource.CategoryWorksheet, "f.pdf")
	_, err := f.store.Upload(ctx, "resources/ghost/b.pdf", strings.NewReader("b"), "")
	require.NoError(t, err)
	_, err = f.store.Upload(ctx, "resources/ghost/a.pdf", strings.NewReader("a"), "")
	require.NoError(t, err)

	orphans, err := f.svc.CleanOrphans(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"resources/ghost/a.pdf", "resources/ghost/b.pdf"}, orphans)

	files, err := f.store.List(ctx, "resources/")
	require.NoError(t, err)
	assert.Len(t, files, 3, "dry run keeps files")

	orphans, err = f.svc.CleanOrphans(ctx, false)
	require.NoError(t, err)
	assert.Len(t, orphans, 2)

	files, err = f.store.List(ctx, "resources/")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, kept.StoragePath, files[0].Path)
}
