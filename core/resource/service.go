package resource

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tutorcraft/tutorcraft/core"
)

var NowFunc = time.Now // mockable

type (
	Repository interface {
		CreateResource(ctx context.Context, res Resource) (Resource, error)
		QueryAllResources(ctx context.Context, ordering ...core.DBOrdering) ([]Resource, error)
		GetResourceByID(ctx context.Context, id string) (Resource, error)
		GetResourceByStoragePath(ctx context.Context, storagePath string) (Resource, error)
		GetResourcesByID(ctx context.Context, ids ...string) ([]Resource, error)
		DeleteResourcesByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Upload(ctx context.Context, uploaderID string, nr NewResource, file *File) (Resource, error)
		QueryAll(ctx context.Context) ([]Resource, error)
		GetByID(ctx context.Context, id string) (Resource, error)
		Delete(ctx context.Context, ids ...string) error
		SignedURL(ctx context.Context, storagePath string) (string, error)
		CleanOrphans(ctx context.Context, dryRun bool) ([]string, error)
	}

	service struct {
		repo          Repository
		store         core.FileStore
		logger        core.Logger
		signedURLTTL  time.Duration
		maxUploadSize int64
	}
)

var _ Service = (*service)(nil)

func NewService(conf *core.Config, repo Repository, store core.FileStore, logger core.Logger) Service {
	return &service{
		repo:          repo,
		store:         store,
		logger:        logger,
		signedURLTTL:  conf.Storage.SignedURLExpiry,
		maxUploadSize: conf.Storage.MaxUploadSize,
	}
}

// StoragePath is where the file of a resource uploaded by uploaderID is stored.
func StoragePath(uploaderID, fileName string) string {
	return fmt.Sprintf("resources/%s/%s-%s", uploaderID, uuid.New().String(), safeName(fileName))
}

// Upload stores file then records the resource; the stored object is removed again if
// the resource cannot be recorded.
func (svc *service) Upload(ctx context.Context, uploaderID string, nr NewResource, file *File) (Resource, error) {
	if file == nil || file.Content == nil {
		return Resource{}, core.NewValidationError(ErrNoFile, core.FieldError{Field: "file", Error: ErrNoFile.Error()})
	}
	if svc.maxUploadSize > 0 && file.Size > svc.maxUploadSize {
		msg := fmt.Sprintf("file is too large (max %d bytes)", svc.maxUploadSize)
		return Resource{}, core.NewValidationError(nil, core.FieldError{Field: "file", Error: msg})
	}

	storagePath := StoragePath(uploaderID, file.Name)
	stored, err := svc.store.Upload(ctx, storagePath, file.Content, file.ContentType)
	if err != nil {
		return Resource{}, errors.Wrap(err, "uploading file")
	}

	now := NowFunc().UTC()
	res := Resource{
		ID:          uuid.New().String(),
		Title:       nr.Title,
		Subject:     nr.Subject,
		Category:    nr.Category,
		GradeLevel:  nr.GradeLevel,
		StoragePath: stored.Path,
		FileName:    safeName(file.Name),
		ContentType: file.ContentType,
		Size:        stored.Size,
		UploadedBy:  null.NewString(uploaderID, uploaderID != ""),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if nr.Description != "" {
		res.Description = null.StringFrom(nr.Description)
	}

	res, err = svc.repo.CreateResource(ctx, res)
	if err != nil {
		if rmErr := svc.store.Remove(ctx, stored.Path); rmErr != nil {
			svc.logger.Error("removing orphaned upload "+stored.Path, rmErr)
		}
		return Resource{}, errors.Wrap(err, "creating resource")
	}
	return res, nil
}

func (svc *service) QueryAll(ctx context.Context) ([]Resource, error) {
	res, err := svc.repo.QueryAllResources(ctx, core.DBOrdering{Field: "created_at", Ascending: false})
	return res, errors.Wrap(err, "querying resources")
}

func (svc *service) GetByID(ctx context.Context, id string) (Resource, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Resource{}, ErrNotFound
	}
	return svc.repo.GetResourceByID(ctx, id)
}

// Delete removes the resources then their stored files. Files that cannot be removed
// are logged and left for CleanOrphans.
func (svc *service) Delete(ctx context.Context, ids ...string) error {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	resources, err := svc.repo.GetResourcesByID(ctx, valid...)
	if err != nil {
		return errors.Wrap(err, "finding resources")
	}
	if err = svc.repo.DeleteResourcesByID(ctx, valid...); err != nil {
		return errors.Wrap(err, "deleting resources")
	}

	var result *multierror.Error
	for _, res := range resources {
		if err = svc.store.Remove(ctx, res.StoragePath); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err = result.ErrorOrNil(); err != nil {
		svc.logger.Error("removing resource files", errors.Wrap(err, "removing files"))
	}
	return nil
}

// SignedURL signs a URL to the file at storagePath; the path must belong to a resource.
func (svc *service) SignedURL(ctx context.Context, storagePath string) (string, error) {
	storagePath = core.CleanString(storagePath)
	if storagePath == "" {
		return "", core.NewValidationError(nil, core.FieldError{Field: "storage_path", Error: "this field is required"})
	}
	if _, err := svc.repo.GetResourceByStoragePath(ctx, storagePath); err != nil {
		return "", err
	}
	u, err := svc.store.SignURL(storagePath, svc.signedURLTTL)
	return u, errors.Wrap(err, "signing url")
}

// CleanOrphans removes the stored files no resource refers to and returns their paths.
func (svc *service) CleanOrphans(ctx context.Context, dryRun bool) ([]string, error) {
	resources, err := svc.repo.QueryAllResources(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying resources")
	}
	known := make(map[string]struct{}, len(resources))
	for _, res := range resources {
		known[res.StoragePath] = struct{}{}
	}

	files, err := svc.store.List(ctx, "resources/")
	if err != nil {
		return nil, errors.Wrap(err, "listing files")
	}
	orphans := make([]string, 0)
	for _, f := range files {
		if _, ok := known[f.Path]; !ok {
			orphans = append(orphans, f.Path)
		}
	}
	sort.Strings(orphans)

	if dryRun || len(orphans) == 0 {
		return orphans, nil
	}
	return orphans, errors.Wrap(svc.store.Remove(ctx, orphans...), "removing orphans")
}
