package inmemdb

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/tutorcraft/tutorcraft/core"
	"github.com/tutorcraft/tutorcraft/core/resource"
)

var resourceFields = map[string]func(resource.Resource) interface{}{
	"title":      func(r resource.Resource) interface{} { return r.Title },
	"subject":    func(r resource.Resource) interface{} { return r.Subject },
	"created_at": func(r resource.Resource) interface{} { return r.CreatedAt },
}

type resourceRepository struct {
	db *resourceTable
	// users is needed to emulate ON DELETE SET NULL
	users *userTable
}

var _ resource.Repository = (*resourceRepository)(nil)

func NewResourceRepository(db *DB) resource.Repository {
	return &resourceRepository{db: db.resource, users: db.user}
}

func (repo *resourceRepository) row(r resource.Resource) resource.Resource {
	if r.UploadedBy.Valid {
		repo.users.RLock()
		_, ok := repo.users.table[r.UploadedBy.String]
		repo.users.RUnlock()
		if !ok {
			r.UploadedBy = null.String{}
		}
	}
	return r
}

func (repo *resourceRepository) CreateResource(_ context.Context, res resource.Resource) (resource.Resource, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, r := range repo.db.table {
		if r.StoragePath == res.StoragePath {
			return resource.Resource{}, resource.ErrDuplicatePath
		}
	}
	repo.db.table[res.ID] = &res
	return repo.row(res), nil
}

func (repo *resourceRepository) QueryAllResources(_ context.Context, ordering ...core.DBOrdering) ([]resource.Resource, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	resources := make([]resource.Resource, 0, len(repo.db.table))
	for _, r := range repo.db.table {
		resources = append(resources, repo.row(*r))
	}
	orderBy(resources, resourceFields, func(r resource.Resource) string { return r.ID }, ordering)
	return resources, nil
}

func (repo *resourceRepository) GetResourceByID(_ context.Context, id string) (resource.Resource, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.table[id]; ok {
		return repo.row(*r), nil
	}
	return resource.Resource{}, resource.ErrNotFound
}

func (repo *resourceRepository) GetResourceByStoragePath(_ context.Context, storagePath string) (resource.Resource, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, r := range repo.db.table {
		if r.StoragePath == storagePath {
			return repo.row(*r), nil
		}
	}
	return resource.Resource{}, resource.ErrNotFound
}

func (repo *resourceRepository) GetResourcesByID(_ context.Context, ids ...string) ([]resource.Resource, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	resources := make([]resource.Resource, 0, len(ids))
	for _, id := range ids {
		if r, ok := repo.db.table[id]; ok {
			resources = append(resources, repo.row(*r))
		}
	}
	return resources, nil
}

func (repo *resourceRepository) DeleteResourcesByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
