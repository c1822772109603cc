package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tutorcraft/tutorcraft/core"
	"github.com/tutorcraft/tutorcraft/core/resource"
)

const resourceColumns = `id, title, description, subject, category, grade_level, storage_path, file_name, content_type, size, uploaded_by, created_at, updated_at`

var resourceOrderColumns = map[string]string{
	"title":      "title",
	"subject":    "subject",
	"created_at": "created_at",
}

type dbResource struct {
	ID          string      `db:"id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	Subject     string      `db:"subject"`
	Category    string      `db:"category"`
	GradeLevel  string      `db:"grade_level"`
	StoragePath string      `db:"storage_path"`
	FileName    string      `db:"file_name"`
	ContentType string      `db:"content_type"`
	Size        int64       `db:"size"`
	UploadedBy  null.String `db:"uploaded_by"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r dbResource) toResource() resource.Resource {
	res := resource.Resource(r)
	res.CreatedAt = r.CreatedAt.UTC()
	res.UpdatedAt = r.UpdatedAt.UTC()
	return res
}

type resourceRepository struct {
	db *sqlx.DB
}

var _ resource.Repository = (*resourceRepository)(nil)

func NewResourceRepository(db *sqlx.DB) resource.Repository {
	return &resourceRepository{db: db}
}

func (repo *resourceRepository) CreateResource(ctx context.Context, res resource.Resource) (resource.Resource, error) {
	q := `INSERT INTO resource (` + resourceColumns + `) VALUES (
		:id, :title, :description, :subject, :category, :grade_level, :storage_path, :file_name, :content_type,
		:size, :uploaded_by, :created_at, :updated_at
	)`
	if _, err := repo.db.NamedExecContext(ctx, q, dbResource(res)); err != nil {
		if isUniqueViolation(err, "storage_path") {
			return resource.Resource{}, resource.ErrDuplicatePath
		}
		return resource.Resource{}, errors.Wrap(err, "inserting resource")
	}
	return repo.GetResourceByID(ctx, res.ID)
}

func (repo *resourceRepository) selectResources(ctx context.Context, q string, args ...interface{}) ([]resource.Resource, error) {
	var rows []dbResource
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting resources")
	}
	resources := make([]resource.Resource, 0, len(rows))
	for _, row := range rows {
		resources = append(resources, row.toResource())
	}
	return resources, nil
}

func (repo *resourceRepository) QueryAllResources(ctx context.Context, ordering ...core.DBOrdering) ([]resource.Resource, error) {
	return repo.selectResources(ctx, `SELECT `+resourceColumns+` FROM resource`+orderByClause(resourceOrderColumns, ordering))
}

func (repo *resourceRepository) getResource(ctx context.Context, where string, arg interface{}) (resource.Resource, error) {
	var row dbResource
	q := repo.db.Rebind(`SELECT ` + resourceColumns + ` FROM resource WHERE ` + where + ` = ?`)
	if err := repo.db.GetContext(ctx, &row, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return resource.Resource{}, resource.ErrNotFound
		}
		return resource.Resource{}, errors.Wrap(err, "selecting resource")
	}
	return row.toResource(), nil
}

func (repo *resourceRepository) GetResourceByID(ctx context.Context, id string) (resource.Resource, error) {
	return repo.getResource(ctx, "id", id)
}

func (repo *resourceRepository) GetResourceByStoragePath(ctx context.Context, storagePath string) (resource.Resource, error) {
	return repo.getResource(ctx, "storage_path", storagePath)
}

func (repo *resourceRepository) GetResourcesByID(ctx context.Context, ids ...string) ([]resource.Resource, error) {
	if len(ids) == 0 {
		return []resource.Resource{}, nil
	}
	q, args, err := sqlx.In(`SELECT `+resourceColumns+` FROM resource WHERE id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	return repo.selectResources(ctx, q, args...)
}

func (repo *resourceRepository) DeleteResourcesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM resource WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	_, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...)
	return errors.Wrap(err, "deleting resources")
}
