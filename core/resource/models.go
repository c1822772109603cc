package resource

import (
	"io"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tutorcraft/tutorcraft/core"
)

// Categories
const (
	CategoryWorksheet  = "worksheet"
	CategoryLessonPlan = "lesson-plan"
	CategoryAssessment = "assessment"
	CategoryVideo      = "video"
	CategoryOther      = "other"
)

var (
	Categories = []Category{
		{Name: "Worksheet", Value: CategoryWorksheet},
		{Name: "Lesson plan", Value: CategoryLessonPlan},
		{Name: "Assessment", Value: CategoryAssessment},
		{Name: "Video", Value: CategoryVideo},
		{Name: "Other", Value: CategoryOther},
	}

	// errors
	ErrNotFound      = errors.New("resource not found")
	ErrNoFile        = errors.New("please select a file to upload")
	ErrDuplicatePath = errors.New("a resource already refers to this storage path")
)

type Category struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CategoryLabel returns the display name of a category value.
func CategoryLabel(value string) string {
	for _, c := range Categories {
		if c.Value == value {
			return c.Name
		}
	}
	return value
}

// Resource is a teaching file shared in the library.
type Resource struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description null.String `json:"description"`
	Subject     string      `json:"subject"`
	Category    string      `json:"category"`
	GradeLevel  string      `json:"grade_level"`
	StoragePath string      `json:"storage_path"`
	FileName    string      `json:"file_name"`
	ContentType string      `json:"content_type"`
	Size        int64       `json:"size"`
	UploadedBy  null.String `json:"uploaded_by"` // user ID; null once the uploader is deleted
	CreatedAt   time.Time   `json:"created_at"`  // UTC
	UpdatedAt   time.Time   `json:"updated_at"`  // UTC
}

func (r Resource) RowID() string { return r.ID }

// NewResource contains the metadata of an upload.
type NewResource struct {
	Title       string `json:"title" form:"title" validate:"notblank,max=200"`
	Description string `json:"description" form:"description" validate:"max=5000"`
	Subject     string `json:"subject" form:"subject" validate:"notblank,max=100"`
	Category    string `json:"category" form:"category" validate:"required,category"`
	GradeLevel  string `json:"grade_level" form:"grade_level" validate:"max=50"`
}

func (nr *NewResource) Validate(validate *validator.Validate) error {
	nr.Title = core.CleanString(nr.Title)
	nr.Description = core.CleanString(nr.Description)
	nr.Subject = core.CleanString(nr.Subject)
	nr.Category = core.CleanString(nr.Category, true /* lower */)
	nr.GradeLevel = core.CleanString(nr.GradeLevel)
	return validate.Struct(nr)
}

// File is the content of an upload.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// safeName keeps the base name of a client supplied file name.
func safeName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	switch name {
	case "", ".", "..", "/":
		return "file"
	}
	return name
}
