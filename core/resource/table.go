package resource

import (
	"github.com/dustin/go-humanize"

	"github.com/tutorcraft/tutorcraft/core/search"
	"github.com/tutorcraft/tutorcraft/core/table"
)

// Columns of the resource library table.
func Columns() []table.Column[Resource] {
	return []table.Column[Resource]{
		{Key: "title", Label: "Title", Value: func(r Resource) interface{} { return r.Title }},
		{Key: "subject", Label: "Subject", Value: func(r Resource) interface{} { return r.Subject }},
		{
			Key:    "category",
			Label:  "Category",
			Value:  func(r Resource) interface{} { return r.Category },
			Render: func(r Resource) string { return CategoryLabel(r.Category) },
		},
		{Key: "grade_level", Label: "Grade level", Value: func(r Resource) interface{} { return r.GradeLevel }},
		{Key: "file_name", Label: "File", Value: func(r Resource) interface{} { return r.FileName }, DisableSort: true},
		{
			Key:    "size",
			Label:  "Size",
			Value:  func(r Resource) interface{} { return r.Size },
			Render: func(r Resource) string { return humanize.Bytes(uint64(r.Size)) },
		},
		{Key: "created_at", Label: "Uploaded", Value: func(r Resource) interface{} { return r.CreatedAt }},
	}
}

// SearchFields are matched by the library search box.
func SearchFields() []search.Field[Resource] {
	return []search.Field[Resource]{
		{Name: "title", Value: func(r Resource) string { return r.Title }},
		{Name: "description", Value: func(r Resource) string { return r.Description.String }},
		{Name: "subject", Value: func(r Resource) string { return r.Subject }},
		{Name: "file_name", Value: func(r Resource) string { return r.FileName }},
	}
}

// Filters of the library, with options drawn from rows.
func Filters(rows []Resource) []search.Filter[Resource] {
	subject := func(r Resource) string { return r.Subject }
	category := func(r Resource) string { return r.Category }
	grade := func(r Resource) string { return r.GradeLevel }

	return []search.Filter[Resource]{
		{Key: "subject", Label: "Subject", Options: search.OptionsOf(rows, subject, nil), Value: subject},
		{Key: "category", Label: "Category", Options: search.OptionsOf(rows, category, CategoryLabel), Value: category},
		{Key: "grade_level", Label: "Grade level", Options: search.OptionsOf(rows, grade, nil), Value: grade},
	}
}
