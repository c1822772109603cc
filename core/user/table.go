package user

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/tutorcraft/tutorcraft/core/search"
	"github.com/tutorcraft/tutorcraft/core/table"
)

// PrimaryRole is the highest priority role of usr, "" if none.
func (u User) PrimaryRole() string {
	var primary string
	for _, role := range u.Roles {
		if RolePriority(role) > RolePriority(primary) {
			primary = role
		}
	}
	return primary
}

func roleName(value string) string {
	for _, r := range Roles {
		if r.Value == value {
			return r.Name
		}
	}
	return value
}

// Columns of the users admin table.
func Columns() []table.Column[User] {
	return []table.Column[User]{
		{Key: "name", Label: "Name", Value: func(u User) interface{} { return u.Name }},
		{Key: "email", Label: "Email", Value: func(u User) interface{} { return u.Email }},
		{
			Key:   "roles",
			Label: "Roles",
			Value: func(u User) interface{} { return RolePriority(u.PrimaryRole()) },
			Render: func(u User) string {
				names := make([]string, 0, len(u.Roles))
				for _, role := range u.Roles {
					names = append(names, roleName(role))
				}
				return strings.Join(names, ", ")
			},
		},
		{
			Key:    "is_active",
			Label:  "Active",
			Value:  func(u User) interface{} { return u.IsActive },
			Render: func(u User) string { return map[bool]string{true: "Yes", false: "No"}[u.IsActive] },
		},
		{
			Key:   "last_login",
			Label: "Last login",
			Value: func(u User) interface{} { return u.LastLogin },
			Render: func(u User) string {
				if !u.LastLogin.Valid {
					return "Never"
				}
				return humanize.Time(u.LastLogin.Time)
			},
		},
		{Key: "created_at", Label: "Joined", Value: func(u User) interface{} { return u.CreatedAt }},
	}
}

func SearchFields() []search.Field[User] {
	return []search.Field[User]{
		{Name: "name", Value: func(u User) string { return u.Name }},
		{Name: "email", Value: func(u User) string { return u.Email }},
		{Name: "phone", Value: func(u User) string { return u.Phone }},
		{Name: "subjects", Value: func(u User) string { return strings.Join(u.Subjects, " ") }},
	}
}

func Filters() []search.Filter[User] {
	roleOpts := make([]search.Option, 0, len(Roles))
	for _, r := range Roles {
		roleOpts = append(roleOpts, search.Option{Value: r.Value, Label: r.Name})
	}
	return []search.Filter[User]{
		{Key: "role", Label: "Role", Options: roleOpts, Value: func(u User) string { return u.PrimaryRole() }},
		{
			Key:     "is_active",
			Label:   "Status",
			Options: []search.Option{{Value: "true", Label: "Active"}, {Value: "false", Label: "Inactive"}},
			Value:   func(u User) string { return strconv.FormatBool(u.IsActive) },
		},
	}
}
