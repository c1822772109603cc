// Package testutil holds fixtures shared by the package tests.
package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/tutorcraft/tutorcraft/core"
	"github.com/tutorcraft/tutorcraft/core/resource"
	"github.com/tutorcraft/tutorcraft/core/user"
)

// NewValidator returns a validator carrying every custom validation of the app.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	resource.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if roles == nil {
		roles = []string{}
	}
	usr := user.User{
		ID:        uuidFor(email),
		Name:      name,
		Email:     email,
		Roles:     roles,
		Subjects:  []string{},
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// Upload stores a small text file through svc.
func Upload(t *testing.T, svc resource.Service, uploaderID, title, subject, category, fileName string) resource.Resource {
	t.Helper()

	content := "content of " + title
	res, err := svc.Upload(
		context.Background(),
		uploaderID,
		resource.NewResource{Title: title, Subject: subject, Category: category},
		&resource.File{
			Name:        fileName,
			ContentType: "text/plain",
			Size:        int64(len(content)),
			Content:     strings.NewReader(content),
		},
	)
	if err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}
	return res
}

func uuidFor(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String()
}
