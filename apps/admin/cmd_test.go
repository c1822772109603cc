package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"testing"

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

const goodPwd = "Tr1cky-Owl!"

type fixture struct {
	cli     *commandLine
	usrRepo user.Repository
	store   core.FileStore
	out     *bytes.Buffer
}

func setup(t *testing.T) fixture {
	conf := core.NewTestConfig(t.TempDir())
	db := inmemdb.Open()
	store, err := filestore.NewLocalStore(conf)
	require.NoError(t, err)

	f := fixture{
		usrRepo: inmemdb.NewUserRepository(db),
		store:   store,
		out:     new(bytes.Buffer),
	}
	f.cli = &commandLine{
		usrRepo: f.usrRepo,
		resSvc:  resource.NewService(conf, inmemdb.NewResourceRepository(db), store, logsvc.NewDiscardLogger()),
		out:     f.out,
	}
	return f
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func (tt cliTest) run(t *testing.T, cli *commandLine) error {
	t.Helper()
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(tt.pwd), nil }

	err := cli.run(append([]string{"admin"}, tt.args...))
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		require.Error(t, err)
		assert.Equal(t, tt.wantErrStr, err.Error())
	default:
		assert.NoError(t, err)
	}
	return err
}

func Test_commandLine_usage(t *testing.T) {
	f := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "help flag", args: []string{"adduser", "-h"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"cleanfiles", "-force"}, wantErrStr: "flag provided but not defined: -force"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.run(t, f.cli)
		})
	}
	assert.Contains(t, f.out.String(), "Usage:")
}

func Test_commandLine_migrate(t *testing.T) {
	f := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "resource_tags", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.run(t, f.cli)
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.CreateUser(t, f.usrRepo, "Ina Inactive", "ina@tutorcraft.test", "", []string{user.RoleTutor}, false)

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no name", args: []string{"adduser", "-email", "ada@tutorcraft.test"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-email", "ada@tutorcraft.test", "-name", "Ada"}, wantErr: errHelp},
		{name: "create admin", args: []string{"adduser", "-email", " Ada@Tutorcraft.test", "-name", "Ada Admin", "-admin"}, pwd: goodPwd},
		{name: "reactivate", args: []string{"adduser", "-email", "ina@tutorcraft.test", "-name", "Ina Back"}, pwd: goodPwd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.run(t, f.cli)
		})
	}

	ada, err := f.usrRepo.GetUserByEmail(ctx, "ada@tutorcraft.test")
	require.NoError(t, err)
	assert.Equal(t, "Ada Admin", ada.Name)
	assert.True(t, ada.IsAdmin())
	assert.True(t, ada.IsActive)
	assert.NoError(t, ada.CheckPassword(goodPwd))

	ina, err := f.usrRepo.GetUserByEmail(ctx, "ina@tutorcraft.test")
	require.NoError(t, err)
	assert.Equal(t, "Ina Back", ina.Name)
	assert.True(t, ina.IsActive)
	assert.Equal(t, []string{user.RoleTutor}, ina.Roles)
	assert.NoError(t, ina.CheckPassword(goodPwd))
}

func Test_commandLine_resetPassword(t *testing.T) {
	f := setup(t)
	usr := testutil.CreateUser(t, f.usrRepo, "Ann Tutor", "ann@tutorcraft.test", goodPwd, nil, true)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@tutorcraft.test"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@tutorcraft.test"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", "ANN@tutorcraft.test"}, pwd: "N3w-Secret!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.run(t, f.cli)
		})
	}

	refreshed, err := f.usrRepo.GetUserByID(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.False(t, bytes.Equal(refreshed.PasswordHash, usr.PasswordHash))
	assert.NoError(t, refreshed.CheckPassword("N3w-Secret!"))
}

func Test_commandLine_cleanFiles(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	uploader := testutil.CreateUser(t, f.usrRepo, "Ann Tutor", "ann@tutorcraft.test", goodPwd, nil, true)
	kept := testutil.Upload(t, f.cli.resSvc, uploader.ID, "Fractions", "Maths", resource.CategoryWorksheet, "fractions.txt")
	orphan := "resources/" + uploader.ID + "/orphan.txt"
	_, err := f.store.Upload(ctx, orphan, strings.NewReader("lost"), "text/plain")
	require.NoError(t, err)

	listed := func() []string {
		files, err := f.store.List(ctx, "resources/")
		require.NoError(t, err)
		paths := make([]string, 0, len(files))
		for _, file := range files {
			paths = append(paths, file.Path)
		}
		return paths
	}

	(cliTest{args: []string{"cleanfiles", "-dry-run"}}).run(t, f.cli)
	assert.Contains(t, f.out.String(), orphan+"\n1 orphaned file(s) found\n")
	assert.ElementsMatch(t, []string{kept.StoragePath, orphan}, listed())

	f.out.Reset()
	(cliTest{args: []string{"cleanfiles"}}).run(t, f.cli)
	assert.Equal(t, orphan+"\n1 orphaned file(s) removed\n", f.out.String())
	assert.Equal(t, []string{kept.StoragePath}, listed())
}
