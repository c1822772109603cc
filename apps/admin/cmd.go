package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/tutorcraft/tutorcraft/core/resource"
	"github.com/tutorcraft/tutorcraft/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sql.DB
	usrRepo user.Repository
	resSvc  resource.Service
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  adduser -email EMAIL -name NAME [-admin] - create or update a user, the password is prompted")
	_, _ = fmt.Fprintln(cli.out, "  resetpassword -email EMAIL - reset user's password")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command against the database")
	_, _ = fmt.Fprintln(cli.out, "  cleanfiles [-dry-run] - remove stored files no resource refers to")
}

func (cli *commandLine) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// parse maps -h to errHelp.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

func (cli *commandLine) readPassword(fs *flag.FlagSet) (string, error) {
	_, _ = fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "adduser":
		fs := cli.flagSet("adduser")
		email := fs.String("email", "", "The user's email. The password will be prompted next.")
		name := fs.String("name", "", "The user's full name.")
		isAdmin := fs.Bool("admin", false, "Grant every role to the user.")
		if err := parse(fs, args[2:]); err != nil {
			return err
		}
		if *email == "" || *name == "" {
			fs.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword(fs)
		if err != nil {
			return err
		}
		return cli.addUser(*name, *email, pwd, *isAdmin)

	case "resetpassword":
		fs := cli.flagSet("resetpassword")
		email := fs.String("email", "", "The user's email. The password will be prompted next.")
		if err := parse(fs, args[2:]); err != nil {
			return err
		}
		if *email == "" {
			fs.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword(fs)
		if err != nil {
			return err
		}
		return cli.resetPassword(*email, pwd)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "cleanfiles":
		fs := cli.flagSet("cleanfiles")
		dryRun := fs.Bool("dry-run", false, "Only list the orphaned files.")
		if err := parse(fs, args[2:]); err != nil {
			return err
		}
		return cli.cleanFiles(*dryRun)

	default:
		cli.printUsage()
		return errHelp
	}
}
