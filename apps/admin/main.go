package main

import (
	"log"
	"os"

	"github.com/tutorcraft/tutorcraft/core"
	"github.com/tutorcraft/tutorcraft/core/resource"
	"github.com/tutorcraft/tutorcraft/services/filestore"
	logsvc "github.com/tutorcraft/tutorcraft/services/logger"
	"github.com/tutorcraft/tutorcraft/storage/database"
	sqlxrepos "github.com/tutorcraft/tutorcraft/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	errAndDie(db.Ping())

	store, err := filestore.NewLocalStore(conf)
	errAndDie(err)
	resSvc := resource.NewService(conf, sqlxrepos.NewResourceRepository(db), store, logsvc.NewRollbarLogger(logger, conf))

	// start CLI
	cli := commandLine{
		db:      db.DB,
		usrRepo: sqlxrepos.NewUserRepository(db),
		resSvc:  resSvc,
		out:     os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		_ = db.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
