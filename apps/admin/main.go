package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/user"
	emailsvc "github.com/etarip26/EduConnect/services/email"
	logsvc "github.com/etarip26/EduConnect/services/logger"
	"github.com/etarip26/EduConnect/storage/database"
	"github.com/etarip26/EduConnect/storage/database/sqlxrepos"
)

func main() {
	os.Exit(run())
}

func run() int {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(logsvc.NewZapLogger(conf, "ADMIN"), conf)
	logger.Enable(!conf.Debug)
	defer logger.Sync()

	// set up DB
	ctx := context.Background()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		logger.Error(fmt.Sprintf("setting up database: %v", err), err)
		return 1
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		logger.Error(fmt.Sprintf("opening database: %v", err), err)
		return 1
	}
	defer func() { _ = db.Close() }()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:     db,
		usrSvc: user.NewService(sqlxrepos.NewUserRepository(db), emailsvc.NewConsoleService(conf, logger), validate, conf),
	}
	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		return 1
	}
	return 0
}
