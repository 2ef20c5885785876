package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tarpaulin/core"
	"github.com/trezcool/tarpaulin/core/assignment"
	"github.com/trezcool/tarpaulin/core/course"
	"github.com/trezcool/tarpaulin/core/submission"
	"github.com/trezcool/tarpaulin/core/user"
	"github.com/trezcool/tarpaulin/services/email"
	"github.com/trezcool/tarpaulin/services/logger"
	"github.com/trezcool/tarpaulin/storage/database"
	"github.com/trezcool/tarpaulin/storage/database/mongo"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.New("ADMIN", os.Stdout, conf)

	// set up DB
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
	db, err := database.Open(ctx, conf)
	cancel()
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// set up repos & services
	usrRepo := mongorepos.NewUserRepository(db)
	crsRepo := mongorepos.NewCourseRepository(db)
	asgRepo := mongorepos.NewAssignmentRepository(db)
	subRepo := mongorepos.NewSubmissionRepository(db)

	subSvc := submission.NewService(subRepo)
	asgSvc := assignment.NewService(asgRepo, crsRepo, subSvc)
	crsSvc := course.NewService(crsRepo, usrRepo, asgSvc)
	usrSvc := user.NewService(usrRepo, crsSvc, emailsvc.NewConsoleService(logger, conf), conf)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	// start CLI
	cli := commandLine{
		conf:     conf,
		db:       db,
		validate: validate,
		usrSvc:   usrSvc,
		crsSvc:   crsSvc,
		asgSvc:   asgSvc,
	}
	err = cli.run(os.Args)

	closeCtx, closeCancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
	defer closeCancel()
	if cErr := db.Close(closeCtx); cErr != nil {
		logger.Error(fmt.Sprintf("closing database: %v", cErr), cErr)
	}

	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
