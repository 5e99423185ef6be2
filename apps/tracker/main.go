package main

import (
	"log"
	"os"

	"github.com/trezcool/ontime/core"
	"github.com/trezcool/ontime/core/deadline"
	"github.com/trezcool/ontime/core/directory"
	emailsvc "github.com/trezcool/ontime/services/email"
	logsvc "github.com/trezcool/ontime/services/logger"
	"github.com/trezcool/ontime/storage/kv"
)

func main() {
	defer os.Exit(0)

	conf := core.NewConfig()
	logger := logsvc.NewStdLogger(log.New(os.Stderr, "TRACKER : ", log.LstdFlags))

	core.InitValidators()
	deadline.InitValidators()
	directory.InitValidators()
	core.ParseEmailTemplates(conf, logger)

	kvs, err := kv.NewFileStore(conf.Tracker.ProfileDir)
	if err != nil {
		logger.Fatal("opening profile store", err)
	}
	store := deadline.NewStore(kvs, logger)
	defer store.Close()

	var mailSvc core.EmailService
	if conf.SendgridApiKey != "" {
		mailSvc = emailsvc.NewSendgridService(conf)
	} else {
		mailSvc = emailsvc.NewConsoleService(conf)
	}

	cli := commandLine{
		conf:   conf,
		store:  store,
		svc:    deadline.NewService(store, mailSvc, logger),
		client: directory.NewClient(conf),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(err.Error(), err)
		}
		store.Close()
		os.Exit(1)
	}
}
