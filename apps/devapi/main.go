// Command devapi serves a local LMS API with seeded accounts for the lms CLI.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	echoapi "github.com/aliqadomi777/front-end-lms/apps/devapi/echo"
	"github.com/aliqadomi777/front-end-lms/core"
	emailsvc "github.com/aliqadomi777/front-end-lms/services/email"
	logsvc "github.com/aliqadomi777/front-end-lms/services/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	local, err := logsvc.NewZapLogger(conf.LogLevel)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}
	defer func() { _ = local.Sync() }()

	logger := logsvc.NewRollbarLogger(local, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	defer logger.Close()

	accts := echoapi.NewAccounts(0)
	if err = echoapi.SeedAccounts(accts, echoapi.DefaultSeeds); err != nil {
		logger.Fatal(fmt.Sprintf("seeding accounts: %v", err), err)
	}
	catalog := echoapi.NewCatalog()
	echoapi.SeedCatalog(catalog, accts.All())

	emailSvc := emailsvc.New(conf, logger)
	if sg, ok := emailSvc.(*emailsvc.SendgridService); ok {
		defer sg.Wait()
	}

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(
		&echoapi.Options{
			Address:  conf.DevAPI.Address,
			Config:   conf,
			Logger:   logger,
			Accounts: accts,
			Catalog:  catalog,
			Email:    emailSvc,
		},
		func() {
			select {
			case shutdown <- syscall.SIGTERM:
			default:
			}
		},
	)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API listening", "address", conf.DevAPI.Address)
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal(fmt.Sprintf("server error: %v", err), err)
		}

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err = server.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}
