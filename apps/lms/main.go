// Command lms signs in to the LMS and shows the navigation available to the signed-in role.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/aliqadomi777/front-end-lms/core"
	"github.com/aliqadomi777/front-end-lms/core/session"
	"github.com/aliqadomi777/front-end-lms/services/lmsapi"
	logsvc "github.com/aliqadomi777/front-end-lms/services/logger"
	"github.com/aliqadomi777/front-end-lms/storage/tokenstore"
)

func main() {
	os.Exit(run())
}

func run() int {
	conf := core.NewConfig()

	local, err := logsvc.NewZapLogger(conf.LogLevel)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}
	defer func() { _ = local.Sync() }()

	logger := logsvc.NewRollbarLogger(local, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	defer logger.Close()

	tokens, closeTokens, err := tokenstore.Open(conf)
	if err != nil {
		logger.Error("opening token storage", err)
		return 1
	}
	defer func() {
		if err := closeTokens(); err != nil {
			logger.Warn("closing token storage", err)
		}
	}()

	client := lmsapi.NewClientFromConfig(conf, local)
	store := session.NewStore(client, tokens, session.Options{
		Timeout: conf.API.RequestTimeout,
		Logger:  local,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newCommandLine(store, client, local).rootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if err == errHelp {
			return 2
		}
		fmt.Fprintf(os.Stderr, "error: %s\n", userMessage(err))
		if !expected(err) {
			logger.Error("lms: command failed", err, store.Snapshot().User)
		}
		return 1
	}
	return 0
}
