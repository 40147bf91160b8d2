package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nearlight/nearlight/cmd/nearlight/commands"
	"github.com/nearlight/nearlight/config"
	"github.com/nearlight/nearlight/libs/cli"
	"github.com/nearlight/nearlight/libs/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conf := config.DefaultConfig()

	logger, err := log.NewDefaultLogger(log.LogFormatPlain, log.LogLevelInfo)
	if err != nil {
		panic(err)
	}

	rcmd := commands.RootCommand(conf, logger)
	rcmd.AddCommand(
		commands.MakeInitCommand(conf, logger),
		commands.MakeAdvanceCommand(conf, logger),
		commands.MakeVerifyCommand(conf, logger),
		commands.MakeShowCommand(conf, logger),
		commands.MakeExportCommand(conf, logger),
		commands.VersionCmd,
	)

	code := cli.Execute(ctx, rcmd, os.Stderr)
	stop()
	os.Exit(code)
}
