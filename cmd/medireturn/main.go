package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/bni-7/medireturn/internal/app"
	"github.com/bni-7/medireturn/internal/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	command := "serve"
	if args := flag.Args(); len(args) > 0 {
		command = args[0]
	}

	cfg, errLoad := config.Load(*configPath)
	if errLoad != nil {
		fmt.Fprintln(os.Stderr, errLoad)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var errRun error
	switch command {
	case "serve":
		errRun = app.RunServer(ctx, cfg)
	case "migrate":
		errRun = app.Migrate(ctx, cfg)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (expected serve or migrate)\n", command)
		os.Exit(2)
	}
	if errRun != nil {
		log.Fatalf("%s failed: %v", command, errRun)
	}
}
