package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/ballsort/internal/app"
	"github.com/vancomm/ballsort/internal/config"
	"github.com/vancomm/ballsort/internal/logging"
)

var (
	log = logrus.New()

	configPath string
)

func init() {
	const (
		defaultConfigPath = "/run/config.json"
		usage             = "config file path"
	)
	flag.StringVar(&configPath, "config", defaultConfigPath, usage)
	flag.StringVar(&configPath, "c", defaultConfigPath, usage+" (shorthand)")
}

func main() {
	mainCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	flag.Parse()

	c, err := config.Read(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := logging.Setup(log, c); err != nil {
		log.Fatal(err)
	}

	log.Info("starting up, mode = ", c.Mode)
	log.WithFields(c.Fields()).Debug("config")

	if err := app.New(log, c, nil).Start(mainCtx); err != nil {
		log.Fatalf("exit reason: %s", err)
	}
	log.Info("server stopped")
}
