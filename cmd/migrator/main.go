package main

import (
	"flag"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/ballsort/internal/config"
	"github.com/vancomm/ballsort/internal/database"
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
	flag.Parse()

	c, err := config.Read(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := logging.Setup(log, c); err != nil {
		log.Fatal(err)
	}
	if !c.Postgres.Enabled() {
		log.Fatal("postgres is not configured")
	}

	migrator, err := database.Migrate(c.Postgres.DbURL(), database.Migrations)
	if err != nil {
		log.Fatal("failed to migrate db: ", err)
	}
	defer migrator.Close()

	version, dirty, err := migrator.Version()
	if err != nil {
		log.WithError(err).Error("failed to check migration version")
		return
	}
	log.WithFields(logrus.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info("migration successful")
}
