package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/ballsort/internal/adb"
	"github.com/vancomm/ballsort/internal/cluster"
	"github.com/vancomm/ballsort/internal/config"
	"github.com/vancomm/ballsort/internal/logging"
	"github.com/vancomm/ballsort/internal/ocr"
	"github.com/vancomm/ballsort/internal/player"
	"github.com/vancomm/ballsort/internal/shell"
	"github.com/vancomm/ballsort/internal/solver"
)

var (
	log = logrus.New()

	configPath string
	serial     string
)

func init() {
	const usage = "config file path"
	flag.StringVar(&configPath, "config", "", usage)
	flag.StringVar(&configPath, "c", "", usage+" (shorthand)")
	flag.StringVar(&serial, "s", "", "serial of the device to play on")
}

func readConfig() config.Config {
	if configPath == "" {
		return config.Default()
	}
	c, err := config.Read(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return c
}

func main() {
	mainCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	flag.Parse()

	c := readConfig()
	if serial != "" {
		c.Player.Serial = serial
	}
	if err := logging.Setup(log, c); err != nil {
		log.Fatal(err)
	}
	log.WithFields(c.Fields()).Debug("config")

	runner := shell.Exec{Log: log}
	connector := adb.NewConnector(log, runner, c.Player.AdbPath, c.Player.RetryDelay.Duration)

	devices, err := connector.Devices(mainCtx)
	if err != nil {
		log.Fatal(err)
	}
	device, err := adb.SelectDevice(devices, c.Player.Serial)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("using device %s", device)

	if on, err := connector.ScreenOn(mainCtx, device); err != nil {
		log.WithError(err).Warn("unable to check screen state")
	} else if !on {
		log.Warn("device screen is off")
	}

	p := player.New(
		log,
		connector.Bind(device),
		ocr.NewRecognizer(log, &ocr.Tesseract{Runner: runner, Path: c.Player.TesseractPath}, c.Player.OCRWorkers),
		cluster.New(log, c.Cluster.Options()...),
		solver.New(log, solver.WithMaxStates(c.Solver.MaxStates)),
		player.Options{
			Threshold:  c.Player.Threshold,
			WaitDelay:  c.Player.WaitDelay.Duration,
			RetryDelay: c.Player.RetryDelay.Duration,
		},
	)

	if err := p.Run(mainCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("exit reason: %s", err)
	}
	log.Info("player stopped")
}
