// Package config loads the JSON configuration shared by the player and the
// solver service.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/ballsort/internal/cluster"
)

type Duration struct{ time.Duration }

// [Duration] implements [json.Marshaler]
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a number of nanoseconds or a string understood by
// [time.ParseDuration].
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		var err error
		d.Duration, err = time.ParseDuration(value)
		return err
	default:
		return errors.New("invalid duration")
	}
}

type Solver struct {
	// MaxStates caps the positions a single search may discover. Zero
	// means no limit.
	MaxStates int `json:"max_states"`
	// Timeout bounds a single search run by the service.
	Timeout Duration `json:"timeout"`
}

type Cluster struct {
	Visible  cluster.Scale `json:"visible"`
	Mirrored cluster.Scale `json:"mirrored"`
}

func (c Cluster) Options() []cluster.Option {
	return []cluster.Option{
		cluster.WithVisibleScale(c.Visible),
		cluster.WithMirroredScale(c.Mirrored),
	}
}

type Player struct {
	AdbPath       string   `json:"adb_path"`
	TesseractPath string   `json:"tesseract_path"`
	Serial        string   `json:"serial"`
	WaitDelay     Duration `json:"wait_delay"`
	RetryDelay    Duration `json:"retry_delay"`
	OCRWorkers    int      `json:"ocr_workers"`
	Threshold     uint8    `json:"threshold"`
}

type Config struct {
	Mode           string   `json:"mode"`
	Addr           string   `json:"addr"`
	LogFile        string   `json:"log_file"`
	AllowedOrigins []string `json:"allowed_origins"`
	Postgres       Postgres `json:"postgres"`
	Solver         Solver   `json:"solver"`
	Cluster        Cluster  `json:"cluster"`
	Player         Player   `json:"player"`
}

// Default returns the configuration used for every field a file leaves out.
func Default() Config {
	return Config{
		Mode: ModeProduction,
		Addr: ":8080",
		Solver: Solver{
			MaxStates: 2_000_000,
			Timeout:   Duration{30 * time.Second},
		},
		Cluster: Cluster{
			Visible:  cluster.DefaultVisibleScale,
			Mirrored: cluster.DefaultMirroredScale,
		},
		Player: Player{
			AdbPath:       "adb",
			TesseractPath: "tesseract",
			WaitDelay:     Duration{50 * time.Millisecond},
			RetryDelay:    Duration{4 * time.Second},
			OCRWorkers:    4,
			Threshold:     100,
		},
	}
}

func (c Config) Fields() logrus.Fields {
	return map[string]any{
		"mode":                  c.Mode,
		"addr":                  c.Addr,
		"log_file":              c.LogFile,
		"allowed_origins":       c.AllowedOrigins,
		"pg_enabled":            c.Postgres.Enabled(),
		"pg_host":               c.Postgres.Host,
		"pg_port":               c.Postgres.Port,
		"pg_user":               c.Postgres.User,
		"pg_db_name":            c.Postgres.DBName,
		"solver_max_states":     c.Solver.MaxStates,
		"solver_timeout":        c.Solver.Timeout.String(),
		"cluster_visible":       c.Cluster.Visible,
		"cluster_mirrored":      c.Cluster.Mirrored,
		"player_adb_path":       c.Player.AdbPath,
		"player_tesseract_path": c.Player.TesseractPath,
		"player_serial":         c.Player.Serial,
		"player_wait_delay":     c.Player.WaitDelay.String(),
		"player_retry_delay":    c.Player.RetryDelay.String(),
		"player_ocr_workers":    c.Player.OCRWorkers,
		"player_threshold":      c.Player.Threshold,
	}
}

const (
	ModeProduction  = "production"
	ModeDevelopment = "development"
)

var ErrUnknownMode = errors.New("unknown mode")

func (c Config) Production() bool {
	return c.Mode == ModeProduction
}

// Development is false unless the development mode is requested by name.
func (c Config) Development() bool {
	return c.Mode == ModeDevelopment
}

// AllowOrigin reports whether cross-origin requests from origin are
// accepted: any origin in development, the listed ones otherwise.
func (c Config) AllowOrigin(origin string) bool {
	return c.Development() || slices.Contains(c.AllowedOrigins, origin)
}

// Read loads the file at path over [Default].
func Read(path string) (Config, error) {
	config := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("unable to read config %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &config); err != nil {
		return config, fmt.Errorf("unable to parse config %s: %w", path, err)
	}
	if !config.Production() && !config.Development() {
		return config, fmt.Errorf("unable to parse config %s: %w %q", path, ErrUnknownMode, config.Mode)
	}
	return config, nil
}
