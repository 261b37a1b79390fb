package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct {
	// URL takes precedence over the individual fields.
	URL      string `json:"url"`
	Host     string `json:"host"`
	Port     uint16 `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

// Enabled reports whether a database is configured, either in the file or
// through the DATABASE_URL env variable. Without one the service keeps
// solutions in memory.
func (p Postgres) Enabled() bool {
	if os.Getenv("DATABASE_URL") != "" {
		return true
	}
	return p.URL != "" || p.Host != ""
}

func (p Postgres) DbURL() string {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		return dbURL
	}
	if p.URL != "" {
		return p.URL
	}
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	port := p.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(p.User),
		url.QueryEscape(p.Password),
		p.Host,
		port,
		p.DBName,
		sslMode,
	)
}

func (p Postgres) PgxpoolConfig() (*pgxpool.Config, error) {
	return pgxpool.ParseConfig(p.DbURL())
}
