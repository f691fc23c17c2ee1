package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the kasdien server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where kasdien stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// QuestionSourceURL is the base URL of the remote question source API.
	QuestionSourceURL string // KASDIEN_QUESTION_SOURCE_URL
	// StatsBackendURL is the base URL of the authoritative stats backend.
	StatsBackendURL string // KASDIEN_STATS_BACKEND_URL
	// TimeSyncEnabled enables server-time skew compensation on startup.
	TimeSyncEnabled bool // KASDIEN_TIME_SYNC_ENABLED
	// DistractorWildcards is the number of random wildcard options mixed into
	// each multiple-choice question alongside similarity-ranked near misses.
	DistractorWildcards int // KASDIEN_DISTRACTOR_WILDCARDS (default: 1)
	// OptionCount is the number of wrong options generated per multiple-choice
	// question.
	OptionCount int // KASDIEN_OPTION_COUNT (default: 3)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from KASDIEN_* environment variables.
func (p *Profile) FromEnv() {
	p.QuestionSourceURL = getEnvOrDefault("KASDIEN_QUESTION_SOURCE_URL", p.QuestionSourceURL)
	p.StatsBackendURL = getEnvOrDefault("KASDIEN_STATS_BACKEND_URL", p.StatsBackendURL)
	if v := os.Getenv("KASDIEN_TIME_SYNC_ENABLED"); v != "" {
		p.TimeSyncEnabled = v == "true"
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		p.Data = "/var/opt/kasdien"
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("kasdien_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if p.DistractorWildcards < 0 {
		return errors.New("distractor wildcards must be non-negative")
	}
	if p.OptionCount <= 0 {
		p.OptionCount = 3
	}
	if p.DistractorWildcards >= p.OptionCount {
		return errors.Errorf("distractor wildcards (%d) must be fewer than option count (%d)", p.DistractorWildcards, p.OptionCount)
	}

	return nil
}
