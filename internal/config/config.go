package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/meltforce/madcow/internal/madcow"
	"github.com/meltforce/madcow/internal/models"
)

// Storage backend names.
const (
	BackendMemory   = "memory"
	BackendCSV      = "csv"
	BackendXLSX     = "xlsx"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendSheets   = "sheets"
)

var backends = []string{BackendMemory, BackendCSV, BackendXLSX, BackendSQLite, BackendPostgres, BackendSheets}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Storage   StorageConfig   `yaml:"storage"`
	Program   ProgramConfig   `yaml:"program"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type StorageConfig struct {
	Backend      string         `yaml:"backend"`
	Path         string         `yaml:"path"`
	SettingsPath string         `yaml:"settings_path"`
	Database     DatabaseConfig `yaml:"database"`
	Sheets       SheetsConfig   `yaml:"sheets"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	CredentialsFile string `yaml:"credentials_file"`
	RecordsSheet    string `yaml:"records_sheet"`
	SettingsSheet   string `yaml:"settings_sheet"`
}

// ProgramConfig holds the program defaults. Values persisted in the store's
// settings table take precedence over these at load time.
type ProgramConfig struct {
	RoundingIncrement float64   `yaml:"rounding_increment"`
	BarWeight         float64   `yaml:"bar_weight"`
	Week              int       `yaml:"week"`
	StartDate         string    `yaml:"start_date"`
	DefaultIncrement  float64   `yaml:"default_increment"`
	LightSquatFactor  float64   `yaml:"light_squat_factor"`
	LightSquatLadder  []float64 `yaml:"light_squat_ladder"`
	Plates            []float64 `yaml:"plates"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Host: "0.0.0.0", Port: 8080},
		Tailscale: TailscaleConfig{Hostname: "madcow"},
		Storage: StorageConfig{
			Backend: BackendSQLite,
			Path:    "madcow.db",
			Database: DatabaseConfig{
				Host: "localhost",
				Port: 5432,
				Name: "madcow",
				User: "madcow",
			},
			Sheets: SheetsConfig{RecordsSheet: "Lifts", SettingsSheet: "Settings"},
		},
		Program: ProgramConfig{
			RoundingIncrement: 5,
			BarWeight:         45,
			DefaultIncrement:  models.DefaultIncrementPct,
			LightSquatFactor:  0.75,
			LightSquatLadder:  append([]float64(nil), madcow.LightSquatLadder[:]...),
			Plates:            append([]float64(nil), madcow.StandardPlates...),
		},
	}
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. An empty path uses the defaults alone.
// Env vars use the prefix MADCOW_ and underscore-separated paths:
//
//	MADCOW_SERVER_HOST, MADCOW_SERVER_PORT,
//	MADCOW_TAILSCALE_ENABLED, MADCOW_TAILSCALE_HOSTNAME, MADCOW_TAILSCALE_STATE_DIR,
//	MADCOW_STORAGE_BACKEND, MADCOW_STORAGE_PATH, MADCOW_STORAGE_SETTINGS_PATH,
//	MADCOW_DB_HOST, MADCOW_DB_PORT, MADCOW_DB_NAME,
//	MADCOW_DB_USER, MADCOW_DB_PASSWORD, MADCOW_DB_SSLMODE,
//	MADCOW_SHEETS_SPREADSHEET_ID, MADCOW_SHEETS_CREDENTIALS_FILE,
//	MADCOW_PROGRAM_ROUNDING_INCREMENT, MADCOW_PROGRAM_BAR_WEIGHT,
//	MADCOW_PROGRAM_WEEK, MADCOW_PROGRAM_START_DATE
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	float := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			if f, ok := models.ParseNumber(v); ok {
				*dst = f
			}
		}
	}

	str("MADCOW_SERVER_HOST", &cfg.Server.Host)
	num("MADCOW_SERVER_PORT", &cfg.Server.Port)
	if v := os.Getenv("MADCOW_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	str("MADCOW_TAILSCALE_HOSTNAME", &cfg.Tailscale.Hostname)
	str("MADCOW_TAILSCALE_STATE_DIR", &cfg.Tailscale.StateDir)

	str("MADCOW_STORAGE_BACKEND", &cfg.Storage.Backend)
	str("MADCOW_STORAGE_PATH", &cfg.Storage.Path)
	str("MADCOW_STORAGE_SETTINGS_PATH", &cfg.Storage.SettingsPath)
	str("MADCOW_DB_HOST", &cfg.Storage.Database.Host)
	num("MADCOW_DB_PORT", &cfg.Storage.Database.Port)
	str("MADCOW_DB_NAME", &cfg.Storage.Database.Name)
	str("MADCOW_DB_USER", &cfg.Storage.Database.User)
	str("MADCOW_DB_PASSWORD", &cfg.Storage.Database.Password)
	str("MADCOW_DB_SSLMODE", &cfg.Storage.Database.SSLMode)
	str("MADCOW_SHEETS_SPREADSHEET_ID", &cfg.Storage.Sheets.SpreadsheetID)
	str("MADCOW_SHEETS_CREDENTIALS_FILE", &cfg.Storage.Sheets.CredentialsFile)

	float("MADCOW_PROGRAM_ROUNDING_INCREMENT", &cfg.Program.RoundingIncrement)
	float("MADCOW_PROGRAM_BAR_WEIGHT", &cfg.Program.BarWeight)
	num("MADCOW_PROGRAM_WEEK", &cfg.Program.Week)
	str("MADCOW_PROGRAM_START_DATE", &cfg.Program.StartDate)
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	if err := c.Storage.validate(); err != nil {
		return err
	}
	return c.Program.validate()
}

func (s StorageConfig) validate() error {
	if !slices.Contains(backends, s.Backend) {
		return fmt.Errorf("storage.backend %q not one of %v", s.Backend, backends)
	}
	switch s.Backend {
	case BackendCSV, BackendXLSX, BackendSQLite:
		if s.Path == "" {
			return fmt.Errorf("storage.path is required for the %s backend", s.Backend)
		}
	case BackendPostgres:
		d := s.Database
		if d.Host == "" {
			return fmt.Errorf("storage.database.host is required")
		}
		if d.Port == 0 {
			return fmt.Errorf("storage.database.port is required")
		}
		if d.Name == "" {
			return fmt.Errorf("storage.database.name is required")
		}
		if d.User == "" {
			return fmt.Errorf("storage.database.user is required")
		}
	case BackendSheets:
		if s.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("storage.sheets.spreadsheet_id is required")
		}
		if s.Sheets.CredentialsFile == "" {
			return fmt.Errorf("storage.sheets.credentials_file is required")
		}
	}
	return nil
}

func (p ProgramConfig) validate() error {
	if !slices.Contains(models.RoundingIncrements, p.RoundingIncrement) {
		return fmt.Errorf("program.rounding_increment %v not one of %v", p.RoundingIncrement, models.RoundingIncrements)
	}
	if p.BarWeight <= 0 {
		return fmt.Errorf("program.bar_weight must be positive")
	}
	if p.Week < 0 {
		return fmt.Errorf("program.week must not be negative")
	}
	if p.Week > 0 && p.StartDate != "" {
		return fmt.Errorf("program.week and program.start_date are mutually exclusive")
	}
	if p.StartDate != "" {
		if _, err := models.ParseDate(p.StartDate); err != nil {
			return fmt.Errorf("program.start_date: %w", err)
		}
	}
	if p.DefaultIncrement < 0 {
		return fmt.Errorf("program.default_increment must not be negative")
	}
	if len(p.LightSquatLadder) != len(madcow.Ladder{}) {
		return fmt.Errorf("program.light_squat_ladder needs %d rungs, got %d", len(madcow.Ladder{}), len(p.LightSquatLadder))
	}
	if err := p.Madcow().Validate(); err != nil {
		return fmt.Errorf("program: %w", err)
	}
	if err := madcow.PlateSet(p.Plates).Validate(); err != nil {
		return fmt.Errorf("program.plates: %w", err)
	}
	return nil
}

// Madcow returns the program layout with the configured light day.
func (p ProgramConfig) Madcow() madcow.Program {
	prog := madcow.DefaultProgram()
	if p.LightSquatFactor != 0 {
		prog.LightSquatFactor = p.LightSquatFactor
	}
	if len(p.LightSquatLadder) == len(prog.LightSquatLadder) {
		copy(prog.LightSquatLadder[:], p.LightSquatLadder)
	}
	return prog
}

// PlateSet returns the configured plate denominations.
func (p ProgramConfig) PlateSet() madcow.PlateSet {
	if len(p.Plates) == 0 {
		return madcow.StandardPlates
	}
	return madcow.PlateSet(p.Plates)
}

// Settings returns the configured settings before any persisted overrides.
// Without an explicit week or start date, the start date is today.
func (p ProgramConfig) Settings(now time.Time) models.Settings {
	s := models.DefaultSettings(now)
	s.RoundingIncrement = p.RoundingIncrement
	s.BarWeight = p.BarWeight
	s.Week = p.Week
	if d, err := models.ParseDate(p.StartDate); err == nil {
		s.StartDate = d
	}
	return s
}
