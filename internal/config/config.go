// Package config provides Viper-based configuration loading for skirmish.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings for the encounter archive.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the connection URL for d, escaping credentials as needed.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// ContentConfig locates the YAML reference data.
type ContentConfig struct {
	// Root is the content directory; the other fields are relative to it
	// unless absolute.
	Root       string `mapstructure:"root"`
	Conditions string `mapstructure:"conditions"`
	Spells     string `mapstructure:"spells"`
	Items      string `mapstructure:"items"`
	Ruleset    string `mapstructure:"ruleset"`
	Monsters   string `mapstructure:"monsters"`
	AI         string `mapstructure:"ai"`
}

// Path resolves one of the content directories against Root.
func (c ContentConfig) Path(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.Root, dir)
}

// CombatConfig holds encounter defaults.
type CombatConfig struct {
	// Seed fixes the encounter seed; 0 picks a random one.
	Seed                   int64   `mapstructure:"seed"`
	Handicap               string  `mapstructure:"handicap"`
	CanFlee                bool    `mapstructure:"can_flee"`
	PartyFleeEndsEncounter bool    `mapstructure:"party_flee_ends_encounter"`
	Outdoors               bool    `mapstructure:"outdoors"`
	HealBelow              float64 `mapstructure:"heal_below"`
	DefendBelow            float64 `mapstructure:"defend_below"`
}

// ScriptingConfig holds Lua sandbox settings.
type ScriptingConfig struct {
	// Dir holds condition tick scripts (loaded globally) and one
	// subdirectory of precondition scripts per AI domain.
	Dir              string `mapstructure:"dir"`
	InstructionLimit int    `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Content   ContentConfig   `mapstructure:"content"`
	Combat    CombatConfig    `mapstructure:"combat"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
}

// checks accumulates violations as "section.key message" strings.
type checks []string

func (c *checks) expect(ok bool, key, format string, args ...any) {
	if !ok {
		*c = append(*c, key+" "+fmt.Sprintf(format, args...))
	}
}

func oneOf(v string, allowed ...string) bool { return slices.Contains(allowed, v) }

// Validate reports every violation at once, in section order.
func (c Config) Validate() error {
	var v checks
	c.Database.check(&v)
	c.Logging.check(&v)
	c.Content.check(&v)
	c.Combat.check(&v)
	c.Scripting.check(&v)
	if len(v) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(v, "; "))
}

func (d DatabaseConfig) check(v *checks) {
	v.expect(d.Host != "", "database.host", "must not be empty")
	v.expect(d.Port >= 1 && d.Port <= 65535, "database.port", "must be 1-65535, got %d", d.Port)
	v.expect(d.User != "", "database.user", "must not be empty")
	v.expect(d.Name != "", "database.name", "must not be empty")
	v.expect(oneOf(d.SSLMode, "disable", "require", "verify-ca", "verify-full"),
		"database.sslmode", "must be disable, require, verify-ca or verify-full, got %q", d.SSLMode)
	v.expect(d.MaxConns >= 1, "database.max_conns", "must be >= 1, got %d", d.MaxConns)
	v.expect(d.MinConns >= 0, "database.min_conns", "must be >= 0, got %d", d.MinConns)
	v.expect(d.MinConns <= d.MaxConns, "database.min_conns", "must not exceed database.max_conns")
}

func (l LoggingConfig) check(v *checks) {
	v.expect(oneOf(l.Level, "debug", "info", "warn", "error"), "logging.level", "must be debug, info, warn or error, got %q", l.Level)
	v.expect(oneOf(l.Format, "json", "console"), "logging.format", "must be json or console, got %q", l.Format)
}

func (c ContentConfig) check(v *checks) {
	dirs := []struct{ key, dir string }{
		{"conditions", c.Conditions},
		{"spells", c.Spells},
		{"items", c.Items},
		{"ruleset", c.Ruleset},
		{"monsters", c.Monsters},
	}
	for _, d := range dirs {
		v.expect(d.dir != "", "content."+d.key, "must not be empty")
	}
}

func (c CombatConfig) check(v *checks) {
	v.expect(oneOf(c.Handicap, "", "even", "party_advantage", "monster_advantage"),
		"combat.handicap", "must be even, party_advantage or monster_advantage, got %q", c.Handicap)
	v.expect(c.HealBelow >= 0 && c.HealBelow <= 1, "combat.heal_below", "must be in [0, 1], got %v", c.HealBelow)
	v.expect(c.DefendBelow >= 0 && c.DefendBelow <= 1, "combat.defend_below", "must be in [0, 1], got %v", c.DefendBelow)
}

func (s ScriptingConfig) check(v *checks) {
	v.expect(s.Dir != "", "scripting.dir", "must not be empty")
	v.expect(s.InstructionLimit >= 0, "scripting.instruction_limit", "must be >= 0, got %d", s.InstructionLimit)
}

// defaults apply to every key a file or SKIRMISH_* variable leaves unset.
// Every key must appear here for environment overrides to reach it.
var defaults = map[string]any{
	"database.host":              "localhost",
	"database.port":              5432,
	"database.user":              "skirmish",
	"database.password":          "skirmish",
	"database.name":              "skirmish",
	"database.sslmode":           "disable",
	"database.max_conns":         10,
	"database.min_conns":         2,
	"database.max_conn_lifetime": "1h",

	"logging.level":  "info",
	"logging.format": "json",

	"content.root":       "content",
	"content.conditions": "conditions",
	"content.spells":     "spells",
	"content.items":      "items",
	"content.ruleset":    "ruleset",
	"content.monsters":   "monsters",
	"content.ai":         "ai",

	"combat.seed":                      0,
	"combat.handicap":                  "even",
	"combat.can_flee":                  true,
	"combat.party_flee_ends_encounter": false,
	"combat.outdoors":                  false,
	"combat.heal_below":                0.30,
	"combat.defend_below":              0.50,

	"scripting.dir":               "content/scripts",
	"scripting.instruction_limit": 100_000,
}

// Load reads the YAML file at path (skipped when path is empty), layers
// SKIRMISH_* environment variables over it, fills in defaults and validates.
// SKIRMISH_COMBAT_SEED, for example, overrides combat.seed.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SKIRMISH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// LoadFromViper decodes and validates whatever v already holds.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
