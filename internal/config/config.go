// Package config provides Viper-based configuration loading for the relay and
// participant processes.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
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

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// RelayConfig holds the session relay settings shared by the relay server and
// the participant clients that dial it.
type RelayConfig struct {
	// Host is the bind address for the relay HTTP listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the relay HTTP listener.
	Port int `mapstructure:"port"`
	// URL is the websocket URL participants dial, e.g. "ws://127.0.0.1:7070/ws".
	URL string `mapstructure:"url"`
	// JoinKeyHash is the bcrypt hash of the table's join key. Empty disables the check.
	JoinKeyHash string `mapstructure:"join_key_hash"`
	// JoinKey is the plain join key a participant presents when dialing.
	JoinKey string `mapstructure:"join_key"`
	// WriteTimeout bounds each websocket write.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// GRPCPort is the TCP port for the gRPC health service. 0 disables it.
	GRPCPort int `mapstructure:"grpc_port"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (r RelayConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// GRPCAddr returns the "host:port" address of the health service.
func (r RelayConfig) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.GRPCPort)
}

// ParticipantConfig identifies the participant a process acts for.
type ParticipantConfig struct {
	// ID is the participant's unique identifier within the table.
	ID string `mapstructure:"id"`
	// Name is the display name.
	Name string `mapstructure:"name"`
	// Role is "gm" or "player".
	Role string `mapstructure:"role"`
	// CharacterID is the entity assigned to this participant as their primary character.
	CharacterID string `mapstructure:"character_id"`
	// Bennies is the participant's starting benny pool when none is persisted.
	Bennies int `mapstructure:"bennies"`
}

// IsAuthority reports whether the participant acts as game master.
func (p ParticipantConfig) IsAuthority() bool {
	return p.Role == "gm"
}

// StoreConfig selects the entity store backend.
type StoreConfig struct {
	// Backend is "memory" or "postgres".
	Backend string `mapstructure:"backend"`
	// SeedDir is the directory of entity YAML files loaded by the memory backend.
	SeedDir string `mapstructure:"seed_dir"`
}

// RulesConfig holds the setting rules consulted while resolving damage.
type RulesConfig struct {
	WoundCap          bool   `mapstructure:"wound_cap"`
	GrittyDamage      bool   `mapstructure:"gritty_damage"`
	UnarmoredHero     bool   `mapstructure:"unarmored_hero"`
	InjuryTable       string `mapstructure:"injury_table"`
	HideDefenseValues bool   `mapstructure:"hide_defense_values"`
}

// ContentConfig locates the YAML and Lua content directories.
type ContentConfig struct {
	ConditionsDir          string `mapstructure:"conditions_dir"`
	InjuryTablesDir        string `mapstructure:"injury_tables_dir"`
	ScriptsDir             string `mapstructure:"scripts_dir"`
	ScriptInstructionLimit int    `mapstructure:"script_instruction_limit"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Database    DatabaseConfig    `mapstructure:"database"`
	Relay       RelayConfig       `mapstructure:"relay"`
	Participant ParticipantConfig `mapstructure:"participant"`
	Store       StoreConfig       `mapstructure:"store"`
	Rules       RulesConfig       `mapstructure:"rules"`
	Content     ContentConfig     `mapstructure:"content"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if c.Store.Backend == "postgres" {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateRelay(c.Relay); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateParticipant(c.Participant); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStore(c.Store); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateRules(c.Rules); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateRelay(r RelayConfig) error {
	var errs []string
	if r.Port < 1 || r.Port > 65535 {
		errs = append(errs, fmt.Sprintf("relay.port must be 1-65535, got %d", r.Port))
	}
	if r.GRPCPort < 0 || r.GRPCPort > 65535 {
		errs = append(errs, fmt.Sprintf("relay.grpc_port must be 0-65535, got %d", r.GRPCPort))
	}
	if r.WriteTimeout < 0 {
		errs = append(errs, "relay.write_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateParticipant(p ParticipantConfig) error {
	if p.Role == "" {
		return nil
	}
	if p.Role != "gm" && p.Role != "player" {
		return fmt.Errorf("participant.role must be one of [gm, player], got %q", p.Role)
	}
	if p.ID == "" {
		return errors.New("participant.id must not be empty when participant.role is set")
	}
	return nil
}

func validateStore(s StoreConfig) error {
	validBackends := map[string]bool{"memory": true, "postgres": true}
	if !validBackends[s.Backend] {
		return fmt.Errorf("store.backend must be one of [memory, postgres], got %q", s.Backend)
	}
	return nil
}

func validateRules(r RulesConfig) error {
	if r.GrittyDamage && r.InjuryTable == "" {
		return errors.New("rules.injury_table must be set when rules.gritty_damage is enabled")
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. The returned Viper instance stays live so
// that a RuleSource can keep reading the rules section from it.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, *viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with TD_ prefix
	v.SetEnvPrefix("TD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := LoadFromViper(v)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, v, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
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

// NewViper returns a Viper instance with the defaults applied and no file attached.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "td")
	v.SetDefault("database.password", "td")
	v.SetDefault("database.name", "td")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("relay.host", "0.0.0.0")
	v.SetDefault("relay.port", 7070)
	v.SetDefault("relay.url", "ws://127.0.0.1:7070/ws")
	v.SetDefault("relay.write_timeout", "10s")
	v.SetDefault("relay.grpc_port", 0)

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.seed_dir", "content/entities")

	v.SetDefault("rules.wound_cap", false)
	v.SetDefault("rules.gritty_damage", false)
	v.SetDefault("rules.unarmored_hero", false)
	v.SetDefault("rules.injury_table", "")
	v.SetDefault("rules.hide_defense_values", false)

	v.SetDefault("content.conditions_dir", "content/conditions")
	v.SetDefault("content.injury_tables_dir", "content/injuries")
	v.SetDefault("content.scripts_dir", "")
	v.SetDefault("content.script_instruction_limit", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
