// Package config loads the application configuration from defaults, command
// line flags, a .env file and environment variables, in increasing
// precedence, and validates the result.
package config

import (
	"flag"
	"log"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the service.
type Config struct {
	// RunAddr is the address the HTTP server listens on.
	RunAddr string `env:"SERVER_ADDRESS" validate:"hostname_port"`

	// ShortURLBase is the public base used when formatting short URLs.
	ShortURLBase string `env:"BASE_URL" validate:"url"`

	// LogLevel is the zap level name.
	LogLevel string `env:"LOG_LEVEL" validate:"loglevel"`

	// SessionCookieName is the cookie carrying the signed session token.
	SessionCookieName string `env:"SESSION_COOKIE_NAME" validate:"required"`

	// SessionSigningSecretKey is the base64-encoded HS256 key for session
	// tokens. The default is for local development only.
	SessionSigningSecretKey string `env:"SESSION_SIGNING_KEY" validate:"required,base64"`

	// TrustedSubnet is the CIDR allowed to call the internal stats
	// endpoint. Empty disables the endpoint.
	TrustedSubnet string `env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[fieldLevel.Field().String()]
}

func (cfg *Config) validate() error {
	validate := validator.New()

	if err := validate.RegisterValidation("loglevel", validateLogLevel); err != nil {
		return err
	}

	return validate.Struct(cfg)
}

// InitOption customizes config loading.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing skips command line parsing; tests use it because
// the go test runner owns the flag set.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// New loads and validates the configuration.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	cfg := &Config{
		RunAddr:                 ":8080",
		ShortURLBase:            "http://localhost:8080",
		LogLevel:                "info",
		SessionCookieName:       "tinylink_session",
		SessionSigningSecretKey: "c2Vzc2lvbi1zaWduaW5nLXNlY3JldC1rZXk=",
		TrustedSubnet:           "",
	}

	if !options.disableFlagsParsing {
		flag.StringVar(&cfg.RunAddr, "a", cfg.RunAddr, "address and port to run server")
		flag.StringVar(&cfg.ShortURLBase, "b", cfg.ShortURLBase, "base address of the resulting shortened URL")
		flag.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "logger level")
		flag.StringVar(&cfg.TrustedSubnet, "t", cfg.TrustedSubnet, "CIDR of the subnet trusted to read internal stats")
		flag.Parse()
	}

	var valuesFromEnv Config
	if err := env.Parse(&valuesFromEnv); err != nil {
		return nil, err
	}

	if valuesFromEnv.RunAddr != "" {
		cfg.RunAddr = valuesFromEnv.RunAddr
	}
	if valuesFromEnv.ShortURLBase != "" {
		cfg.ShortURLBase = valuesFromEnv.ShortURLBase
	}
	if valuesFromEnv.LogLevel != "" {
		cfg.LogLevel = valuesFromEnv.LogLevel
	}
	if valuesFromEnv.SessionCookieName != "" {
		cfg.SessionCookieName = valuesFromEnv.SessionCookieName
	}
	if valuesFromEnv.SessionSigningSecretKey != "" {
		cfg.SessionSigningSecretKey = valuesFromEnv.SessionSigningSecretKey
	}
	if valuesFromEnv.TrustedSubnet != "" {
		cfg.TrustedSubnet = valuesFromEnv.TrustedSubnet
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
