package app

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/Pflanzmann/SharkShiver/internal/crypto"
)

const configFilename = "config.yaml"

// Config holds runtime wiring options for building the app.
type Config struct {
	Home string       `yaml:"-"` // config directory, e.g. $HOME/.shiver
	HTTP *http.Client `yaml:"-"` // optional; built from HTTPTimeout when nil

	PeerID   string `yaml:"peer_id"`
	RelayURL string `yaml:"relay_url"`

	// DHGroup is modp2048, x25519 or custom. Custom groups take hex-encoded
	// DHPrime and DHGenerator.
	DHGroup        string `yaml:"dh_group"`
	DHPrime        string `yaml:"dh_prime,omitempty"`
	DHGenerator    string `yaml:"dh_generator,omitempty"`
	DHExponentBits int    `yaml:"dh_exponent_bits,omitempty"`

	ManualAccept bool          `yaml:"manual_accept"`
	LogLevel     string        `yaml:"log_level"`
	HTTPTimeout  time.Duration `yaml:"http_timeout"`
	SendRetries  uint64        `yaml:"send_retries"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig(home string) Config {
	return Config{
		Home:        home,
		RelayURL:    "http://127.0.0.1:8080",
		DHGroup:     crypto.GroupMODP2048,
		LogLevel:    "info",
		HTTPTimeout: 10 * time.Second,
		SendRetries: 3,
	}
}

// LoadConfig reads <home>/config.yaml on top of the defaults. A missing file
// yields the defaults.
func LoadConfig(home string) (Config, error) {
	cfg := DefaultConfig(home)
	b, err := os.ReadFile(filepath.Join(home, configFilename))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Home = home
	return cfg, cfg.Validate()
}

// Save writes the configuration to <home>/config.yaml.
func (c Config) Save() error {
	if err := os.MkdirAll(c.Home, 0o700); err != nil {
		return err
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.Home, configFilename), b, 0o600)
}

// Validate checks the fields that cannot be defaulted.
func (c Config) Validate() error {
	if _, err := c.Group(); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout must not be negative")
	}
	return nil
}

// Group resolves the configured DH group.
func (c Config) Group() (crypto.Group, error) {
	if c.DHGroup != crypto.GroupCustom {
		return crypto.GroupByName(c.DHGroup, nil)
	}
	bits := c.DHExponentBits
	if bits == 0 {
		bits = crypto.DefaultDHParameters().ExponentBits
	}
	params, err := crypto.ParseDHParameters(c.DHPrime, c.DHGenerator, bits)
	if err != nil {
		return nil, err
	}
	return crypto.GroupByName(crypto.GroupCustom, &params)
}

// Logger builds the process logger at the configured level.
func (c Config) Logger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		l.SetLevel(lvl)
	}
	return l
}

func (c Config) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: c.HTTPTimeout}
}
