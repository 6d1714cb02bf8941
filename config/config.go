package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"forgechain/crypto"

	"github.com/BurntSushi/toml"
)

// Config carries the daemon settings. Chain parameters (daily limit, fees)
// live in ledger state and are adjusted through owner operations, not here.
type Config struct {
	ListenAddress   string `toml:"ListenAddress"`
	DataDir         string `toml:"DataDir"`
	NetworkName     string `toml:"NetworkName"`
	Owner           string `toml:"Owner"`
	Operator        string `toml:"Operator"`
	TemplateTokenID string `toml:"TemplateTokenId"`
	EventBuffer     int    `toml:"EventBuffer"`
}

// Load loads the configuration from the given path, creating a commented
// default file when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8546"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./forged-data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "forge-local"
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 4096
	}
}

// Validate checks the address fields decode and the required roles are set.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Owner) == "" {
		return fmt.Errorf("config: Owner address is required")
	}
	if _, err := crypto.DecodeAddress(c.Owner); err != nil {
		return fmt.Errorf("config: invalid Owner address: %w", err)
	}
	if strings.TrimSpace(c.Operator) == "" {
		return fmt.Errorf("config: Operator address is required")
	}
	if _, err := crypto.DecodeAddress(c.Operator); err != nil {
		return fmt.Errorf("config: invalid Operator address: %w", err)
	}
	return nil
}

// OwnerAddress returns the decoded owner account.
func (c *Config) OwnerAddress() ([20]byte, error) {
	return decode20(c.Owner)
}

// OperatorAddress returns the decoded operator account.
func (c *Config) OperatorAddress() ([20]byte, error) {
	return decode20(c.Operator)
}

func decode20(addr string) ([20]byte, error) {
	var out [20]byte
	decoded, err := crypto.DecodeAddress(addr)
	if err != nil {
		return out, err
	}
	copy(out[:], decoded.Bytes())
	return out, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, "# forged configuration. Owner and Operator must be set before first start."); err != nil {
		return nil, err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("config: wrote default config to %s; set Owner and Operator and restart", path)
}
