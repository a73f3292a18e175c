package main

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/holiman/uint256"

	"github.com/salenode/salenode/core/types"
)

// Config is the service configuration, loaded from the environment.
type Config struct {
	// HTTPAddr is the listen address of the JSON-RPC server.
	HTTPAddr string `env:"SALE_HTTP_ADDR" envDefault:":8545"`

	// DBPath is the SQLite file backing events, receipts, and snapshots.
	// Empty disables persistence.
	DBPath string `env:"SALE_DB_PATH" envDefault:"salenode.db"`

	// Owner is the hex address of the contract owner and genesis holder.
	Owner string `env:"SALE_OWNER"`

	// TotalSupply is the token supply minted to the owner, in decimal.
	TotalSupply string `env:"SALE_SUPPLY" envDefault:"1000000"`

	// RevealPeriod is the commit-to-reveal delay in seconds.
	RevealPeriod int64 `env:"SALE_REVEAL_PERIOD" envDefault:"600"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"SALE_LOG_LEVEL" envDefault:"info"`

	// Metrics enables the /metrics exposition endpoint.
	Metrics bool `env:"SALE_METRICS" envDefault:"true"`
}

// LoadConfig parses the configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration before any work is done.
func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("http listen address is required")
	}
	if c.Owner == "" {
		return errors.New("SALE_OWNER is required")
	}
	if types.HexToAddress(c.Owner).IsZero() {
		return fmt.Errorf("SALE_OWNER is not a valid address: %s", c.Owner)
	}
	if _, err := c.Supply(); err != nil {
		return err
	}
	if c.RevealPeriod <= 0 {
		return errors.New("SALE_REVEAL_PERIOD must be positive")
	}
	return nil
}

// OwnerAddress returns the parsed owner address.
func (c Config) OwnerAddress() types.Address {
	return types.HexToAddress(c.Owner)
}

// Supply returns the parsed total supply.
func (c Config) Supply() (*uint256.Int, error) {
	supply, err := uint256.FromDecimal(c.TotalSupply)
	if err != nil {
		return nil, fmt.Errorf("SALE_SUPPLY is not a valid amount: %s", c.TotalSupply)
	}
	if supply.IsZero() {
		return nil, errors.New("SALE_SUPPLY must be positive")
	}
	return supply, nil
}
