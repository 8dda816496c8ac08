package core

import (
	"fmt"
	"strings"
	"time"
)

type TokenConfig struct {
	RequestTTL time.Duration `koanf:"request_ttl" mapstructure:"request_ttl"`
	AccessTTL  time.Duration `koanf:"access_ttl" mapstructure:"access_ttl"`
}

type Config struct {
	ServiceName string      `koanf:"service_name" mapstructure:"service_name"`
	Tokens      TokenConfig `koanf:"tokens" mapstructure:"tokens"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "authflow",
		Tokens: TokenConfig{
			RequestTTL: 15 * time.Minute,
			AccessTTL:  24 * time.Hour,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Tokens.RequestTTL <= 0 {
		return fmt.Errorf("core: tokens.request_ttl must be positive")
	}
	if c.Tokens.AccessTTL <= 0 {
		return fmt.Errorf("core: tokens.access_ttl must be positive")
	}
	if c.Tokens.AccessTTL < c.Tokens.RequestTTL {
		return fmt.Errorf("core: tokens.access_ttl must not be shorter than tokens.request_ttl")
	}
	return nil
}
