package config

import (
	"fmt"
	"net"
	"strconv"
)

type Config struct {
	Bind           string
	Port           int
	FrontendOrigin string
	ExportFile     string
	Verbose        bool
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.FrontendOrigin == "" {
		return fmt.Errorf("frontend origin must not be empty")
	}
	return nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}
