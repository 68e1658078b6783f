package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOSC(); err != nil {
		return err
	}
	if err := c.validateModel(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateOSC() error {
	if _, _, err := net.SplitHostPort(c.OSC.Bind); err != nil {
		return fmt.Errorf("osc.bind %q is not a host:port address: %w", c.OSC.Bind, err)
	}
	for _, target := range c.OSC.ForwardTargets {
		if _, _, err := net.SplitHostPort(target); err != nil {
			return fmt.Errorf("osc.forward_targets entry %q is not a host:port address: %w", target, err)
		}
	}
	return nil
}

func (c *Config) validateModel() error {
	if !strings.HasPrefix(c.Model.BaseURL, "http://") && !strings.HasPrefix(c.Model.BaseURL, "https://") {
		return fmt.Errorf("model.base_url %q must start with http:// or https://", c.Model.BaseURL)
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return errors.New("model.temperature must be between 0 and 2")
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.FrameRate > 240 {
		return errors.New("engine.frame_rate must be 240 or lower")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	return nil
}
