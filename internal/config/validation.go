package config

import "fmt"

func validate(c *Config) error {
	if c.MaxLeadsPerCity <= 0 {
		return fmt.Errorf("max leads per city must be > 0")
	}
	if c.CityBatchSize <= 0 {
		return fmt.Errorf("city batch size must be > 0")
	}
	if c.PhaseAttempts <= 0 {
		return fmt.Errorf("phase attempts must be > 0")
	}
	if c.PageLoadTimeout <= 0 || c.ScriptTimeout <= 0 {
		return fmt.Errorf("browser timeouts must be > 0")
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		return fmt.Errorf("window dimensions must be > 0")
	}
	return nil
}
