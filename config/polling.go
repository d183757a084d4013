package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type PeakWindow struct {
	Name  string `yaml:"name"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// PollingConfig drives the admin order board cadence.
type PollingConfig struct {
	Location       string        `yaml:"location"`
	PeakInterval   time.Duration `yaml:"peak_interval"`
	QuietInterval  time.Duration `yaml:"quiet_interval"`
	Interval       time.Duration `yaml:"interval"`
	QuietThreshold int           `yaml:"quiet_threshold"`
	PeakWindows    []PeakWindow  `yaml:"peak_windows"`
}

func DefaultPollingConfig() PollingConfig {
	return PollingConfig{
		Location:       "Local",
		PeakInterval:   3 * time.Second,
		QuietInterval:  10 * time.Second,
		Interval:       5 * time.Second,
		QuietThreshold: 2,
		PeakWindows: []PeakWindow{
			{Name: "breakfast", Start: "07:30", End: "09:30"},
			{Name: "lunch", Start: "12:00", End: "14:00"},
			{Name: "evening", Start: "18:00", End: "20:30"},
		},
	}
}

// LoadPollingConfig reads path over the defaults. A missing file yields the defaults.
func LoadPollingConfig(path string) (PollingConfig, error) {
	cfg := DefaultPollingConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read polling config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse polling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c PollingConfig) Validate() error {
	if c.PeakInterval <= 0 || c.QuietInterval <= 0 || c.Interval <= 0 {
		return errors.New("polling intervals must be positive")
	}
	if c.QuietThreshold < 0 {
		return errors.New("quiet_threshold must not be negative")
	}
	return nil
}

func (c PollingConfig) TimeLocation() (*time.Location, error) {
	if c.Location == "" || c.Location == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Location)
}
