package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/R3E-Network/xrpl_service_layer/internal/fees"
)

// FeeSchedulesFile is the YAML layout of FEE_SCHEDULE_FILE.
type FeeSchedulesFile struct {
	Schedules []fees.Schedule `yaml:"schedules"`
}

// LoadFeeSchedulesFromPath reads schedules from a YAML file and overlays them
// on the defaults. Schedules missing from the file keep their default shares.
func LoadFeeSchedulesFromPath(path string) (map[string]fees.Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fee schedules: %w", err)
	}

	var file FeeSchedulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse fee schedules: %w", err)
	}

	schedules := fees.DefaultSchedules()
	for _, s := range file.Schedules {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("fee schedule file %s: %w", path, err)
		}
		schedules[s.Name] = s
	}
	return schedules, nil
}

// FeeSchedules returns the schedules from FEE_SCHEDULE_FILE, or the defaults
// when no file is configured.
func (c *Config) FeeSchedules() (map[string]fees.Schedule, error) {
	if c.FeeScheduleFile == "" {
		return fees.DefaultSchedules(), nil
	}
	return LoadFeeSchedulesFromPath(c.FeeScheduleFile)
}
