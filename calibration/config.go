package calibration

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/CK6170/Torquecal-go/models"
)

// LoadConfig reads a JSON config file over the defaults and validates it.
func LoadConfig(path string) (models.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return models.Config{}, errors.Wrapf(err, "reading %s", path)
	}
	return DecodeConfig(b)
}

// DecodeConfig parses a JSON config over the defaults and validates it.
func DecodeConfig(raw []byte) (models.Config, error) {
	cfg := models.DefaultConfig()
	// Keys present in the file replace the defaults wholesale.
	cfg.Steps = nil
	cfg.Directions = nil
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return models.Config{}, errors.Wrap(err, "decoding config")
	}
	def := models.DefaultConfig()
	if cfg.Steps == nil {
		cfg.Steps = def.Steps
	}
	if cfg.Directions == nil {
		cfg.Directions = def.Directions
	}
	if err := cfg.Validate(); err != nil {
		return models.Config{}, err
	}
	return cfg, nil
}

// SaveConfig writes cfg as indented JSON, e.g. after auto-detecting the port.
func SaveConfig(path string, cfg models.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RecordPathFor derives "<config>_record.json" next to a config file.
func RecordPathFor(configPath string) string {
	if strings.HasSuffix(strings.ToLower(configPath), ".json") {
		return configPath[:len(configPath)-len(".json")] + "_record.json"
	}
	return configPath + "_record.json"
}
