package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/can-delay/internal/export"
	"github.com/banshee-data/can-delay/internal/units"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

// AnalysisConfig holds the tunable parameters of one analysis run. Every
// field is optional; the Get* methods supply the default for fields left
// out of the JSON.
type AnalysisConfig struct {
	// Correlation
	ToleranceSeconds *float64 `json:"tolerance_seconds,omitempty"`
	TimeCarrierID    *string  `json:"time_carrier_id,omitempty"` // hex string like "0x301"

	// Export column layout
	DigitalChannelColumn *int `json:"digital_channel_column,omitempty"`
	CANTypeColumn        *int `json:"can_type_column,omitempty"`
	CANTimeColumn        *int `json:"can_time_column,omitempty"`
	CANIdentifierColumn  *int `json:"can_identifier_column,omitempty"`
	CANDataColumn        *int `json:"can_data_column,omitempty"`

	// Row handling
	SkipMalformed *bool `json:"skip_malformed,omitempty"`

	// Delay tracker
	TimeResolution       *string  `json:"time_resolution,omitempty"` // duration string like "10ms"
	SpeedResolutionKMPH  *float64 `json:"speed_resolution_kmph,omitempty"`
	HeadingResolutionDeg *float64 `json:"heading_resolution_deg,omitempty"`
	ClearOnFlatMatch     *bool    `json:"clear_on_flat_match,omitempty"`

	// Reporting
	SpeedUnits *string `json:"speed_units,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyAnalysisConfig returns an AnalysisConfig with all fields nil, so
// every getter returns its default.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted
// from the file keep their defaults, so partial configs are safe.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/can-delay/ and deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadAnalysisConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *AnalysisConfig) Validate() error {
	if c.ToleranceSeconds != nil && *c.ToleranceSeconds < 0 {
		return fmt.Errorf("tolerance_seconds must be non-negative, got %f", *c.ToleranceSeconds)
	}

	if c.TimeCarrierID != nil {
		if _, err := export.ParseHex(*c.TimeCarrierID, 32); err != nil {
			return fmt.Errorf("invalid time_carrier_id %q: %w", *c.TimeCarrierID, err)
		}
	}

	columns := map[string]*int{
		"digital_channel_column": c.DigitalChannelColumn,
		"can_type_column":        c.CANTypeColumn,
		"can_time_column":        c.CANTimeColumn,
		"can_identifier_column":  c.CANIdentifierColumn,
		"can_data_column":        c.CANDataColumn,
	}
	for name, col := range columns {
		if col != nil && *col < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", name, *col)
		}
	}
	// the digital export always carries time in column 0
	if c.DigitalChannelColumn != nil && *c.DigitalChannelColumn == 0 {
		return fmt.Errorf("digital_channel_column 0 is the time column")
	}

	if c.TimeResolution != nil && *c.TimeResolution != "" {
		d, err := time.ParseDuration(*c.TimeResolution)
		if err != nil {
			return fmt.Errorf("invalid time_resolution '%s': %w", *c.TimeResolution, err)
		}
		if d <= 0 {
			return fmt.Errorf("time_resolution must be positive, got %s", d)
		}
	}
	if c.SpeedResolutionKMPH != nil && *c.SpeedResolutionKMPH <= 0 {
		return fmt.Errorf("speed_resolution_kmph must be positive, got %f", *c.SpeedResolutionKMPH)
	}
	if c.HeadingResolutionDeg != nil && *c.HeadingResolutionDeg <= 0 {
		return fmt.Errorf("heading_resolution_deg must be positive, got %f", *c.HeadingResolutionDeg)
	}

	if c.SpeedUnits != nil && !units.IsValid(*c.SpeedUnits) {
		return fmt.Errorf("invalid speed_units %q", *c.SpeedUnits)
	}

	return nil
}

// GetToleranceSeconds returns the tolerance_seconds value or the default.
func (c *AnalysisConfig) GetToleranceSeconds() float64 {
	if c.ToleranceSeconds == nil {
		return 0.001
	}
	return *c.ToleranceSeconds
}

// GetTimeCarrierID returns the time_carrier_id value or the default.
func (c *AnalysisConfig) GetTimeCarrierID() uint32 {
	if c.TimeCarrierID == nil {
		return 0x301
	}
	v, err := export.ParseHex(*c.TimeCarrierID, 32)
	if err != nil {
		return 0x301 // default on parse error
	}
	return uint32(v)
}

// GetDigitalChannelColumn returns the digital_channel_column value or the default.
func (c *AnalysisConfig) GetDigitalChannelColumn() int {
	if c.DigitalChannelColumn == nil {
		return 1
	}
	return *c.DigitalChannelColumn
}

// GetCANTypeColumn returns the can_type_column value or the default.
func (c *AnalysisConfig) GetCANTypeColumn() int {
	if c.CANTypeColumn == nil {
		return 1
	}
	return *c.CANTypeColumn
}

// GetCANTimeColumn returns the can_time_column value or the default.
func (c *AnalysisConfig) GetCANTimeColumn() int {
	if c.CANTimeColumn == nil {
		return 2
	}
	return *c.CANTimeColumn
}

// GetCANIdentifierColumn returns the can_identifier_column value or the default.
func (c *AnalysisConfig) GetCANIdentifierColumn() int {
	if c.CANIdentifierColumn == nil {
		return 3
	}
	return *c.CANIdentifierColumn
}

// GetCANDataColumn returns the can_data_column value or the default.
func (c *AnalysisConfig) GetCANDataColumn() int {
	if c.CANDataColumn == nil {
		return 4
	}
	return *c.CANDataColumn
}

// GetSkipMalformed returns the skip_malformed value or the default.
func (c *AnalysisConfig) GetSkipMalformed() bool {
	if c.SkipMalformed == nil {
		return false // default: fail on the first bad row
	}
	return *c.SkipMalformed
}

// GetTimeResolution parses and returns the TimeResolution as a time.Duration.
func (c *AnalysisConfig) GetTimeResolution() time.Duration {
	if c.TimeResolution == nil || *c.TimeResolution == "" {
		return 10 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.TimeResolution)
	if err != nil || d <= 0 {
		return 10 * time.Millisecond // default on parse error
	}
	return d
}

// GetSpeedResolutionKMPH returns the speed_resolution_kmph value or the default.
func (c *AnalysisConfig) GetSpeedResolutionKMPH() float64 {
	if c.SpeedResolutionKMPH == nil {
		return 1
	}
	return *c.SpeedResolutionKMPH
}

// GetHeadingResolutionDeg returns the heading_resolution_deg value or the default.
func (c *AnalysisConfig) GetHeadingResolutionDeg() float64 {
	if c.HeadingResolutionDeg == nil {
		return 0.01
	}
	return *c.HeadingResolutionDeg
}

// GetClearOnFlatMatch returns the clear_on_flat_match value or the default.
func (c *AnalysisConfig) GetClearOnFlatMatch() bool {
	if c.ClearOnFlatMatch == nil {
		return false
	}
	return *c.ClearOnFlatMatch
}

// GetSpeedUnits returns the speed_units value or the default.
func (c *AnalysisConfig) GetSpeedUnits() string {
	if c.SpeedUnits == nil {
		return units.KMPH
	}
	return *c.SpeedUnits
}
