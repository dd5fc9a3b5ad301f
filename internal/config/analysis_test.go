package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadAnalysisConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "tolerance_seconds": 0.002,
  "time_carrier_id": "0x0000000000000304",
  "digital_channel_column": 2,
  "skip_malformed": true,
  "time_resolution": "20ms",
  "clear_on_flat_match": true,
  "speed_units": "knots"
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadAnalysisConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if got := cfg.GetToleranceSeconds(); got != 0.002 {
		t.Errorf("GetToleranceSeconds() = %f, want 0.002", got)
	}
	if got := cfg.GetTimeCarrierID(); got != 0x304 {
		t.Errorf("GetTimeCarrierID() = %#x, want 0x304", got)
	}
	if got := cfg.GetDigitalChannelColumn(); got != 2 {
		t.Errorf("GetDigitalChannelColumn() = %d, want 2", got)
	}
	if !cfg.GetSkipMalformed() {
		t.Error("GetSkipMalformed() = false, want true")
	}
	if got := cfg.GetTimeResolution(); got != 20*time.Millisecond {
		t.Errorf("GetTimeResolution() = %v, want 20ms", got)
	}
	if !cfg.GetClearOnFlatMatch() {
		t.Error("GetClearOnFlatMatch() = false, want true")
	}
	if got := cfg.GetSpeedUnits(); got != "knots" {
		t.Errorf("GetSpeedUnits() = %q, want knots", got)
	}

	// fields left out keep their defaults
	if got := cfg.GetCANDataColumn(); got != 4 {
		t.Errorf("GetCANDataColumn() = %d, want 4", got)
	}
	if got := cfg.GetSpeedResolutionKMPH(); got != 1 {
		t.Errorf("GetSpeedResolutionKMPH() = %f, want 1", got)
	}
}

func TestLoadAnalysisConfigMissing(t *testing.T) {
	_, err := LoadAnalysisConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadAnalysisConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_config.json")

	invalidJSON := `{
  "tolerance_seconds": "invalid"
`
	if err := os.WriteFile(configPath, []byte(invalidJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadAnalysisConfig(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestLoadAnalysisConfigRejectsNonJSON(t *testing.T) {
	_, err := LoadAnalysisConfig("config.yaml")
	if err == nil || !strings.Contains(err.Error(), ".json") {
		t.Errorf("Expected extension error, got %v", err)
	}
}

func TestLoadAnalysisConfigRejectsLargeFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "large.json")
	big := make([]byte, 1024*1024+1)
	for i := range big {
		big[i] = ' '
	}
	if err := os.WriteFile(configPath, big, 0644); err != nil {
		t.Fatalf("Failed to write large config: %v", err)
	}
	if _, err := LoadAnalysisConfig(configPath); err == nil {
		t.Error("Expected error for oversized config, got nil")
	}
}

func TestLoadDefaultConfigFile(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if got := cfg.GetToleranceSeconds(); got != 0.001 {
		t.Errorf("default tolerance = %f, want 0.001", got)
	}
	if got := cfg.GetTimeCarrierID(); got != 0x301 {
		t.Errorf("default time carrier = %#x, want 0x301", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *AnalysisConfig
		wantErr bool
	}{
		{"empty config is valid", &AnalysisConfig{}, false},
		{"negative tolerance", &AnalysisConfig{ToleranceSeconds: ptrFloat64(-0.001)}, true},
		{"bad carrier id", &AnalysisConfig{TimeCarrierID: ptrString("0xnope")}, true},
		{"negative column", &AnalysisConfig{CANDataColumn: ptrInt(-1)}, true},
		{"digital channel on time column", &AnalysisConfig{DigitalChannelColumn: ptrInt(0)}, true},
		{"invalid time resolution", &AnalysisConfig{TimeResolution: ptrString("soon")}, true},
		{"zero time resolution", &AnalysisConfig{TimeResolution: ptrString("0s")}, true},
		{"zero speed resolution", &AnalysisConfig{SpeedResolutionKMPH: ptrFloat64(0)}, true},
		{"negative heading resolution", &AnalysisConfig{HeadingResolutionDeg: ptrFloat64(-1)}, true},
		{"unknown speed units", &AnalysisConfig{SpeedUnits: ptrString("furlongs")}, true},
		{"flags are always valid", &AnalysisConfig{SkipMalformed: ptrBool(true), ClearOnFlatMatch: ptrBool(false)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetterDefaults(t *testing.T) {
	cfg := EmptyAnalysisConfig()
	if cfg.GetToleranceSeconds() != 0.001 {
		t.Errorf("GetToleranceSeconds() = %f, want 0.001", cfg.GetToleranceSeconds())
	}
	if cfg.GetTimeCarrierID() != 0x301 {
		t.Errorf("GetTimeCarrierID() = %#x, want 0x301", cfg.GetTimeCarrierID())
	}
	if cfg.GetDigitalChannelColumn() != 1 {
		t.Errorf("GetDigitalChannelColumn() = %d, want 1", cfg.GetDigitalChannelColumn())
	}
	if cfg.GetCANTypeColumn() != 1 || cfg.GetCANTimeColumn() != 2 || cfg.GetCANIdentifierColumn() != 3 || cfg.GetCANDataColumn() != 4 {
		t.Error("CAN column defaults do not match name,type,start_time,identifier,data")
	}
	if cfg.GetSkipMalformed() {
		t.Error("GetSkipMalformed() = true, want false")
	}
	if cfg.GetTimeResolution() != 10*time.Millisecond {
		t.Errorf("GetTimeResolution() = %v, want 10ms", cfg.GetTimeResolution())
	}
	if cfg.GetHeadingResolutionDeg() != 0.01 {
		t.Errorf("GetHeadingResolutionDeg() = %f, want 0.01", cfg.GetHeadingResolutionDeg())
	}
	if cfg.GetClearOnFlatMatch() {
		t.Error("GetClearOnFlatMatch() = true, want false")
	}
	if cfg.GetSpeedUnits() != "kmph" {
		t.Errorf("GetSpeedUnits() = %q, want kmph", cfg.GetSpeedUnits())
	}
}
