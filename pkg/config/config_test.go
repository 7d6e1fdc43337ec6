package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearSchedulerEnv blanks the environment variables Load reads so a
// developer's shell cannot leak into the assertions.
func clearSchedulerEnv(t *testing.T) {
	t.Helper()

	for _, name := range []string{
		"SCHEDULER_CONFIG_FILE",
		"SCHEDULER_API_LISTEN",
		"SCHEDULER_METRICS_LISTEN",
		"SCHEDULER_TRANSFORMS_FILE",
	} {
		t.Setenv(name, "")
	}
}

func writeConfigFile(t *testing.T, document string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(document), 0644); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	return path
}

func TestLoadDefaults(t *testing.T) {
	clearSchedulerEnv(t)

	if err := Load(); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if Config.API.Listen != "localhost:8080" {
		t.Errorf("API.Listen = %q", Config.API.Listen)
	}
	if Config.Metrics.Listen != "localhost:2112" {
		t.Errorf("Metrics.Listen = %q", Config.Metrics.Listen)
	}
	if Config.Detector.MaxRowsToScan != 5 || Config.Detector.MinTimePoints != 2 {
		t.Errorf("detector defaults = %+v", Config.Detector)
	}
	if Config.Parser.MaxRowsToProcess != 500 || Config.Parser.MaxCellsToProcess != 10000 {
		t.Errorf("parser defaults = %+v", Config.Parser)
	}
	if Config.Parser.MaxMemoryUsageMB != 50 || Config.Parser.ProcessingTimeoutSeconds != 30 {
		t.Errorf("parser budget defaults = %+v", Config.Parser)
	}
	if Config.Validator.MaxTravelTime != 120 || Config.Validator.DayCoverageRatio != 0.5 {
		t.Errorf("validator defaults = %+v", Config.Validator)
	}
	if Config.Transforms.File != "" {
		t.Errorf("Transforms.File = %q, want empty", Config.Transforms.File)
	}
}

func TestLoadReadsYAMLFile(t *testing.T) {
	clearSchedulerEnv(t)

	path := writeConfigFile(t, strings.Join([]string{
		"api:",
		"  listen: 127.0.0.1:9090",
		"parser:",
		"  maxRowsToProcess: 100",
		"validator:",
		"  maxTravelTime: 90",
	}, "\n"))
	t.Setenv("SCHEDULER_CONFIG_FILE", path)

	if err := Load(); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if Config.API.Listen != "127.0.0.1:9090" {
		t.Errorf("API.Listen = %q", Config.API.Listen)
	}
	if Config.Parser.MaxRowsToProcess != 100 {
		t.Errorf("Parser.MaxRowsToProcess = %d", Config.Parser.MaxRowsToProcess)
	}
	if Config.Validator.MaxTravelTime != 90 {
		t.Errorf("Validator.MaxTravelTime = %d", Config.Validator.MaxTravelTime)
	}

	// Keys absent from the file keep their defaults.
	if Config.Metrics.Listen != "localhost:2112" {
		t.Errorf("Metrics.Listen = %q", Config.Metrics.Listen)
	}
	if Config.Parser.MaxCellsToProcess != 10000 {
		t.Errorf("Parser.MaxCellsToProcess = %d", Config.Parser.MaxCellsToProcess)
	}
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	clearSchedulerEnv(t)

	path := writeConfigFile(t, strings.Join([]string{
		"api:",
		"  listen: 127.0.0.1:9090",
	}, "\n"))
	t.Setenv("SCHEDULER_CONFIG_FILE", path)
	t.Setenv("SCHEDULER_API_LISTEN", "0.0.0.0:3000")
	t.Setenv("SCHEDULER_TRANSFORMS_FILE", "rules.yml")

	if err := Load(); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if Config.API.Listen != "0.0.0.0:3000" {
		t.Errorf("API.Listen = %q, want the environment value", Config.API.Listen)
	}
	if Config.Transforms.File != "rules.yml" {
		t.Errorf("Transforms.File = %q", Config.Transforms.File)
	}
}

func TestLoadMissingNamedFileErrors(t *testing.T) {
	clearSchedulerEnv(t)
	t.Setenv("SCHEDULER_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yml"))

	if err := Load(); err == nil {
		t.Fatal("an explicitly named missing config file must error")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearSchedulerEnv(t)

	path := writeConfigFile(t, strings.Join([]string{
		"validator:",
		"  dayCoverageRatio: 3",
	}, "\n"))
	t.Setenv("SCHEDULER_CONFIG_FILE", path)

	if err := Load(); err == nil {
		t.Fatal("a coverage ratio above 1 must fail validation")
	}
}

func TestExtractorOptionsMapping(t *testing.T) {
	clearSchedulerEnv(t)

	path := writeConfigFile(t, strings.Join([]string{
		"parser:",
		"  maxRowsToProcess: 200",
		"  maxCellsToProcess: 4000",
		"  maxMemoryUsageMB: 10",
		"  processingTimeoutSeconds: 5",
		"  disableCircuitBreaker: true",
		"validator:",
		"  minimumTimePoints: 3",
		"  maxTravelTime: 60",
		"  strictTimeValidation: true",
	}, "\n"))
	t.Setenv("SCHEDULER_CONFIG_FILE", path)

	if err := Load(); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	options := Config.ExtractorOptions()

	if options.Parser.MaxRowsToProcess != 200 || options.Parser.MaxCellsToProcess != 4000 {
		t.Errorf("parser budgets = %+v", options.Parser)
	}
	if options.Parser.MaxMemoryUsage != 10*1024*1024 {
		t.Errorf("MaxMemoryUsage = %d, want 10MiB", options.Parser.MaxMemoryUsage)
	}
	if options.Parser.ProcessingTimeout != 5*time.Second {
		t.Errorf("ProcessingTimeout = %s", options.Parser.ProcessingTimeout)
	}
	if options.Parser.EnableCircuitBreaker {
		t.Error("disableCircuitBreaker was not honoured")
	}
	if options.Validator.MinimumTimePoints != 3 || options.Validator.MaxTravelTime != 60 {
		t.Errorf("validator options = %+v", options.Validator)
	}
	if !options.Validator.StrictTimeValidation {
		t.Error("strictTimeValidation was not honoured")
	}
}
