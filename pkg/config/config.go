package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/extract"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/util"
)

// Config is the global application configuration. Defaults come from the
// pipeline packages, an optional YAML file overrides the defaults, and
// SCHEDULER_* environment variables override the file.
var Config AppConfig

const defaultConfigFile = "config.yml"

type AppConfig struct {
	API        APIConfig        `yaml:"api"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Transforms TransformsConfig `yaml:"transforms"`
	Detector   DetectorConfig   `yaml:"detector"`
	Parser     ParserConfig     `yaml:"parser"`
	Validator  ValidatorConfig  `yaml:"validator"`
}

type APIConfig struct {
	Listen string `yaml:"listen" validate:"omitempty,hostname_port"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen" validate:"omitempty,hostname_port"`
}

// TransformsConfig names the YAML rules document applied to extracted
// timepoint names. Empty disables transforms.
type TransformsConfig struct {
	File string `yaml:"file"`
}

type DetectorConfig struct {
	MaxRowsToScan int `yaml:"maxRowsToScan" validate:"gte=0"`
	MinTimePoints int `yaml:"minTimePoints" validate:"gte=0"`
	MaxTimePoints int `yaml:"maxTimePoints" validate:"gte=0"`
}

type ParserConfig struct {
	MaxRowsToProcess         int  `yaml:"maxRowsToProcess" validate:"gte=0"`
	MaxCellsToProcess        int  `yaml:"maxCellsToProcess" validate:"gte=0"`
	MaxMemoryUsageMB         int  `yaml:"maxMemoryUsageMB" validate:"gte=0"`
	ProcessingTimeoutSeconds int  `yaml:"processingTimeoutSeconds" validate:"gte=0"`
	DisableCircuitBreaker    bool `yaml:"disableCircuitBreaker"`
}

type ValidatorConfig struct {
	MinimumTimePoints     int     `yaml:"minimumTimePoints" validate:"gte=0"`
	MinTravelTime         int     `yaml:"minTravelTime" validate:"gte=0"`
	MaxTravelTime         int     `yaml:"maxTravelTime" validate:"gte=0"`
	AllowDuplicates       bool    `yaml:"allowDuplicates"`
	RequireAllConnections bool    `yaml:"requireAllConnections"`
	StrictTimeValidation  bool    `yaml:"strictTimeValidation"`
	DayCoverageRatio      float64 `yaml:"dayCoverageRatio" validate:"gte=0,lte=1"`
	SkipRateThreshold     float64 `yaml:"skipRateThreshold" validate:"gte=0,lte=1"`
}

// Load builds the global Config. A missing config file is fine, a present
// but unreadable or invalid one is an error.
func Load() error {
	Config = defaults()

	path := defaultConfigFile
	env := util.GetEnvironmentVariables()
	if env["SCHEDULER_CONFIG_FILE"] != "" {
		path = env["SCHEDULER_CONFIG_FILE"]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && env["SCHEDULER_CONFIG_FILE"] == "" {
			applyEnvironment(&Config, env)
			return nil
		}
		return err
	}

	// Unknown keys are ignored, the same file can carry settings for other
	// deployments.
	if err := yaml.Unmarshal(data, &Config); err != nil {
		return err
	}

	applyEnvironment(&Config, env)

	if err := validator.New().Struct(Config); err != nil {
		return err
	}

	log.Debug().Str("path", path).Msg("Loaded configuration file")

	return nil
}

func defaults() AppConfig {
	detector := extract.DefaultDetectorOptions()
	parser := extract.DefaultParserOptions()
	validation := extract.DefaultValidatorOptions()

	return AppConfig{
		API:     APIConfig{Listen: "localhost:8080"},
		Metrics: MetricsConfig{Listen: "localhost:2112"},
		Detector: DetectorConfig{
			MaxRowsToScan: detector.MaxRowsToScan,
			MinTimePoints: detector.MinTimePoints,
			MaxTimePoints: detector.MaxTimePoints,
		},
		Parser: ParserConfig{
			MaxRowsToProcess:         parser.MaxRowsToProcess,
			MaxCellsToProcess:        parser.MaxCellsToProcess,
			MaxMemoryUsageMB:         int(parser.MaxMemoryUsage / (1024 * 1024)),
			ProcessingTimeoutSeconds: int(parser.ProcessingTimeout / time.Second),
		},
		Validator: ValidatorConfig{
			MinimumTimePoints: validation.MinimumTimePoints,
			MinTravelTime:     validation.MinTravelTime,
			MaxTravelTime:     validation.MaxTravelTime,
			DayCoverageRatio:  validation.DayCoverageRatio,
			SkipRateThreshold: validation.SkipRateThreshold,
		},
	}
}

func applyEnvironment(config *AppConfig, env map[string]string) {
	if env["SCHEDULER_API_LISTEN"] != "" {
		config.API.Listen = env["SCHEDULER_API_LISTEN"]
	}
	if env["SCHEDULER_METRICS_LISTEN"] != "" {
		config.Metrics.Listen = env["SCHEDULER_METRICS_LISTEN"]
	}
	if env["SCHEDULER_TRANSFORMS_FILE"] != "" {
		config.Transforms.File = env["SCHEDULER_TRANSFORMS_FILE"]
	}
}

// ExtractorOptions assembles the pipeline options the configuration
// describes. The transform hook is attached by the caller.
func (c *AppConfig) ExtractorOptions() extract.ExtractorOptions {
	options := extract.DefaultExtractorOptions()

	options.Detector.MaxRowsToScan = c.Detector.MaxRowsToScan
	options.Detector.MinTimePoints = c.Detector.MinTimePoints
	options.Detector.MaxTimePoints = c.Detector.MaxTimePoints

	options.Parser.MaxRowsToProcess = c.Parser.MaxRowsToProcess
	options.Parser.MaxCellsToProcess = c.Parser.MaxCellsToProcess
	options.Parser.MaxMemoryUsage = uint64(c.Parser.MaxMemoryUsageMB) * 1024 * 1024
	options.Parser.ProcessingTimeout = time.Duration(c.Parser.ProcessingTimeoutSeconds) * time.Second
	options.Parser.EnableCircuitBreaker = !c.Parser.DisableCircuitBreaker

	options.Validator.MinimumTimePoints = c.Validator.MinimumTimePoints
	options.Validator.MinTravelTime = c.Validator.MinTravelTime
	options.Validator.MaxTravelTime = c.Validator.MaxTravelTime
	options.Validator.AllowDuplicates = c.Validator.AllowDuplicates
	options.Validator.RequireAllConnections = c.Validator.RequireAllConnections
	options.Validator.StrictTimeValidation = c.Validator.StrictTimeValidation
	options.Validator.DayCoverageRatio = c.Validator.DayCoverageRatio
	options.Validator.SkipRateThreshold = c.Validator.SkipRateThreshold

	return options
}
