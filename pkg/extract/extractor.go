package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/grid"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/schedule"
)

// TimePointTransform lets callers hook canonicalisation rules in between
// parsing and validation.
type TimePointTransform func([]schedule.TimePoint) []schedule.TimePoint

type ExtractorOptions struct {
	Detector  DetectorOptions
	Parser    ParserOptions
	Validator ValidatorOptions

	SkipValidation   bool
	StrictValidation bool

	// OverallTimeout races the whole pipeline, decode included.
	OverallTimeout time.Duration

	Transform TimePointTransform
}

func DefaultExtractorOptions() ExtractorOptions {
	return ExtractorOptions{
		Detector:       DefaultDetectorOptions(),
		Parser:         DefaultParserOptions(),
		Validator:      DefaultValidatorOptions(),
		OverallTimeout: 30 * time.Second,
	}
}

type ExtractionMetadata struct {
	FileName         string    `groups:"basic" bson:"fileName,omitempty"`
	ProcessingTimeMs int64     `groups:"basic" bson:"processingTimeMs"`
	ExtractedAt      time.Time `groups:"basic" bson:"extractedAt"`
}

// ExtractionResult is the orchestrator's only output shape. Failures of any
// kind end up in Error with Success false; the orchestrator never panics or
// returns a Go error across this boundary.
type ExtractionResult struct {
	Success    bool               `groups:"basic" bson:"success"`
	Data       *ParsedSchedule    `groups:"basic" bson:"data,omitempty"`
	Validation *ValidationResult  `groups:"basic" bson:"validation,omitempty"`
	Error      string             `groups:"basic" bson:"error,omitempty"`
	Metadata   ExtractionMetadata `groups:"basic" bson:"metadata"`
}

// EnforceStrict demotes a result whose validation carries critical issues to
// a failure. Callers that decide strictness per run use this instead of the
// StrictValidation option.
func (r *ExtractionResult) EnforceStrict() {
	if r.Validation == nil || !r.Validation.HasCritical() {
		return
	}

	var messages []string
	for _, issue := range r.Validation.Errors {
		if issue.Severity == SeverityCritical {
			messages = append(messages, issue.Message)
		}
	}

	r.Success = false
	r.Error = strings.Join(messages, "; ")
}

// Extractor runs the detect, parse, validate pipeline end to end. It owns
// the circuit breaker, so concurrent extractions share one failure budget.
type Extractor struct {
	options ExtractorOptions
	breaker *CircuitBreaker
	parser  *Parser
}

func NewExtractor(options ExtractorOptions) *Extractor {
	if options.OverallTimeout <= 0 {
		options.OverallTimeout = 30 * time.Second
	}

	breaker := NewCircuitBreaker(circuitFailureThreshold, circuitFailureWindow)

	return &Extractor{
		options: options,
		breaker: breaker,
		parser:  NewParser(options.Parser, breaker),
	}
}

// Breaker exposes the shared circuit breaker, mainly so operational metrics
// can report on it.
func (e *Extractor) Breaker() *CircuitBreaker {
	return e.breaker
}

// ExtractFile decodes raw workbook or CSV bytes and runs the pipeline.
func (e *Extractor) ExtractFile(data []byte, fileName string) *ExtractionResult {
	return e.run(fileName, func() *ExtractionResult {
		rows, err := grid.DecodeWorkbook(data, fileName)
		if err != nil {
			return &ExtractionResult{Error: err.Error()}
		}

		return e.pipeline(rows.Strings(), fileName)
	})
}

// ExtractGrid runs the pipeline over an already decoded grid.
func (e *Extractor) ExtractGrid(rows grid.Rows, fileName string) *ExtractionResult {
	return e.run(fileName, func() *ExtractionResult {
		return e.pipeline(rows.Strings(), fileName)
	})
}

// run races the pipeline against the overall timeout and converts panics
// into failure results. On timeout the computation is abandoned, not
// cancelled; its eventual result is discarded.
func (e *Extractor) run(fileName string, work func() *ExtractionResult) *ExtractionResult {
	started := time.Now()

	results := make(chan *ExtractionResult, 1)
	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				log.Error().Str("file", fileName).Interface("panic", recovered).Msg("Extraction panicked")
				results <- e.failure(fileName, started, fmt.Sprintf("extraction failed: %v", recovered))
			}
		}()

		result := work()
		result.Metadata.FileName = fileName
		result.Metadata.ProcessingTimeMs = time.Since(started).Milliseconds()
		result.Metadata.ExtractedAt = time.Now().UTC()
		results <- result
	}()

	select {
	case result := <-results:
		return result
	case <-time.After(e.options.OverallTimeout):
		log.Warn().Str("file", fileName).Dur("timeout", e.options.OverallTimeout).Msg("Extraction timed out")
		return e.failure(fileName, started, fmt.Sprintf("extraction timed out after %s", e.options.OverallTimeout))
	}
}

func (e *Extractor) pipeline(rows [][]string, fileName string) *ExtractionResult {
	format := DetectFormat(rows, e.options.Detector)

	parsed, err := e.parser.Parse(rows, format, fileName)
	if err != nil {
		return &ExtractionResult{Error: err.Error()}
	}

	if e.options.Transform != nil {
		parsed.TimePoints = e.options.Transform(parsed.TimePoints)
	}

	result := &ExtractionResult{Success: true, Data: parsed}

	if !e.options.SkipValidation {
		result.Validation = Validate(parsed, e.options.Validator)

		if e.options.StrictValidation {
			result.EnforceStrict()
		}
	}

	log.Debug().
		Str("file", fileName).
		Bool("success", result.Success).
		Int("timepoints", len(parsed.TimePoints)).
		Int("edges", len(parsed.TravelTimes)).
		Int("confidence", format.Confidence).
		Msg("Extraction pipeline finished")

	return result
}

func (e *Extractor) failure(fileName string, started time.Time, message string) *ExtractionResult {
	return &ExtractionResult{
		Error: message,
		Metadata: ExtractionMetadata{
			FileName:         fileName,
			ProcessingTimeMs: time.Since(started).Milliseconds(),
			ExtractedAt:      time.Now().UTC(),
		},
	}
}
