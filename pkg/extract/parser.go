package extract

import (
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/schedule"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/util"
)

// ParserOptions carry the resource budgets that keep a pathological upload
// from taking the process down.
type ParserOptions struct {
	MaxRowsToProcess     int
	MaxCellsToProcess    int
	MaxMemoryUsage       uint64
	ProcessingTimeout    time.Duration
	EnableCircuitBreaker bool
}

func DefaultParserOptions() ParserOptions {
	return ParserOptions{
		MaxRowsToProcess:     500,
		MaxCellsToProcess:    10000,
		MaxMemoryUsage:       50 * 1024 * 1024,
		ProcessingTimeout:    30 * time.Second,
		EnableCircuitBreaker: true,
	}
}

var (
	ErrTooManyRows       = errors.New("row count exceeds the processing budget")
	ErrTooManyCells      = errors.New("estimated cell count exceeds the processing budget")
	ErrMemoryBudget      = errors.New("memory budget exceeded while parsing")
	ErrProcessingTimeout = errors.New("parsing exceeded the processing timeout")
)

const (
	// Budget guards run every parserGuardInterval data rows.
	parserGuardInterval = 50

	// A row counts as empty when this many leading cells are all blank.
	emptyRowCellScan = 100

	maxAcceptedTravelMinutes = 120
)

type ParseMetadata struct {
	TotalRows     int    `groups:"basic" bson:"totalRows"`
	ProcessedRows int    `groups:"basic" bson:"processedRows"`
	SkippedRows   int    `groups:"basic" bson:"skippedRows"`
	FileName      string `groups:"basic" bson:"fileName,omitempty"`
}

// ParsedSchedule is the normalized output of an extraction: the canonical
// timepoints, the de-duplicated directed travel time edges and the detection
// diagnostics. Immutable once returned.
type ParsedSchedule struct {
	TimePoints  []schedule.TimePoint  `groups:"basic" bson:"timePoints"`
	TravelTimes []schedule.TravelTime `groups:"basic" bson:"travelTimes"`
	Format      *DetectedFormat       `groups:"basic" bson:"format"`
	Metadata    ParseMetadata         `groups:"basic" bson:"metadata"`
}

type Parser struct {
	options ParserOptions
	breaker *CircuitBreaker
}

func NewParser(options ParserOptions, breaker *CircuitBreaker) *Parser {
	return &Parser{options: options, breaker: breaker}
}

// Parse extracts timepoints and travel time edges from a stringified grid
// using an already detected format. Budget violations abort the parse and
// count against the circuit breaker.
func (p *Parser) Parse(rows [][]string, format *DetectedFormat, fileName string) (*ParsedSchedule, error) {
	if p.options.EnableCircuitBreaker && p.breaker != nil {
		if err := p.breaker.Allow(); err != nil {
			return nil, err
		}
	}

	if err := p.preflight(rows); err != nil {
		p.recordFailure()
		return nil, err
	}

	started := time.Now()
	memoryBaseline := heapInUse()

	timePoints := buildTimePoints(rows, format)
	dayTypes := map[int]schedule.DayType{}
	for _, entry := range format.DayTypeColumns {
		dayTypes[entry.Column] = entry.DayType
	}

	var edges []*schedule.TravelTime
	edgeIndex := map[string]*schedule.TravelTime{}

	metadata := ParseMetadata{TotalRows: len(rows), FileName: fileName}

	for i := format.DataStartRow; i < len(rows); i++ {
		processed := i - format.DataStartRow
		if processed > 0 && processed%parserGuardInterval == 0 {
			if err := p.guard(started, memoryBaseline); err != nil {
				p.recordFailure()
				return nil, err
			}
		}

		row := rows[i]
		if isEmptyRow(row) {
			metadata.SkippedRows++
			continue
		}

		observations := extractRowTimes(row, format.TimePointColumns)
		if len(observations) == 0 {
			metadata.SkippedRows++
			continue
		}

		for k := 0; k+1 < len(observations); k++ {
			from := observations[k]
			to := observations[k+1]

			minutes := schedule.TravelMinutes(from.minutes, to.minutes)
			if minutes <= 0 || minutes > maxAcceptedTravelMinutes {
				continue
			}

			day, ok := dayTypes[from.column]
			if !ok {
				day = schedule.DayTypeWeekday
			}

			key := fmt.Sprintf("%s|%s", from.timePointID, to.timePointID)
			edge, exists := edgeIndex[key]
			if !exists {
				edge = &schedule.TravelTime{FromTimePoint: from.timePointID, ToTimePoint: to.timePointID}
				edgeIndex[key] = edge
				edges = append(edges, edge)
			}
			edge.MergeObservation(day, minutes)
		}

		metadata.ProcessedRows++
	}

	travelTimes := make([]schedule.TravelTime, len(edges))
	for i, edge := range edges {
		travelTimes[i] = *edge
	}

	p.recordSuccess()

	return &ParsedSchedule{
		TimePoints:  timePoints,
		TravelTimes: travelTimes,
		Format:      format,
		Metadata:    metadata,
	}, nil
}

// preflight rejects inputs whose size alone blows the budgets, before any
// real work starts. The cell budget is checked against an estimate
// extrapolated from a small sample so that ragged grids do not need a full
// scan.
func (p *Parser) preflight(rows [][]string) error {
	if len(rows) > p.options.MaxRowsToProcess {
		return fmt.Errorf("%w: %d rows, budget %d", ErrTooManyRows, len(rows), p.options.MaxRowsToProcess)
	}

	sample := min(len(rows), 10)
	if sample == 0 {
		return nil
	}

	sampleCells := 0
	for i := 0; i < sample; i++ {
		sampleCells += len(rows[i])
	}

	estimate := int(float64(sampleCells) / float64(sample) * float64(len(rows)))
	if estimate > p.options.MaxCellsToProcess {
		return fmt.Errorf("%w: estimated %d cells, budget %d", ErrTooManyCells, estimate, p.options.MaxCellsToProcess)
	}

	return nil
}

func (p *Parser) guard(started time.Time, memoryBaseline uint64) error {
	if elapsed := time.Since(started); elapsed > p.options.ProcessingTimeout {
		return fmt.Errorf("%w: %s elapsed", ErrProcessingTimeout, elapsed.Round(time.Millisecond))
	}

	if used := heapInUse(); used > memoryBaseline && used-memoryBaseline > p.options.MaxMemoryUsage {
		return fmt.Errorf("%w: %d bytes over baseline", ErrMemoryBudget, used-memoryBaseline)
	}

	return nil
}

func (p *Parser) recordFailure() {
	if p.options.EnableCircuitBreaker && p.breaker != nil {
		p.breaker.RecordFailure()
	}
}

func (p *Parser) recordSuccess() {
	if p.options.EnableCircuitBreaker && p.breaker != nil {
		p.breaker.RecordSuccess()
	}
}

func heapInUse() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	return stats.HeapAlloc
}

func buildTimePoints(rows [][]string, format *DetectedFormat) []schedule.TimePoint {
	var nameRow []string
	if format.MatrixHeaderRow >= 0 && format.MatrixHeaderRow < len(rows) {
		nameRow = rows[format.MatrixHeaderRow]
	} else if format.HasHeader && format.HeaderRow < len(rows) {
		nameRow = rows[format.HeaderRow]
	}

	timePoints := make([]schedule.TimePoint, 0, len(format.TimePointColumns))
	for sequence, column := range format.TimePointColumns {
		name := ""
		if column < len(nameRow) {
			name = sanitizeTimePointName(nameRow[column])
		}
		if name == "" {
			name = fmt.Sprintf("TimePoint_%d", sequence+1)
		}

		timePoints = append(timePoints, schedule.TimePoint{
			ID:       fmt.Sprintf("tp_%d", column),
			Name:     name,
			Sequence: sequence,
		})
	}

	return timePoints
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

func sanitizeTimePointName(value string) string {
	collapsed := whitespaceRegex.ReplaceAllString(strings.TrimSpace(value), " ")

	return util.TrimString(collapsed, 60)
}

func isEmptyRow(row []string) bool {
	scan := min(len(row), emptyRowCellScan)
	for i := 0; i < scan; i++ {
		if strings.TrimSpace(row[i]) != "" {
			return false
		}
	}

	return true
}

type timeObservation struct {
	column      int
	timePointID string
	minutes     int
}

// extractRowTimes pulls the parseable clock values for the timepoint columns
// of one row, in column order. Cells that fail to parse are simply absent.
func extractRowTimes(row []string, columns []int) []timeObservation {
	var observations []timeObservation

	for _, column := range columns {
		if column >= len(row) {
			continue
		}

		value := strings.TrimSpace(row[column])
		if value == "" {
			continue
		}

		minutes, err := schedule.ParseClockTime(value)
		if err != nil {
			continue
		}

		observations = append(observations, timeObservation{
			column:      column,
			timePointID: fmt.Sprintf("tp_%d", column),
			minutes:     minutes,
		})
	}

	return observations
}
