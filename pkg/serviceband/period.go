package serviceband

import (
	"encoding/csv"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/util"
)

// TimePeriod is one row of a trip duration distribution: a labelled slice of
// the service day plus percentile running times in minutes.
type TimePeriod struct {
	Label        string  `csv:"timePeriod" groups:"basic" bson:"label"`
	StartTime    string  `csv:"startTime" groups:"basic" bson:"startTime"`
	Percentile25 float64 `csv:"percentile25" groups:"basic" bson:"percentile25"`
	Percentile50 float64 `csv:"percentile50" groups:"basic" bson:"percentile50"`
	Percentile80 float64 `csv:"percentile80" groups:"basic" bson:"percentile80"`
	Percentile90 float64 `csv:"percentile90" groups:"basic" bson:"percentile90"`
}

// Median returns the period's p50 running time, which every grouping and
// outlier decision keys off.
func (p TimePeriod) Median() float64 {
	return p.Percentile50
}

// SegmentObservation is a raw travel time for one timepoint pair within a
// period. Optional input, only used for per-band breakdowns.
type SegmentObservation struct {
	PeriodIndex   int     `csv:"periodIndex" groups:"basic" bson:"periodIndex"`
	FromTimePoint string  `csv:"fromTimePoint" groups:"basic" bson:"fromTimePoint"`
	ToTimePoint   string  `csv:"toTimePoint" groups:"basic" bson:"toTimePoint"`
	Minutes       float64 `csv:"minutes" groups:"basic" bson:"minutes"`
}

// LoadTimePeriods reads a duration distribution CSV.
func LoadTimePeriods(reader io.Reader) ([]TimePeriod, error) {
	// Ignore records that are missing columns
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.FieldsPerRecord = -1
		return r
	})

	var periods []TimePeriod
	if err := gocsv.Unmarshal(reader, &periods); err != nil {
		return nil, err
	}

	util.InPlaceFilter(&periods, func(period TimePeriod) bool {
		return period.Label != "" || period.StartTime != ""
	})

	log.Debug().Int("periods", len(periods)).Msg("Loaded time period distributions")

	return periods, nil
}

// LoadSegmentObservations reads the optional per-segment travel time CSV.
func LoadSegmentObservations(reader io.Reader) ([]SegmentObservation, error) {
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.FieldsPerRecord = -1
		return r
	})

	var observations []SegmentObservation
	if err := gocsv.Unmarshal(reader, &observations); err != nil {
		return nil, err
	}

	return observations, nil
}
