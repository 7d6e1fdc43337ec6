package serviceband

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/schedule"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/util"
)

// Band indices in ascending running time order. Peak Congestion is only ever
// populated by the consecutive run promotion in ComputeBands.
const (
	BandOffPeak = iota
	BandLightTraffic
	BandHeavyTraffic
	BandCongested
	BandPeakCongestion

	bandCount
)

type bandStyle struct {
	name      string
	color     string
	textColor string
}

var bandStyles = [bandCount]bandStyle{
	{name: "Off-Peak", color: "#10B981", textColor: "#FFFFFF"},
	{name: "Light Traffic", color: "#3B82F6", textColor: "#FFFFFF"},
	{name: "Heavy Traffic", color: "#F59E0B", textColor: "#1F2937"},
	{name: "Congested", color: "#EF4444", textColor: "#FFFFFF"},
	{name: "Peak Congestion", color: "#7C3AED", textColor: "#FFFFFF"},
}

// Thresholds are the quartile cut points the bracket assignment uses,
// computed over the medians of non-excluded periods.
type Thresholds struct {
	Percentile25 float64 `groups:"basic" bson:"percentile25"`
	Percentile50 float64 `groups:"basic" bson:"percentile50"`
	Percentile75 float64 `groups:"basic" bson:"percentile75"`
}

type BandResult struct {
	Bands      []schedule.ServiceBand `groups:"basic" bson:"bands"`
	TimeGroups [][]int                `groups:"basic" bson:"timeGroups"`
	Thresholds Thresholds             `groups:"basic" bson:"thresholds"`
}

// Analyzer derives service bands from a trip duration distribution and holds
// the review state a user builds up while working through outliers. Not safe
// for concurrent use.
type Analyzer struct {
	periods  []TimePeriod
	segments []SegmentObservation

	excluded map[int]bool
	reviewed map[int]bool
	manual   map[int]int
}

func NewAnalyzer(periods []TimePeriod) *Analyzer {
	return &Analyzer{
		periods:  periods,
		excluded: map[int]bool{},
		reviewed: map[int]bool{},
		manual:   map[int]int{},
	}
}

func (a *Analyzer) Periods() []TimePeriod {
	return a.periods
}

// AttachSegments supplies raw per-segment travel times for SegmentBreakdown.
func (a *Analyzer) AttachSegments(observations []SegmentObservation) {
	a.segments = observations
}

// RemoveOutlier drops a period from every calculation and from the displayed
// series.
func (a *Analyzer) RemoveOutlier(index int) error {
	if err := a.checkIndex(index); err != nil {
		return err
	}

	a.excluded[index] = true
	delete(a.reviewed, index)
	delete(a.manual, index)

	return nil
}

// KeepOutlier acknowledges a detected outlier. The period stays in every
// calculation, it just stops being reported by the detectors.
func (a *Analyzer) KeepOutlier(index int) error {
	if err := a.checkIndex(index); err != nil {
		return err
	}

	a.reviewed[index] = true

	return nil
}

// SetManualAssignment pins a period to a band, overriding the automatic
// bracket on the next ComputeBands.
func (a *Analyzer) SetManualAssignment(index int, band int) error {
	if err := a.checkIndex(index); err != nil {
		return err
	}
	if band < 0 || band >= bandCount {
		return fmt.Errorf("band index %d out of range", band)
	}

	a.manual[index] = band

	return nil
}

func (a *Analyzer) ClearManualAssignment(index int) {
	delete(a.manual, index)
}

func (a *Analyzer) IsExcluded(index int) bool {
	return a.excluded[index]
}

func (a *Analyzer) IsReviewed(index int) bool {
	return a.reviewed[index]
}

func (a *Analyzer) checkIndex(index int) error {
	if index < 0 || index >= len(a.periods) {
		return fmt.Errorf("period index %d out of range", index)
	}

	return nil
}

// includedIndices returns the period indices that participate in band and
// outlier mathematics, in series order.
func (a *Analyzer) includedIndices() []int {
	indices := make([]int, 0, len(a.periods))
	for i := range a.periods {
		indices = append(indices, i)
	}

	util.InPlaceFilter(&indices, func(i int) bool { return !a.excluded[i] })

	return indices
}

func (a *Analyzer) mediansOf(indices []int) []float64 {
	medians := make([]float64, len(indices))
	for i, index := range indices {
		medians[i] = a.periods[index].Median()
	}

	return medians
}

// ComputeBands groups the non-excluded periods into the five bands. Manual
// assignments always win. The automatic path brackets each period's median
// against the quartile thresholds, then promotes the longest consecutive run
// at or above the p75 threshold into Peak Congestion.
func (a *Analyzer) ComputeBands() *BandResult {
	result := &BandResult{
		TimeGroups: make([][]int, bandCount),
	}
	for band := range result.TimeGroups {
		result.TimeGroups[band] = []int{}
	}

	included := a.includedIndices()
	if len(included) == 0 {
		result.Bands = a.buildBands(result.TimeGroups)
		return result
	}

	medians := a.mediansOf(included)

	quartiles, err := stats.Quartile(medians)
	if err != nil {
		// A single period has no spread to bracket against.
		flat, _ := stats.Median(medians)
		quartiles = stats.Quartiles{Q1: flat, Q2: flat, Q3: flat}
	}
	result.Thresholds = Thresholds{
		Percentile25: quartiles.Q1,
		Percentile50: quartiles.Q2,
		Percentile75: quartiles.Q3,
	}

	noSpread := quartiles.Q1 == quartiles.Q3

	assignments := map[int]int{}
	for _, index := range included {
		if band, ok := a.manual[index]; ok {
			assignments[index] = band
			continue
		}
		if noSpread {
			assignments[index] = BandLightTraffic
			continue
		}
		assignments[index] = bracketFor(a.periods[index].Median(), quartiles)
	}

	// A sustained stretch of slow periods reads as one peak rather than a
	// scatter of Congested entries.
	if !noSpread {
		for _, index := range a.longestPeakRun(included, quartiles.Q3) {
			assignments[index] = BandPeakCongestion
		}
	}

	for _, index := range included {
		band := assignments[index]
		result.TimeGroups[band] = append(result.TimeGroups[band], index)
	}

	result.Bands = a.buildBands(result.TimeGroups)

	return result
}

func bracketFor(median float64, quartiles stats.Quartiles) int {
	switch {
	case median <= quartiles.Q1:
		return BandOffPeak
	case median <= quartiles.Q2:
		return BandLightTraffic
	case median <= quartiles.Q3:
		return BandHeavyTraffic
	default:
		return BandCongested
	}
}

// longestPeakRun finds the longest stretch of consecutive period indices at
// or above the p75 threshold. Excluded periods break adjacency. The run only
// qualifies when it spans at least two periods and none of its members is
// manually pinned to another band; ties go to the earliest run.
func (a *Analyzer) longestPeakRun(included []int, threshold float64) []int {
	var best []int
	var current []int

	flush := func() {
		if len(current) > len(best) {
			best = current
		}
		current = nil
	}

	previous := -2
	for _, index := range included {
		if a.periods[index].Median() < threshold {
			flush()
			previous = -2
			continue
		}

		if index != previous+1 {
			flush()
		}
		current = append(current, index)
		previous = index
	}
	flush()

	if len(best) < 2 {
		return nil
	}
	for _, index := range best {
		if band, ok := a.manual[index]; ok && band != BandPeakCongestion {
			return nil
		}
	}

	return best
}

func (a *Analyzer) buildBands(groups [][]int) []schedule.ServiceBand {
	bands := make([]schedule.ServiceBand, bandCount)

	for bandIndex, style := range bandStyles {
		band := schedule.ServiceBand{
			Name:       style.name,
			Color:      style.color,
			TextColor:  style.textColor,
			StartIndex: -1,
			EndIndex:   -1,
		}

		members := groups[bandIndex]
		if len(members) > 0 {
			band.StartIndex = members[0]
			band.EndIndex = members[len(members)-1]
			band.AvgDuration, _ = stats.Mean(a.mediansOf(members))
		}

		bands[bandIndex] = band
	}

	return bands
}

// SegmentAverage is the mean of a band's raw travel times for one timepoint
// pair.
type SegmentAverage struct {
	FromTimePoint string  `groups:"basic" bson:"fromTimePoint"`
	ToTimePoint   string  `groups:"basic" bson:"toTimePoint"`
	AvgMinutes    float64 `groups:"basic" bson:"avgMinutes"`
	Observations  int     `groups:"basic" bson:"observations"`
}

// SegmentBreakdown averages the attached segment times over each band's
// member periods, keyed by band name. Bands without observations are absent.
func (a *Analyzer) SegmentBreakdown(result *BandResult) map[string][]SegmentAverage {
	breakdown := map[string][]SegmentAverage{}
	if len(a.segments) == 0 {
		return breakdown
	}

	bandOf := map[int]int{}
	for band, members := range result.TimeGroups {
		for _, index := range members {
			bandOf[index] = band
		}
	}

	type segmentKey struct {
		band int
		from string
		to   string
	}
	grouped := map[segmentKey][]float64{}
	for _, observation := range a.segments {
		band, ok := bandOf[observation.PeriodIndex]
		if !ok {
			continue
		}

		key := segmentKey{band: band, from: observation.FromTimePoint, to: observation.ToTimePoint}
		grouped[key] = append(grouped[key], observation.Minutes)
	}

	for key, minutes := range grouped {
		average, _ := stats.Mean(minutes)
		name := bandStyles[key.band].name

		breakdown[name] = append(breakdown[name], SegmentAverage{
			FromTimePoint: key.from,
			ToTimePoint:   key.to,
			AvgMinutes:    average,
			Observations:  len(minutes),
		})
	}

	for name := range breakdown {
		rows := breakdown[name]
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].FromTimePoint != rows[j].FromTimePoint {
				return rows[i].FromTimePoint < rows[j].FromTimePoint
			}
			return rows[i].ToTimePoint < rows[j].ToTimePoint
		})
		breakdown[name] = rows
	}

	return breakdown
}
