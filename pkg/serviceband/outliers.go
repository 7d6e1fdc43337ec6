package serviceband

import (
	"fmt"
	"math"
	"sort"

	"github.com/hashicorp/go-set/v3"
	"github.com/montanaflynn/stats"
)

const neighborOutlierThreshold = 0.10

// DetectOutliers merges both detectors. The neighbour rule is the more
// specific signal, so it wins when both flag the same period.
func (a *Analyzer) DetectOutliers() []OutlierInfo {
	outliers := a.DetectOutliersByNeighbor()

	flagged := set.New[int](len(outliers))
	for _, outlier := range outliers {
		flagged.Insert(outlier.Index)
	}

	for _, outlier := range a.DetectOutliersByIQR() {
		if flagged.Contains(outlier.Index) {
			continue
		}
		outliers = append(outliers, outlier)
	}

	return outliers
}

// OutlierInfo describes one flagged period with enough context for a user to
// judge it. Detected outliers stay in all calculations until the user acts.
type OutlierInfo struct {
	Index               int     `groups:"basic" bson:"index"`
	Duration            float64 `groups:"basic" bson:"duration"`
	TimePeriod          string  `groups:"basic" bson:"timePeriod"`
	StartTime           string  `groups:"basic" bson:"startTime"`
	DeviationFromMedian float64 `groups:"basic" bson:"deviationFromMedian"`
	PercentileRank      float64 `groups:"basic" bson:"percentileRank"`
	OutlierReason       string  `groups:"basic" bson:"outlierReason,omitempty"`
	ComparisonDuration  float64 `groups:"basic" bson:"comparisonDuration,omitempty"`
	PercentageDiff      float64 `groups:"basic" bson:"percentageDiff,omitempty"`
}

// DetectOutliersByNeighbor flags at most the single highest and single lowest
// periods, and only when they sit at least 10% away from their nearest ranked
// neighbour. Interior periods are never flagged by this rule.
func (a *Analyzer) DetectOutliersByNeighbor() []OutlierInfo {
	included := a.includedIndices()
	if len(included) < 2 {
		return nil
	}

	medians := a.mediansOf(included)
	overallMedian, _ := stats.Median(medians)

	ranked := make([]int, len(included))
	copy(ranked, included)
	sort.SliceStable(ranked, func(i, j int) bool {
		return a.periods[ranked[i]].Median() < a.periods[ranked[j]].Median()
	})

	var outliers []OutlierInfo

	highest := ranked[len(ranked)-1]
	nextHighest := a.periods[ranked[len(ranked)-2]].Median()
	if info, flagged := a.neighborOutlier(highest, nextHighest, true, medians, overallMedian); flagged {
		outliers = append(outliers, info)
	}

	lowest := ranked[0]
	nextLowest := a.periods[ranked[1]].Median()
	if info, flagged := a.neighborOutlier(lowest, nextLowest, false, medians, overallMedian); flagged {
		outliers = append(outliers, info)
	}

	return outliers
}

func (a *Analyzer) neighborOutlier(index int, comparison float64, high bool, medians []float64, overallMedian float64) (OutlierInfo, bool) {
	if a.reviewed[index] {
		return OutlierInfo{}, false
	}

	duration := a.periods[index].Median()

	var diff float64
	var reason string
	if high {
		if comparison <= 0 {
			return OutlierInfo{}, false
		}
		diff = (duration - comparison) / comparison
		reason = fmt.Sprintf("%.1f%% longer than the next highest period", diff*100)
	} else {
		if duration <= 0 {
			return OutlierInfo{}, false
		}
		diff = (comparison - duration) / duration
		reason = fmt.Sprintf("the next lowest period is %.1f%% longer", diff*100)
	}

	if diff < neighborOutlierThreshold {
		return OutlierInfo{}, false
	}

	return OutlierInfo{
		Index:               index,
		Duration:            duration,
		TimePeriod:          a.periods[index].Label,
		StartTime:           a.periods[index].StartTime,
		DeviationFromMedian: duration - overallMedian,
		PercentileRank:      percentileRank(duration, medians),
		OutlierReason:       reason,
		ComparisonDuration:  comparison,
		PercentageDiff:      diff * 100,
	}, true
}

// DetectOutliersByIQR flags periods outside the Tukey fences over median
// durations, strongest deviation first. Quartiles need at least four periods
// to mean anything.
func (a *Analyzer) DetectOutliersByIQR() []OutlierInfo {
	included := a.includedIndices()
	if len(included) < 4 {
		return nil
	}

	medians := a.mediansOf(included)
	overallMedian, _ := stats.Median(medians)

	quartiles, err := stats.Quartile(medians)
	if err != nil {
		return nil
	}

	iqr := quartiles.Q3 - quartiles.Q1
	lower := quartiles.Q1 - 1.5*iqr
	upper := quartiles.Q3 + 1.5*iqr

	var outliers []OutlierInfo
	for _, index := range included {
		if a.reviewed[index] {
			continue
		}

		duration := a.periods[index].Median()
		if duration >= lower && duration <= upper {
			continue
		}

		outliers = append(outliers, OutlierInfo{
			Index:               index,
			Duration:            duration,
			TimePeriod:          a.periods[index].Label,
			StartTime:           a.periods[index].StartTime,
			DeviationFromMedian: duration - overallMedian,
			PercentileRank:      percentileRank(duration, medians),
			OutlierReason:       fmt.Sprintf("outside the %.1f-%.1f minute interquartile fence", lower, upper),
		})
	}

	sort.SliceStable(outliers, func(i, j int) bool {
		return math.Abs(outliers[i].DeviationFromMedian) > math.Abs(outliers[j].DeviationFromMedian)
	})

	return outliers
}

// percentileRank is the share of periods whose median does not exceed the
// given duration.
func percentileRank(duration float64, medians []float64) float64 {
	if len(medians) == 0 {
		return 0
	}

	atOrBelow := 0
	for _, value := range medians {
		if value <= duration {
			atOrBelow++
		}
	}

	return 100 * float64(atOrBelow) / float64(len(medians))
}
