package serviceband

import (
	"strings"
	"testing"
)

func TestNeighborRuleFlagsHighExtreme(t *testing.T) {
	analyzer := NewAnalyzer(periodsFromMedians(10, 10, 10, 15))

	outliers := analyzer.DetectOutliersByNeighbor()

	if len(outliers) != 1 {
		t.Fatalf("outliers = %+v, want exactly one", outliers)
	}

	outlier := outliers[0]
	if outlier.Index != 3 || outlier.Duration != 15 {
		t.Errorf("flagged %+v, want index 3 with duration 15", outlier)
	}
	if !strings.Contains(outlier.OutlierReason, "50.0% longer") {
		t.Errorf("OutlierReason = %q", outlier.OutlierReason)
	}
	if outlier.PercentageDiff != 50 || outlier.ComparisonDuration != 10 {
		t.Errorf("comparison = %+v", outlier)
	}
	if outlier.DeviationFromMedian != 5 {
		t.Errorf("DeviationFromMedian = %v, want 5", outlier.DeviationFromMedian)
	}
	if outlier.PercentileRank != 100 {
		t.Errorf("PercentileRank = %v, want 100", outlier.PercentileRank)
	}
}

func TestNeighborRuleIgnoresSmallGap(t *testing.T) {
	analyzer := NewAnalyzer(periodsFromMedians(10, 10, 10, 10.5))

	if outliers := analyzer.DetectOutliersByNeighbor(); len(outliers) != 0 {
		t.Errorf("outliers = %+v, want none for a 5%% gap", outliers)
	}
}

func TestNeighborRuleFlagsLowExtreme(t *testing.T) {
	analyzer := NewAnalyzer(periodsFromMedians(5, 10, 10, 10))

	outliers := analyzer.DetectOutliersByNeighbor()

	if len(outliers) != 1 || outliers[0].Index != 0 {
		t.Fatalf("outliers = %+v, want only index 0", outliers)
	}
	if outliers[0].PercentageDiff != 100 {
		t.Errorf("PercentageDiff = %v, want 100", outliers[0].PercentageDiff)
	}
}

func TestNeighborRuleNeedsTwoPeriods(t *testing.T) {
	analyzer := NewAnalyzer(periodsFromMedians(10))

	if outliers := analyzer.DetectOutliersByNeighbor(); outliers != nil {
		t.Errorf("outliers = %+v, want nil", outliers)
	}
}

func TestIQRRuleFlagsFarPoint(t *testing.T) {
	analyzer := NewAnalyzer(periodsFromMedians(10, 10, 10, 10, 10, 10, 10, 30))

	outliers := analyzer.DetectOutliersByIQR()

	if len(outliers) != 1 || outliers[0].Index != 7 {
		t.Fatalf("outliers = %+v, want only index 7", outliers)
	}
	if outliers[0].DeviationFromMedian != 20 {
		t.Errorf("DeviationFromMedian = %v, want 20", outliers[0].DeviationFromMedian)
	}
	if !strings.Contains(outliers[0].OutlierReason, "interquartile") {
		t.Errorf("OutlierReason = %q", outliers[0].OutlierReason)
	}
}

func TestIQRRuleQuietOnFlatSeries(t *testing.T) {
	analyzer := NewAnalyzer(periodsFromMedians(10, 10, 10, 10))

	if outliers := analyzer.DetectOutliersByIQR(); len(outliers) != 0 {
		t.Errorf("outliers = %+v, want none", outliers)
	}
}

func TestIQRRuleOrdersByAbsoluteDeviation(t *testing.T) {
	analyzer := NewAnalyzer(periodsFromMedians(1, 10, 10, 10, 10, 10, 10, 40))

	outliers := analyzer.DetectOutliersByIQR()

	if len(outliers) != 2 {
		t.Fatalf("outliers = %+v, want both extremes", outliers)
	}
	if outliers[0].Index != 7 || outliers[1].Index != 0 {
		t.Errorf("order = [%d %d], want the larger deviation first", outliers[0].Index, outliers[1].Index)
	}
}
