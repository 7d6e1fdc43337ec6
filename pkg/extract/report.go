package extract

import (
	"fmt"
	"strings"
	"time"
)

// GenerateQualityReport renders an extraction result as a human readable
// Markdown document. Presentation only, no new analysis happens here.
func GenerateQualityReport(result *ExtractionResult) string {
	var b strings.Builder

	b.WriteString("# Schedule Extraction Quality Report\n\n")

	outcome := "PASS"
	if !result.Success || (result.Validation != nil && !result.Validation.IsValid) {
		outcome = "FAIL"
	}

	fmt.Fprintf(&b, "**File:** %s\n", valueOr(result.Metadata.FileName, "(unnamed)"))
	if !result.Metadata.ExtractedAt.IsZero() {
		fmt.Fprintf(&b, "**Extracted:** %s\n", result.Metadata.ExtractedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "**Processing time:** %dms\n", result.Metadata.ProcessingTimeMs)
	fmt.Fprintf(&b, "**Outcome:** %s\n\n", outcome)

	if result.Error != "" {
		fmt.Fprintf(&b, "> %s\n\n", result.Error)
	}

	if result.Data != nil {
		b.WriteString("## Extraction\n\n")
		fmt.Fprintf(&b, "- Rows: %d total, %d processed, %d skipped\n",
			result.Data.Metadata.TotalRows, result.Data.Metadata.ProcessedRows, result.Data.Metadata.SkippedRows)
		fmt.Fprintf(&b, "- Timepoints: %d\n", len(result.Data.TimePoints))
		fmt.Fprintf(&b, "- Travel time edges: %d\n", len(result.Data.TravelTimes))
		if result.Data.Format != nil {
			fmt.Fprintf(&b, "- Detection confidence: %d/100\n", result.Data.Format.Confidence)
			fmt.Fprintf(&b, "- Time format: %s\n", result.Data.Format.TimeFormat)
		}
		b.WriteString("\n")
	}

	if result.Validation != nil {
		statistics := result.Validation.Statistics

		b.WriteString("## Travel times\n\n")
		fmt.Fprintf(&b, "- Average: %.1f minutes\n", statistics.AverageTravelTime)
		fmt.Fprintf(&b, "- Range: %d-%d minutes\n", statistics.MinTravelTime, statistics.MaxTravelTime)
		fmt.Fprintf(&b, "- Day coverage: weekday %d, saturday %d, sunday %d\n\n",
			statistics.WeekdayEdges, statistics.SaturdayEdges, statistics.SundayEdges)

		writeIssues(&b, "Errors", result.Validation.Errors)
		writeIssues(&b, "Warnings", result.Validation.Warnings)
	}

	return b.String()
}

func writeIssues(b *strings.Builder, title string, issues []Issue) {
	fmt.Fprintf(b, "## %s (%d)\n\n", title, len(issues))

	if len(issues) == 0 {
		b.WriteString("None.\n\n")
		return
	}

	for i, issue := range issues {
		fmt.Fprintf(b, "%d. **[%s]** %s\n", i+1, issue.Code, issue.Message)
		for _, detail := range issue.Details {
			fmt.Fprintf(b, "   - %s\n", detail)
		}
	}
	b.WriteString("\n")
}

func valueOr(value string, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}
