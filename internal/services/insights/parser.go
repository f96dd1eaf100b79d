package insights

import (
	"encoding/json"
	"strings"

	"github.com/promoter-admin-go/internal/models"
)

// parseOutcome tags how the summarizer's raw response was turned into a
// report.
type parseOutcome int

const (
	// parsedDirect: the raw response was a valid JSON report.
	parsedDirect parseOutcome = iota
	// parsedFenced: the report was extracted from a ``` fenced block.
	parsedFenced
	// unparseable: neither worked; the caller builds a degraded report.
	unparseable
)

// parseReport decodes the summarizer's response. Models sometimes wrap the
// JSON in a markdown fence despite instructions, so a fenced payload is
// tried before giving up.
func parseReport(raw string) (*models.InsightReport, parseOutcome) {
	if report, ok := decodeReport(raw); ok {
		return report, parsedDirect
	}

	if fenced, ok := extractFenced(raw); ok {
		if report, ok := decodeReport(fenced); ok {
			return report, parsedFenced
		}
	}

	return nil, unparseable
}

func decodeReport(raw string) (*models.InsightReport, bool) {
	var report models.InsightReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, false
	}
	// A decodable payload with none of the expected keys is still garbage.
	if report.FrequentQuestions == "" && report.PopularVenues == "" &&
		report.Sentiment == "" && report.Suggestions == "" {
		return nil, false
	}
	return &report, true
}

// extractFenced pulls the body of the first fenced code block, stripping a
// leading language tag such as "json".
func extractFenced(raw string) (string, bool) {
	parts := strings.Split(raw, "```")
	if len(parts) < 2 {
		return "", false
	}

	body := parts[1]
	body = strings.TrimPrefix(body, "json")
	return strings.TrimSpace(body), true
}

// truncate returns at most limit characters of s.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
