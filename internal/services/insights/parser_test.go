package insights

import (
	"strings"
	"testing"

	"github.com/promoter-admin-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validJSON = `{
  "frequent_questions": "Preguntan por precios y horarios.",
  "popular_venues": "La sala A genera más interés.",
  "sentiment": "Tono entusiasta en general.",
  "suggestions": "Responder más rápido sobre entradas."
}`

func TestParseReportDirect(t *testing.T) {
	report, outcome := parseReport(validJSON)
	require.Equal(t, parsedDirect, outcome)
	assert.Equal(t, "Preguntan por precios y horarios.", report.FrequentQuestions)
	assert.Equal(t, "La sala A genera más interés.", report.PopularVenues)
	assert.Equal(t, "Tono entusiasta en general.", report.Sentiment)
	assert.Equal(t, "Responder más rápido sobre entradas.", report.Suggestions)
}

func TestParseReportFencedWithLanguageTag(t *testing.T) {
	raw := "Aquí tienes el informe:\n```json\n" + validJSON + "\n```\nEspero que sirva."

	report, outcome := parseReport(raw)
	require.Equal(t, parsedFenced, outcome)

	var direct models.InsightReport
	directReport, _ := parseReport(validJSON)
	direct = *directReport
	assert.Equal(t, direct, *report, "embedded JSON comes through unchanged")
}

func TestParseReportFencedWithoutTag(t *testing.T) {
	raw := "```\n" + validJSON + "\n```"

	report, outcome := parseReport(raw)
	require.Equal(t, parsedFenced, outcome)
	assert.Equal(t, "Tono entusiasta en general.", report.Sentiment)
}

func TestParseReportGarbage(t *testing.T) {
	report, outcome := parseReport("lo siento, no puedo generar el informe ahora mismo")
	assert.Equal(t, unparseable, outcome)
	assert.Nil(t, report)
}

func TestParseReportEmptyObject(t *testing.T) {
	report, outcome := parseReport(`{"unrelated": true}`)
	assert.Equal(t, unparseable, outcome)
	assert.Nil(t, report)
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", 250)
	assert.Len(t, truncate(long, 200), 200)
	assert.Equal(t, "corto", truncate("corto", 200))

	// Multi-byte input is cut at rune boundaries.
	accented := strings.Repeat("é", 250)
	assert.Equal(t, strings.Repeat("é", 200), truncate(accented, 200))
}
