package analytics

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/promoter-admin-go/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventMentions(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	log := logrus.New()
	log.SetOutput(io.Discard)

	seedMessage(t, db, "ana", models.RoleUser, "¿Cuándo es NEON NIGHT?", time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC))
	seedMessage(t, db, "ana", models.RoleUser, "entradas para neon night", time.Date(2024, 6, 1, 21, 0, 0, 0, time.UTC))
	seedMessage(t, db, "ben", models.RoleUser, "me apunto a Neon Night!", time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC))
	seedMessage(t, db, "carla", models.RoleUser, "hola", time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC))
	// Assistant mentions are not counted.
	seedMessage(t, db, "bot", models.RoleAssistant, "Neon Night es el sábado", time.Date(2024, 6, 1, 20, 1, 0, 0, time.UTC))

	analyzer := NewMentionAnalyzer(svc, false, 0, log)

	report, err := analyzer.EventMentions(ctx, "Neon Night")
	require.NoError(t, err)

	assert.Equal(t, int64(3), report.MentionCount)
	assert.Equal(t, int64(2), report.UniqueUsers)

	// Timeline is sparse: only days with at least one mention, in order.
	require.Len(t, report.Timeline, 2)
	assert.Equal(t, DayCount{Date: "2024-06-01", Count: 2}, report.Timeline[0])
	assert.Equal(t, DayCount{Date: "2024-06-03", Count: 1}, report.Timeline[1])
}

func TestEventMentionsNoMatches(t *testing.T) {
	svc, db := newTestService(t)
	log := logrus.New()
	log.SetOutput(io.Discard)

	seedMessage(t, db, "ana", models.RoleUser, "hola", time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC))

	analyzer := NewMentionAnalyzer(svc, false, 0, log)
	report, err := analyzer.EventMentions(context.Background(), "Carnaval")
	require.NoError(t, err)

	assert.Zero(t, report.MentionCount)
	assert.Zero(t, report.UniqueUsers)
	assert.Empty(t, report.Timeline)
}

func TestEventMentionsMemoized(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	log := logrus.New()
	log.SetOutput(io.Discard)

	seedMessage(t, db, "ana", models.RoleUser, "carnaval!", time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC))

	analyzer := NewMentionAnalyzer(svc, true, time.Minute, log)

	first, err := analyzer.EventMentions(ctx, "Carnaval")
	require.NoError(t, err)
	require.Equal(t, int64(1), first.MentionCount)

	// A write landing after the first computation is invisible until the
	// memoized entry expires.
	seedMessage(t, db, "ben", models.RoleUser, "voy al carnaval", time.Date(2024, 6, 1, 21, 0, 0, 0, time.UTC))

	second, err := analyzer.EventMentions(ctx, "Carnaval")
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.MentionCount)
}
