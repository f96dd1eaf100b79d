package analytics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteUserActivityCSV(t *testing.T) {
	rows := []UserActivity{
		{UserID: "ana", MessageCount: 12, FirstSeen: "2024-05-01 10:00", LastActive: "2024-05-20 22:15", DaysActive: 4},
		{UserID: "ben", MessageCount: 3, FirstSeen: "2024-05-03 09:00", LastActive: "2024-05-03 09:20", DaysActive: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteUserActivityCSV(&buf, rows))

	lines := []string{
		"User ID,Mensajes,Primera Vez,Ultimo Mensaje,Dias Activo",
		"ana,12,2024-05-01 10:00,2024-05-20 22:15,4",
		"ben,3,2024-05-03 09:00,2024-05-03 09:20,1",
		"",
	}
	assert.Equal(t, lines, strings.Split(buf.String(), "\n"))
}

func TestWriteUserActivityCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteUserActivityCSV(&buf, nil))
	assert.Equal(t, "User ID,Mensajes,Primera Vez,Ultimo Mensaje,Dias Activo\n", buf.String())
}
