package analytics

import (
	"encoding/csv"
	"io"
	"strconv"
)

// csvHeader matches the columns of the admin conversation table.
var csvHeader = []string{"User ID", "Mensajes", "Primera Vez", "Ultimo Mensaje", "Dias Activo"}

// WriteUserActivityCSV writes the per-user aggregate table as CSV, one row
// per user in the order given (descending message count for the export
// endpoint).
func WriteUserActivityCSV(w io.Writer, rows []UserActivity) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{
			r.UserID,
			strconv.FormatInt(r.MessageCount, 10),
			r.FirstSeen,
			r.LastActive,
			strconv.FormatInt(r.DaysActive, 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
