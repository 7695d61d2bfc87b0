package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/enrich/core"
)

// Sanitize projects records down to their "text" field. Elements that are
// not objects or lack "text" are dropped. The value is kept as is, whatever
// its JSON type.
func Sanitize(records []core.Record) []core.Record {
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if !r.IsObject() {
			continue
		}
		raw, ok := r.Raw(core.FieldText)
		if !ok {
			continue
		}
		projected := core.NewRecord()
		if err := projected.Set(core.FieldText, raw); err != nil {
			continue
		}
		out = append(out, projected)
	}
	return out
}

// ScoreHeader is the header row written by WriteScoreCSV.
var ScoreHeader = []string{"First 5 Words", "Coverage Score"}

// WriteScoreCSV writes one row per record carrying both "text" and
// "coverage": the first five words of the text and the coverage value.
// Rows end in CRLF.
// Records whose text is not a string are skipped. It returns the number of
// data rows written.
func WriteScoreCSV(w io.Writer, records []core.Record) (int, error) {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(ScoreHeader); err != nil {
		return 0, err
	}

	rows := 0
	for _, r := range records {
		if !r.Has(core.FieldText) || !r.Has(core.FieldCoverage) {
			continue
		}
		text, ok := r.String(core.FieldText)
		if !ok {
			continue
		}
		raw, _ := r.Raw(core.FieldCoverage)
		if err := cw.Write([]string{firstWords(text, 5), scalar(raw)}); err != nil {
			return rows, err
		}
		rows++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("writing csv: %w", err)
	}
	return rows, nil
}

func firstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// scalar renders a JSON value for a CSV cell: strings unquoted, anything
// else as its JSON text.
func scalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
