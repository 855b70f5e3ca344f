package report

import (
	"encoding/json"
	"io"
)

// WriteJSON writes records as a single indented JSON array.
func WriteJSON(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if records == nil {
		records = []Record{}
	}
	return enc.Encode(records)
}

// WriteJSONL writes one record per line, newline-delimited JSON, for
// callers that want to stream results without buffering the whole
// array.
func WriteJSONL(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
