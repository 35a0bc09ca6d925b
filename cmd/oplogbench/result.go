package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/natefinch/atomic"
)

// writeResult marshals r as indented JSON and writes it to path via a
// temp-file-plus-rename, so a reader polling the output file never
// observes a half-written result.
func writeResult(path string, r result) error {
	buf, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	buf = append(buf, '\n')

	if err := atomic.WriteFile(path, bytes.NewReader(buf)); err != nil {
		return fmt.Errorf("writing result file: %w", err)
	}

	return nil
}
