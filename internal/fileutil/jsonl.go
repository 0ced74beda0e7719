package fileutil

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// maxJSONLLine bounds one record; tag facts are short.
const maxJSONLLine = 1 << 20

func EncodeJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// DecodeJSONL decodes one T per non-blank line of r and hands it to fn with
// its 1-based line number. It stops at the first error.
func DecodeJSONL[T any](r io.Reader, fn func(line int, record T) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxJSONLLine)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var record T
		if err := json.Unmarshal(raw, &record); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := fn(line, record); err != nil {
			return err
		}
	}
	return scanner.Err()
}
