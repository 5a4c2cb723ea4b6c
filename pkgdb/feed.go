package pkgdb

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Record is one raw package entry from a vartree or bintree dump.
type Record struct {
	CPV       string
	Slot      string
	RdepsRaw  string
	BuildTime string
	Use       string
}

// UnmarshalJSON decodes the dump row format produced by the on-device
// vartree snippet: a 5-element array [cpv, slot, rdeps, build_time, use].
// build_time arrives as either a JSON number or a string.
func (r *Record) UnmarshalJSON(data []byte) error {
	var row []json.RawMessage
	if err := json.Unmarshal(data, &row); err != nil {
		return fmt.Errorf("%w: %v", ErrBadFeed, err)
	}
	if len(row) != 5 {
		return fmt.Errorf("%w: expected 5 fields, got %d", ErrBadFeed, len(row))
	}

	for i, dst := range []*string{&r.CPV, &r.Slot, &r.RdepsRaw, nil, &r.Use} {
		if dst == nil {
			continue
		}
		if err := json.Unmarshal(row[i], dst); err != nil {
			return fmt.Errorf("%w: field %d: %v", ErrBadFeed, i, err)
		}
	}

	var bt any
	if err := json.Unmarshal(row[3], &bt); err != nil {
		return fmt.Errorf("%w: build_time: %v", ErrBadFeed, err)
	}
	switch v := bt.(type) {
	case string:
		r.BuildTime = v
	case float64:
		r.BuildTime = strconv.FormatInt(int64(v), 10)
	default:
		return fmt.Errorf("%w: build_time has type %T", ErrBadFeed, bt)
	}
	return nil
}

// LoadRecords reads a JSON dump (an array of 5-element rows) from r.
func LoadRecords(r io.Reader) ([]Record, error) {
	var records []Record
	dec := json.NewDecoder(r)
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFeed, err)
	}
	return records, nil
}

// LoadRecordsFile reads a JSON dump from a file.
func LoadRecordsFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	records, err := LoadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}
