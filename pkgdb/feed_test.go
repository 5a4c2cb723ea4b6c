package pkgdb

import (
	"errors"
	"strings"
	"testing"
)

func TestLoadRecords(t *testing.T) {
	feed := `[
		["foo/app1-1.2.3-r4", "0", "foo/app2 !foo/app3", 1413309336, "cros-debug"],
		["foo/app2-4.5.6-r7", "0", "", "1413309336", ""]
	]`

	records, err := LoadRecords(strings.NewReader(feed))
	if err != nil {
		t.Fatalf("LoadRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("decoded %d records, want 2", len(records))
	}

	r := records[0]
	if r.CPV != "foo/app1-1.2.3-r4" || r.Slot != "0" ||
		r.RdepsRaw != "foo/app2 !foo/app3" || r.Use != "cros-debug" {
		t.Errorf("unexpected record: %+v", r)
	}
	// Numeric and string build_time both normalize to the same string.
	if r.BuildTime != "1413309336" {
		t.Errorf("numeric build_time = %q, want 1413309336", r.BuildTime)
	}
	if records[1].BuildTime != "1413309336" {
		t.Errorf("string build_time = %q, want 1413309336", records[1].BuildTime)
	}
}

func TestLoadRecords_Malformed(t *testing.T) {
	for _, feed := range []string{
		`not json`,
		`{"cpv": "foo/app1-1.0"}`,
		`[["foo/app1-1.0", "0", ""]]`,
		`[["foo/app1-1.0", "0", "", true, ""]]`,
		`[[1, "0", "", 100, ""]]`,
	} {
		if _, err := LoadRecords(strings.NewReader(feed)); !errors.Is(err, ErrBadFeed) {
			t.Errorf("LoadRecords(%q) = %v, want ErrBadFeed", feed, err)
		}
	}
}

func TestLoadRecordsFile_Missing(t *testing.T) {
	if _, err := LoadRecordsFile("/nonexistent/feed.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
