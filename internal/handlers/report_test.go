package handlers

import (
	"testing"

	// The report endpoints resolve IANA zone names; keep the test binary
	// independent of the host zoneinfo files.
	_ "time/tzdata"
)

func TestParseTimezone(t *testing.T) {
	loc, err := parseTimezone("")
	if err != nil {
		t.Fatalf("parseTimezone(\"\"): %v", err)
	}
	if loc.String() != "Europe/Madrid" {
		t.Errorf("default zone = %q, want Europe/Madrid", loc)
	}

	loc, err = parseTimezone("  America/New_York  ")
	if err != nil {
		t.Fatalf("parseTimezone: %v", err)
	}
	if loc.String() != "America/New_York" {
		t.Errorf("zone = %q", loc)
	}

	if _, err := parseTimezone("Terra/Mitjana"); err == nil {
		t.Error("unknown zone accepted")
	}
}
