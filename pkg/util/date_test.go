package util

import (
	"testing"
	"time"
)

func TestParseDay(t *testing.T) {
	got, err := ParseDay("2024-03-01")
	if err != nil {
		t.Fatalf("ParseDay error: %v", err)
	}
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("ParseDay = %v, want %v", got, want)
	}

	if _, err := ParseDay("01/03/2024"); err == nil {
		t.Fatal("expected error for wrong layout")
	}
}

func TestParseDayDefault(t *testing.T) {
	def := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := ParseDayDefault("garbage", def); !got.Equal(def) {
		t.Fatalf("ParseDayDefault = %v, want default", got)
	}
	if got := ParseDayDefault("2024-05-05", def); got.Day() != 5 {
		t.Fatalf("ParseDayDefault ignored valid input: %v", got)
	}
}

func TestTruncateDay(t *testing.T) {
	in := time.Date(2024, 3, 1, 17, 45, 12, 999, time.FixedZone("X", 3600))
	got := TruncateDay(in)
	if got.Hour() != 0 || got.Minute() != 0 || got.Location() != time.UTC {
		t.Fatalf("TruncateDay = %v", got)
	}
	if FormatDay(got) != "2024-03-01" {
		t.Fatalf("FormatDay = %s", FormatDay(got))
	}
}
