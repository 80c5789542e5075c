package time

import (
	"testing"
	"time"
)

func TestDayAndFormat(t *testing.T) {
	in := time.Date(2024, 3, 9, 23, 59, 1, 5, time.FixedZone("x", -5*3600))
	got := Day(in)
	if FormatDay(got) != "2024-03-10" || got.Hour() != 0 || got.Location() != time.UTC {
		t.Fatalf("Day(%v) = %v", in, got)
	}
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2024-02-29")
	if err != nil || FormatDay(d) != "2024-02-29" {
		t.Fatalf("ParseDay = %v, %v", d, err)
	}
	if _, err := ParseDay("2024-02-30"); err == nil {
		t.Fatalf("expected error for invalid day")
	}
	if _, err := ParseDay("2024-02-29T10"); err == nil {
		t.Fatalf("expected error for hour suffix")
	}
}

func TestSameMonth(t *testing.T) {
	a := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	if !SameMonth(a, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("same month expected")
	}
	if SameMonth(a, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) || SameMonth(a, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("different month expected")
	}
}
