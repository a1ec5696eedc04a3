package dateparse

import (
	"testing"
	"time"

	"github.com/okhose/annals/internal/model"
)

func TestParseExactAndMonth(t *testing.T) {
	p := New()

	tests := []struct {
		raw       string
		precision model.Precision
		display   string
		sortStart int
		sortEnd   int
	}{
		{"1923-06-14", model.PrecisionExact, "1923-06-14", 19230614, 19230614},
		{"1923-06", model.PrecisionMonth, "1923-06", 19230601, 19230631},
	}

	for _, tt := range tests {
		d := p.Parse(tt.raw, nil)
		if d.Precision != tt.precision {
			t.Errorf("Parse(%q) precision = %s, want %s", tt.raw, d.Precision, tt.precision)
		}
		if d.Display != tt.display {
			t.Errorf("Parse(%q) display = %q, want %q", tt.raw, d.Display, tt.display)
		}
		if d.SortStart != tt.sortStart || d.SortEnd != tt.sortEnd {
			t.Errorf("Parse(%q) keys = [%d,%d], want [%d,%d]",
				tt.raw, d.SortStart, d.SortEnd, tt.sortStart, tt.sortEnd)
		}
	}
}

func TestParseDecade(t *testing.T) {
	p := New()

	d := p.Parse("1920s", nil)
	if d.Precision != model.PrecisionDecade {
		t.Fatalf("precision = %s, want decade", d.Precision)
	}
	if d.SortStart != 19200101 || d.SortEnd != 19291231 {
		t.Errorf("range = [%d,%d], want 1920-1929", d.SortStart, d.SortEnd)
	}
	if d.CenturyBiasApplied {
		t.Error("century bias flagged on a non-boundary decade")
	}
}

func TestParseCenturyBias(t *testing.T) {
	p := New()

	d := p.Parse("1900s", nil)
	if d.Precision != model.PrecisionCentury {
		t.Fatalf("precision = %s, want century", d.Precision)
	}
	if !d.CenturyBiasApplied {
		t.Error("century bias not flagged")
	}
	if d.SortStart != 19000101 || d.SortEnd != 19991231 {
		t.Errorf("range = [%d,%d], want full century", d.SortStart, d.SortEnd)
	}

	// With the heuristic disabled the same text is the literal decade.
	literal := New(WithCenturyBias(false)).Parse("1900s", nil)
	if literal.Precision != model.PrecisionDecade {
		t.Errorf("unbiased precision = %s, want decade", literal.Precision)
	}
	if literal.SortEnd != 19091231 {
		t.Errorf("unbiased sortEnd = %d, want 19091231", literal.SortEnd)
	}
}

func TestParseDecadeThirds(t *testing.T) {
	p := New()

	tests := []struct {
		raw       string
		precision model.Precision
		sortStart int
		sortEnd   int
		biased    bool
	}{
		{"early 1920s", model.PrecisionEarly, 19200101, 19231231, false},
		{"mid 1920s", model.PrecisionMid, 19230101, 19261231, false},
		{"late 1920s", model.PrecisionLate, 19260101, 19291231, false},
		{"early 1900s", model.PrecisionEarly, 19000101, 19031231, true},
	}

	for _, tt := range tests {
		d := p.Parse(tt.raw, nil)
		if d.Precision != tt.precision {
			t.Errorf("Parse(%q) precision = %s, want %s", tt.raw, d.Precision, tt.precision)
		}
		if d.SortStart != tt.sortStart || d.SortEnd != tt.sortEnd {
			t.Errorf("Parse(%q) range = [%d,%d], want [%d,%d]",
				tt.raw, d.SortStart, d.SortEnd, tt.sortStart, tt.sortEnd)
		}
		if d.CenturyBiasApplied != tt.biased {
			t.Errorf("Parse(%q) biased = %v, want %v", tt.raw, d.CenturyBiasApplied, tt.biased)
		}
	}
}

func TestParseCirca(t *testing.T) {
	p := New()

	for _, raw := range []string{"ca 1920", "ca. 1920", "circa 1920", "c. 1920"} {
		d := p.Parse(raw, nil)
		if d.Precision != model.PrecisionCirca {
			t.Errorf("Parse(%q) precision = %s, want circa", raw, d.Precision)
		}
		if d.Year() != 1920 {
			t.Errorf("Parse(%q) year = %d, want 1920", raw, d.Year())
		}
		if d.EDTF != "1920~" {
			t.Errorf("Parse(%q) edtf = %q, want 1920~", raw, d.EDTF)
		}
	}
}

func TestParseRange(t *testing.T) {
	p := New()

	d := p.Parse("1920-1925", nil)
	if d.Precision != model.PrecisionRange {
		t.Fatalf("precision = %s, want range", d.Precision)
	}
	if d.SortStart/10000 != 1920 || d.SortEnd/10000 != 1925 {
		t.Errorf("range = [%d,%d], want years 1920 and 1925", d.SortStart, d.SortEnd)
	}

	// Reversed bounds are normalized.
	rev := p.Parse("1925 to 1920", nil)
	if rev.SortStart/10000 != 1920 || rev.SortEnd/10000 != 1925 {
		t.Errorf("reversed range = [%d,%d], want normalized", rev.SortStart, rev.SortEnd)
	}
}

func TestParseBeforeAfter(t *testing.T) {
	p := New()

	before := p.Parse("before 1950", nil)
	if before.Precision != model.PrecisionBefore {
		t.Fatalf("precision = %s, want before", before.Precision)
	}
	if before.SortStart != model.SortKeyMin {
		t.Errorf("sortStart = %d, want open lower sentinel", before.SortStart)
	}
	if before.SortEnd/10000 != 1950 {
		t.Errorf("sortEnd = %d, want year 1950", before.SortEnd)
	}

	after := p.Parse("after 1950", nil)
	if after.Precision != model.PrecisionAfter {
		t.Fatalf("precision = %s, want after", after.Precision)
	}
	if after.SortEnd != model.SortKeyMax {
		t.Errorf("sortEnd = %d, want open upper sentinel", after.SortEnd)
	}
}

func TestParseRelative(t *testing.T) {
	p := New()
	anchor := time.Date(2003, 7, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		raw  string
		year int
	}{
		{"last year", 2002},
		{"this year", 2003},
		{"3 years ago", 2000},
		{"two decades ago", 0}, // Spelled-out counts beyond one are not resolved
		{"2 decades ago", 1983},
		{"a decade ago", 1993},
	}

	for _, tt := range tests {
		d := p.Parse(tt.raw, &anchor)
		if tt.year == 0 {
			if !d.IsUnknown() {
				t.Errorf("Parse(%q) = %s, want unknown", tt.raw, d.Precision)
			}
			continue
		}
		if !d.WasRelative {
			t.Errorf("Parse(%q) not marked relative", tt.raw)
		}
		if d.Year() != tt.year {
			t.Errorf("Parse(%q) year = %d, want %d", tt.raw, d.Year(), tt.year)
		}
	}

	// Without an anchor a relative expression cannot be resolved.
	if d := p.Parse("last year", nil); !d.IsUnknown() {
		t.Errorf("anchorless relative = %s, want unknown", d.Precision)
	}
}

func TestParseEmbedded(t *testing.T) {
	p := New()

	tests := []struct {
		raw       string
		precision model.Precision
		year      int
	}{
		{"built in 1921", model.PrecisionYear, 1921},
		{"built in the 1920s", model.PrecisionDecade, 1920},
		{"demolished before 1950", model.PrecisionBefore, 1950},
		{"renovated circa 1987", model.PrecisionCirca, 1987},
		{"operated in the early 1960s", model.PrecisionEarly, 1960},
	}

	for _, tt := range tests {
		d := p.Parse(tt.raw, nil)
		if d.Precision != tt.precision {
			t.Errorf("Parse(%q) precision = %s, want %s", tt.raw, d.Precision, tt.precision)
		}
		if d.Year() != tt.year {
			t.Errorf("Parse(%q) year = %d, want %d", tt.raw, d.Year(), tt.year)
		}
		if d.RawText != tt.raw {
			t.Errorf("Parse(%q) rawText = %q, original text lost", tt.raw, d.RawText)
		}
	}
}

func TestParseUnknown(t *testing.T) {
	p := New()

	for _, raw := range []string{"gibberish", "", "sometime", "1920-19"} {
		d := p.Parse(raw, nil)
		if !d.IsUnknown() {
			t.Errorf("Parse(%q) precision = %s, want unknown", raw, d.Precision)
		}
		if d.Display != raw {
			t.Errorf("Parse(%q) display = %q, original text lost", raw, d.Display)
		}
		if d.SortStart != model.SortKeyMax || d.SortEnd != model.SortKeyMax {
			t.Errorf("Parse(%q) keys = [%d,%d], want maximal sentinel", raw, d.SortStart, d.SortEnd)
		}
	}
}

func TestParsePreservesRawText(t *testing.T) {
	p := New()
	d := p.Parse("  CA. 1920  ", nil)
	if d.RawText != "  CA. 1920  " {
		t.Errorf("rawText = %q, want original", d.RawText)
	}
	if d.Precision != model.PrecisionCirca {
		t.Errorf("precision = %s, want circa after case folding", d.Precision)
	}
}
