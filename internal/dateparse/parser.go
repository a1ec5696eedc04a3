// Package dateparse normalizes free-text date expressions into sortable,
// comparable ParsedDate values. Parsing never fails: anything unrecognized
// degrades to unknown precision with the original text preserved.
package dateparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/okhose/annals/internal/model"
)

var (
	isoRe       = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	yearMonthRe = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	bareYearRe  = regexp.MustCompile(`^([1-9]\d{3})$`)
	decadeRe    = regexp.MustCompile(`^([1-9]\d{2}0)s$`)
	thirdRe     = regexp.MustCompile(`^(early|mid|late)[\s-]([1-9]\d{2}0)s$`)
	circaRe     = regexp.MustCompile(`^(?:circa|ca\.?|c\.)\s*([1-9]\d{3})$`)
	rangeRe     = regexp.MustCompile(`^([1-9]\d{3})\s*(?:-|–|to)\s*([1-9]\d{3})$`)
	beforeRe    = regexp.MustCompile(`^(?:before|pre|prior to)\s+([1-9]\d{3})$`)
	afterRe     = regexp.MustCompile(`^(?:after|post|since)\s+([1-9]\d{3})$`)

	yearsAgoRe   = regexp.MustCompile(`^(?:(\d+)|a|an|one)\s+years?\s+(?:ago|earlier|before)$`)
	decadesAgoRe = regexp.MustCompile(`^(?:(\d+)|a|an|one)\s+decades?\s+(?:ago|earlier|before)$`)

	// Unanchored forms for date expressions embedded in prose, e.g.
	// "built in the 1920s". Tried in specificity order.
	embThirdRe  = regexp.MustCompile(`\b(early|mid|late)[\s-]([1-9]\d{2}0)s\b`)
	embCircaRe  = regexp.MustCompile(`\b(?:circa|ca\.?|c\.)\s*([1-9]\d{3})\b`)
	embBeforeRe = regexp.MustCompile(`\b(?:before|pre|prior to)\s+([1-9]\d{3})\b`)
	embAfterRe  = regexp.MustCompile(`\b(?:after|post|since)\s+([1-9]\d{3})\b`)
	embRangeRe  = regexp.MustCompile(`\b([1-9]\d{3})\s*(?:-|–|to)\s*([1-9]\d{3})\b`)
	embDecadeRe = regexp.MustCompile(`\b([1-9]\d{2}0)s\b`)
	embYearRe   = regexp.MustCompile(`\b([1-9]\d{3})\b`)
)

// Parser turns free-text date expressions into ParsedDate values.
type Parser struct {
	centuryBias bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithCenturyBias controls the ambiguous-century heuristic. When enabled
// (the default), "1900s" is read as the 1900s century with early emphasis
// rather than the literal 1900-1909 decade.
func WithCenturyBias(enabled bool) Option {
	return func(p *Parser) { p.centuryBias = enabled }
}

// New creates a parser with the century-bias heuristic enabled.
func New(opts ...Option) *Parser {
	p := &Parser{centuryBias: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse normalizes raw into a ParsedDate. The optional anchor is the
// reference date for relative expressions ("last year"); without an anchor
// a relative expression parses to unknown.
func (p *Parser) Parse(raw string, anchor *time.Time) model.ParsedDate {
	text := strings.ToLower(strings.TrimSpace(raw))
	d := model.ParsedDate{
		RawText:    raw,
		AnchorDate: anchor,
	}

	switch {
	case text == "":
		return unknown(d)

	case isoRe.MatchString(text) && !yearMonthRe.MatchString(text):
		m := isoRe.FindStringSubmatch(text)
		y, mo, day := atoi(m[1]), atoi(m[2]), atoi(m[3])
		if mo < 1 || mo > 12 || day < 1 || day > 31 {
			return unknown(d)
		}
		key := y*10000 + mo*100 + day
		d.Precision = model.PrecisionExact
		d.Display = fmt.Sprintf("%04d-%02d-%02d", y, mo, day)
		d.EDTF = d.Display
		d.SortStart, d.SortEnd = key, key
		return d

	case yearMonthRe.MatchString(text):
		m := yearMonthRe.FindStringSubmatch(text)
		y, mo := atoi(m[1]), atoi(m[2])
		if mo < 1 || mo > 12 {
			// "1920-19" style strings are neither a month nor a range
			return unknown(d)
		}
		d.Precision = model.PrecisionMonth
		d.Display = fmt.Sprintf("%04d-%02d", y, mo)
		d.EDTF = d.Display
		d.SortStart = y*10000 + mo*100 + 1
		d.SortEnd = y*10000 + mo*100 + 31
		return d

	case bareYearRe.MatchString(text):
		y := atoi(text)
		return yearDate(d, y, model.PrecisionYear, strconv.Itoa(y), strconv.Itoa(y))

	case circaRe.MatchString(text):
		y := atoi(circaRe.FindStringSubmatch(text)[1])
		return yearDate(d, y, model.PrecisionCirca, "ca. "+strconv.Itoa(y), strconv.Itoa(y)+"~")

	case thirdRe.MatchString(text):
		m := thirdRe.FindStringSubmatch(text)
		return p.parseThird(d, m[1], atoi(m[2]))

	case decadeRe.MatchString(text):
		return p.parseDecade(d, atoi(decadeRe.FindStringSubmatch(text)[1]))

	case rangeRe.MatchString(text):
		m := rangeRe.FindStringSubmatch(text)
		return rangeDate(d, atoi(m[1]), atoi(m[2]))

	case beforeRe.MatchString(text):
		return beforeDate(d, atoi(beforeRe.FindStringSubmatch(text)[1]))

	case afterRe.MatchString(text):
		return afterDate(d, atoi(afterRe.FindStringSubmatch(text)[1]))
	}

	if year, ok := resolveRelative(text, anchor); ok {
		d.WasRelative = true
		return yearDate(d, year, model.PrecisionYear, strconv.Itoa(year), strconv.Itoa(year))
	}

	if parsed, ok := p.scanEmbedded(d, text); ok {
		return parsed
	}

	return unknown(d)
}

// scanEmbedded looks for a date expression inside longer prose, so claim
// text like "built in the 1920s" still yields a sortable date.
func (p *Parser) scanEmbedded(d model.ParsedDate, text string) (model.ParsedDate, bool) {
	if m := embThirdRe.FindStringSubmatch(text); m != nil {
		return p.parseThird(d, m[1], atoi(m[2])), true
	}
	if m := embCircaRe.FindStringSubmatch(text); m != nil {
		y := atoi(m[1])
		return yearDate(d, y, model.PrecisionCirca, "ca. "+strconv.Itoa(y), strconv.Itoa(y)+"~"), true
	}
	if m := embBeforeRe.FindStringSubmatch(text); m != nil {
		return beforeDate(d, atoi(m[1])), true
	}
	if m := embAfterRe.FindStringSubmatch(text); m != nil {
		return afterDate(d, atoi(m[1])), true
	}
	if m := embRangeRe.FindStringSubmatch(text); m != nil {
		return rangeDate(d, atoi(m[1]), atoi(m[2])), true
	}
	if m := embDecadeRe.FindStringSubmatch(text); m != nil {
		return p.parseDecade(d, atoi(m[1])), true
	}
	if m := embYearRe.FindStringSubmatch(text); m != nil {
		y := atoi(m[1])
		return yearDate(d, y, model.PrecisionYear, strconv.Itoa(y), strconv.Itoa(y)), true
	}
	return d, false
}

func rangeDate(d model.ParsedDate, a, b int) model.ParsedDate {
	if b < a {
		a, b = b, a
	}
	d.Precision = model.PrecisionRange
	d.Display = fmt.Sprintf("%d–%d", a, b)
	d.EDTF = fmt.Sprintf("%d/%d", a, b)
	d.SortStart = a*10000 + 101
	d.SortEnd = b*10000 + 1231
	return d
}

func beforeDate(d model.ParsedDate, y int) model.ParsedDate {
	d.Precision = model.PrecisionBefore
	d.Display = "before " + strconv.Itoa(y)
	d.EDTF = "../" + strconv.Itoa(y)
	d.SortStart = model.SortKeyMin
	d.SortEnd = y*10000 + 101
	return d
}

func afterDate(d model.ParsedDate, y int) model.ParsedDate {
	d.Precision = model.PrecisionAfter
	d.Display = "after " + strconv.Itoa(y)
	d.EDTF = strconv.Itoa(y) + "/.."
	d.SortStart = y*10000 + 101
	d.SortEnd = model.SortKeyMax
	return d
}

// parseDecade handles "1920s" style expressions. Decades on a century
// boundary ("1900s", "1800s") are ambiguous: with the bias heuristic they
// read as the century with early emphasis, not the literal first decade.
func (p *Parser) parseDecade(d model.ParsedDate, start int) model.ParsedDate {
	if p.centuryBias && start%100 == 0 {
		d.Precision = model.PrecisionCentury
		d.CenturyBiasApplied = true
		d.Display = strconv.Itoa(start) + "s"
		d.EDTF = fmt.Sprintf("%02dXX", start/100)
		d.SortStart = start*10000 + 101
		d.SortEnd = (start+99)*10000 + 1231
		return d
	}

	d.Precision = model.PrecisionDecade
	d.Display = strconv.Itoa(start) + "s"
	d.EDTF = fmt.Sprintf("%03dX", start/10)
	d.SortStart = start*10000 + 101
	d.SortEnd = (start+9)*10000 + 1231
	return d
}

// parseThird handles "early/mid/late <decade>". Each qualifier narrows the
// decade to a third for sort-range purposes. The century-ambiguity flag is
// still recorded for boundary decades, but the qualifier pins the range to
// the literal decade.
func (p *Parser) parseThird(d model.ParsedDate, qualifier string, start int) model.ParsedDate {
	if p.centuryBias && start%100 == 0 {
		d.CenturyBiasApplied = true
	}

	var from, to int
	switch qualifier {
	case "early":
		d.Precision = model.PrecisionEarly
		from, to = start, start+3
	case "mid":
		d.Precision = model.PrecisionMid
		from, to = start+3, start+6
	default:
		d.Precision = model.PrecisionLate
		from, to = start+6, start+9
	}

	d.Display = fmt.Sprintf("%s %ds", qualifier, start)
	d.EDTF = fmt.Sprintf("%03dX", start/10)
	d.SortStart = from*10000 + 101
	d.SortEnd = to*10000 + 1231
	return d
}

// resolveRelative computes an absolute year for relative expressions.
// Returns false when the expression is not relative or no anchor is given.
func resolveRelative(text string, anchor *time.Time) (int, bool) {
	var offsetYears int
	switch {
	case text == "last year":
		offsetYears = 1
	case text == "this year" || text == "earlier this year":
		offsetYears = 0
	case yearsAgoRe.MatchString(text):
		offsetYears = relCount(yearsAgoRe.FindStringSubmatch(text)[1])
	case decadesAgoRe.MatchString(text):
		offsetYears = relCount(decadesAgoRe.FindStringSubmatch(text)[1]) * 10
	default:
		return 0, false
	}

	if anchor == nil {
		return 0, false
	}
	return anchor.Year() - offsetYears, true
}

// relCount reads the numeric part of a relative expression; the articles
// "a"/"an"/"one" leave the capture group empty and count as 1.
func relCount(capture string) int {
	if capture == "" {
		return 1
	}
	return atoi(capture)
}

func yearDate(d model.ParsedDate, year int, prec model.Precision, display, edtf string) model.ParsedDate {
	key := year*10000 + 101
	d.Precision = prec
	d.Display = display
	d.EDTF = edtf
	d.SortStart, d.SortEnd = key, key
	return d
}

func unknown(d model.ParsedDate) model.ParsedDate {
	d.Precision = model.PrecisionUnknown
	d.Display = d.RawText
	d.SortStart = model.SortKeyMax
	d.SortEnd = model.SortKeyMax
	return d
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
