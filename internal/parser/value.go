package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// ParseAmount converts a monetary string into a signed decimal. It accepts
// both Brazilian ("1.234,56") and American ("1,234.56") conventions:
//   - when both separators appear, whichever comes later is the decimal point;
//   - a lone "," is decimal only when exactly two digits follow it, otherwise
//     it is a thousands separator (and the same rule mirrored for a lone ".").
//
// Sign markers: a leading or trailing "-" and a trailing "D" force negative;
// a trailing "C" forces positive. A leading "R$" is ignored.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("ParseAmount: empty value")
	}

	s = strings.TrimSpace(strings.ReplaceAll(s, "R$", ""))

	negative := false
	forcePositive := false
	switch {
	case strings.HasSuffix(s, "-"):
		negative = true
		s = strings.TrimSpace(s[:len(s)-1])
	case strings.HasSuffix(s, "D"), strings.HasSuffix(s, "d"):
		negative = true
		s = strings.TrimSpace(s[:len(s)-1])
	case strings.HasSuffix(s, "C"), strings.HasSuffix(s, "c"):
		forcePositive = true
		s = strings.TrimSpace(s[:len(s)-1])
	}
	if strings.HasPrefix(s, "-") {
		negative = true && !forcePositive
		s = strings.TrimSpace(s[1:])
	} else if strings.HasPrefix(s, "+") {
		s = strings.TrimSpace(s[1:])
	}

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			// Brazilian: dots are thousands, comma is decimal.
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			// American: commas are thousands.
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if len(s)-comma-1 == 2 && strings.Count(s, ",") == 1 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case dot >= 0:
		if len(s)-dot-1 == 2 && strings.Count(s, ".") == 1 {
			// Already a plain decimal.
		} else {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ParseAmount: %w", err)
	}
	if forcePositive {
		return v.Abs(), nil
	}
	if negative {
		return v.Abs().Neg(), nil
	}
	return v, nil
}

// Date tokens must match one of these shapes before any layout is attempted,
// so that generic numeric tokens ("0000", "6000") are never misread as dates.
var dateShapes = []struct {
	re     *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`), "2/1/2006"},
	{regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2}$`), "2/1/06"},
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), "2006-01-02"},
	{regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`), "2-1-2006"},
	{regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{2}$`), "2-1-06"},
}

var multiSpace = regexp.MustCompile(`\s+`)

// ParseDate converts a Brazilian or ISO date token to a calendar date.
// Accepted shapes: DD/MM/YYYY, DD/MM/YY, YYYY-MM-DD, DD-MM-YYYY, DD-MM-YY.
func ParseDate(s string) (civil.Date, error) {
	s = multiSpace.ReplaceAllString(strings.TrimSpace(s), " ")
	if s == "" {
		return civil.Date{}, fmt.Errorf("ParseDate: empty value")
	}
	for _, shape := range dateShapes {
		if !shape.re.MatchString(s) {
			continue
		}
		t, err := time.Parse(shape.layout, s)
		if err != nil {
			return civil.Date{}, fmt.Errorf("ParseDate: %q: %w", s, err)
		}
		return civil.DateOf(t), nil
	}
	return civil.Date{}, fmt.Errorf("ParseDate: %q is not a recognized date", s)
}

// IsDateToken reports whether s has one of the accepted date shapes and
// denotes a real calendar date.
func IsDateToken(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}
