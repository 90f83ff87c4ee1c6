// Package extract turns free-form listing text fragments into typed values.
//
// Every extractor is a pure function over its input string. Extractors for
// optional fields return nil when their pattern does not match; only mileage
// is mandatory and reports ErrMileageMissing instead.
package extract

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrMileageMissing is returned when a key-specs blob carries no mileage.
var ErrMileageMissing = errors.New("mileage not found in key specs")

var (
	doorsPattern        = regexp.MustCompile(`([0-9])dr`)
	yearPattern         = regexp.MustCompile(`\b([0-9]{4})\b`)
	registrationPattern = regexp.MustCompile(`\(([0-9]{2}) reg\)`)
	mileagePattern      = regexp.MustCompile(`\s([,0-9]+) miles\s`)
	enginePattern       = regexp.MustCompile(`\b([.0-9]+)L\b`)
	powerPattern        = regexp.MustCompile(`\b([0-9]+)(PS|HP|BHP)\b`)
	ownersPattern       = regexp.MustCompile(`\b([0-9]+) owner(s)?\b`)
	distancePattern     = regexp.MustCompile(`\(([0-9]+) mile(s)?\)`)
	reviewsPattern      = regexp.MustCompile(`([0-9]+) review(s)?`)
)

// FirstGroup returns group 1 of the first match of re in text, converted by
// coerce. It returns nil when there is no match or the conversion fails.
func FirstGroup[T any](re *regexp.Regexp, text string, coerce func(string) (T, error)) *T {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return nil
	}
	v, err := coerce(m[1])
	if err != nil {
		return nil
	}
	return &v
}

// Int and Float are the coercions used by the numeric extractors.
func Int(s string) (int, error) { return strconv.Atoi(s) }

func Float(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

// Doors reads the door count from a subtitle such as "2.0 TDI 5dr".
func Doors(text string) *int {
	return FirstGroup(doorsPattern, text, Int)
}

// Year returns the first standalone four digit number. The service lists the
// model year before anything else numeric, so the first match wins.
func Year(text string) *int {
	return FirstGroup(yearPattern, text, Int)
}

// Registration returns the two digit plate code from "(68 reg)".
func Registration(text string) *int {
	return FirstGroup(registrationPattern, text, Int)
}

// Mileage returns the odometer reading with thousands separators removed.
func Mileage(text string) (int, error) {
	m := mileagePattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0, ErrMileageMissing
	}
	digits := strings.ReplaceAll(m[1], ",", "")
	miles, err := strconv.Atoi(digits)
	if err != nil {
		return 0, ErrMileageMissing
	}
	return miles, nil
}

// EngineLitres reads an engine size such as "2.0L".
func EngineLitres(text string) *float64 {
	return FirstGroup(enginePattern, text, Float)
}

// Power reads "201BHP", "190PS" or "150HP" and drops the unit.
func Power(text string) *int {
	return FirstGroup(powerPattern, text, Int)
}

// Owners reads "1 owner" or "3 owners".
func Owners(text string) *int {
	return FirstGroup(ownersPattern, text, Int)
}

// Distance reads the seller distance from "(12 miles)".
func Distance(text string) *int {
	return FirstGroup(distancePattern, text, Int)
}

// ReviewCount reads "134 reviews".
func ReviewCount(text string) *int {
	return FirstGroup(reviewsPattern, text, Int)
}

// Ulez reports whether the ULEZ compliance marker is present.
func Ulez(text string) bool {
	return strings.Contains(text, "ULEZ")
}
