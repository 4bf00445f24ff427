package grading

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericTolerance is the absolute difference under which two parsed numbers
// are the same answer ("40" and "40.00001").
const numericTolerance = 1e-4

// Base-10, optional sign, at most one decimal point. No exponents, no
// thousands separators, no "Inf"/"NaN" (strconv would accept those).
var numberPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// ParseNumber parses s as a plain decimal number. It expects an already
// normalized string and reports false for anything else.
func ParseNumber(s string) (float64, bool) {
	if !numberPattern.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func numericEqual(a, b string) bool {
	x, ok := ParseNumber(a)
	if !ok {
		return false
	}
	y, ok := ParseNumber(b)
	if !ok {
		return false
	}
	return math.Abs(x-y) < numericTolerance
}

// unitRescue accepts "40" against "40度" or "40°": the longer string must
// contain the shorter, the shorter must be a number, and both must reduce to
// the same digit sequence. "40" against "140" fails on the last check.
func unitRescue(a, b string) bool {
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if !strings.Contains(long, short) {
		return false
	}
	if _, ok := ParseNumber(short); !ok {
		return false
	}
	ds, dl := digitsOnly(short), digitsOnly(long)
	return ds != "" && ds == dl
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
}
