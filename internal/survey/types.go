package survey

import (
	"math"
	"strconv"
	"strings"
)

// SizeBucket identifies a garment size under evaluation, e.g. "105"
type SizeBucket string

// Compare orders buckets by garment size. Ids that are plain decimal numbers
// compare numerically and sort before every other id; the rest compare
// lexically.
func (b SizeBucket) Compare(other SizeBucket) int {
	x, okX := b.size()
	y, okY := other.size()
	switch {
	case okX && okY:
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	case okX:
		return -1
	case okY:
		return 1
	}
	return strings.Compare(string(b), string(other))
}

// size parses ids such as "105" or "105.5". Exponents, signs, NaN and Inf
// are not sizes.
func (b SizeBucket) size() (float64, bool) {
	s := string(b)
	if s == "" || strings.Count(s, ".") > 1 || s[0] == '.' || s[len(s)-1] == '.' {
		return 0, false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ResponseCategory is one of the three fixed survey answers
type ResponseCategory int

const (
	TooBig ResponseCategory = iota
	JustRight
	TooSmall
)

// Categories lists every category in precedence order (TooBig first).
var Categories = []ResponseCategory{TooBig, JustRight, TooSmall}

var categoryNames = map[ResponseCategory]string{
	TooBig:    "too_big",
	JustRight: "just_right",
	TooSmall:  "too_small",
}

func (c ResponseCategory) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether c is one of the closed set of categories
func (c ResponseCategory) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// precedence is used for tie-breaking; lower wins.
func (c ResponseCategory) precedence() int {
	return int(c)
}

// ParseCategory maps a wire name ("too_big", "just_right", "too_small") to a category.
func ParseCategory(name string) (ResponseCategory, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for c, n := range categoryNames {
		if n == normalized {
			return c, nil
		}
	}
	return 0, &ValidationError{Field: "category", Reason: "unknown response category " + strconv.Quote(name)}
}

// MarshalText lets categories be used as JSON object keys and values.
func (c ResponseCategory) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, &ValidationError{Field: "category", Reason: "unknown response category " + strconv.Itoa(int(c))}
	}
	return []byte(c.String()), nil
}

// UnmarshalText parses the wire name.
func (c *ResponseCategory) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Entry is the construction input for one bucket
type Entry struct {
	Bucket SizeBucket
	Counts map[ResponseCategory]int
}

// BucketSummary is a snapshot of everything derived for one bucket.
type BucketSummary struct {
	Bucket      SizeBucket                   `json:"bucket"`
	Total       int                          `json:"total"`
	Counts      map[ResponseCategory]int     `json:"counts"`
	Percentages map[ResponseCategory]float64 `json:"percentages,omitempty"`
	Dominant    ResponseCategory             `json:"dominant"`
}
