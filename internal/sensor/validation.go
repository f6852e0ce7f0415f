package sensor

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nerrad567/sensorhub/internal/fault"
)

// Validation constants.
const (
	minLocationLength = 3

	// Paging defaults and bounds for ListReadings.
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// timestampLayouts are tried in order by ParseTimestamp. time.RFC3339
// accepts fractional seconds when parsing.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Epoch-millisecond timestamps must render as a four-digit year so the
// stored RFC 3339 text parses back through ParseTimestamp. The range sits
// well inside both int64 and the ECMAScript date range (±8.64e15 ms).
const (
	minRenderableMillis = -62167219200000 // 0000-01-01T00:00:00Z
	maxRenderableMillis = 253402300799999 // 9999-12-31T23:59:59.999Z
)

var (
	validTypes    map[Type]struct{}
	validStatuses map[Status]struct{}
)

func init() {
	validTypes = make(map[Type]struct{}, len(AllTypes()))
	for _, t := range AllTypes() {
		validTypes[t] = struct{}{}
	}

	validStatuses = make(map[Status]struct{}, len(AllStatuses()))
	for _, s := range AllStatuses() {
		validStatuses[s] = struct{}{}
	}
}

// IsValidType reports whether t is a known sensor type.
func IsValidType(t Type) bool {
	_, ok := validTypes[t]
	return ok
}

// IsValidStatus reports whether s is a known sensor status.
func IsValidStatus(s Status) bool {
	_, ok := validStatuses[s]
	return ok
}

// ParseTimestamp parses an ISO-8601 date or date-time. Layouts without a
// zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, lastErr)
}

// ValidateSensorPayload checks a decoded sensor body.
// Fields are checked in the order location, type, status and the first
// failure is returned as a validation error. Unknown fields are ignored.
func ValidateSensorPayload(raw map[string]any) (SensorInput, error) {
	location, err := requiredString(raw, "location")
	if err != nil {
		return SensorInput{}, err
	}
	if utf8.RuneCountInString(location) < minLocationLength {
		return SensorInput{}, fault.Validationf(`"location" length must be at least %d characters long`, minLocationLength)
	}

	typ, ok := oneOf(raw, "type", validTypes)
	if !ok {
		return SensorInput{}, enumError(raw, "type", typeNames())
	}

	status, ok := oneOf(raw, "status", validStatuses)
	if !ok {
		return SensorInput{}, enumError(raw, "status", statusNames())
	}

	return SensorInput{Location: location, Type: typ, Status: status}, nil
}

// ValidateReadingPayload checks a decoded reading body.
// timestamp must be a parseable date string or a millisecond epoch number;
// value must be a JSON number, not a numeric-looking string.
func ValidateReadingPayload(raw map[string]any) (ReadingInput, error) {
	var in ReadingInput

	ts, present := raw["timestamp"]
	if !present || ts == nil {
		return ReadingInput{}, fault.Validation(`"timestamp" is required`)
	}
	switch v := ts.(type) {
	case string:
		t, err := ParseTimestamp(v)
		if err != nil {
			return ReadingInput{}, fault.Validation(`"timestamp" must be a valid date`)
		}
		in.Timestamp, in.At = v, t
	case float64:
		if !epochMillisInRange(v) {
			return ReadingInput{}, fault.Validation(`"timestamp" must be a valid date`)
		}
		in.At = time.UnixMilli(int64(v)).UTC()
		in.Timestamp = in.At.Format(time.RFC3339Nano)
	default:
		return ReadingInput{}, fault.Validation(`"timestamp" must be a valid date`)
	}

	val, present := raw["value"]
	if !present || val == nil {
		return ReadingInput{}, fault.Validation(`"value" is required`)
	}
	f, ok := toFloat(val)
	if !ok {
		return ReadingInput{}, fault.Validation(`"value" must be a number`)
	}
	in.Value = f

	return in, nil
}

func requiredString(raw map[string]any, key string) (string, error) {
	v, present := raw[key]
	if !present || v == nil {
		return "", fault.Validationf(`"%s" is required`, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fault.Validationf(`"%s" must be a string`, key)
	}
	if s == "" {
		return "", fault.Validationf(`"%s" is not allowed to be empty`, key)
	}
	return s, nil
}

// oneOf looks up raw[key] as a member of set.
func oneOf[T ~string](raw map[string]any, key string, set map[T]struct{}) (T, bool) {
	s, ok := raw[key].(string)
	if !ok {
		return "", false
	}
	if _, ok := set[T(s)]; !ok {
		return "", false
	}
	return T(s), true
}

func enumError(raw map[string]any, key string, names []string) error {
	if v, present := raw[key]; !present || v == nil {
		return fault.Validationf(`"%s" is required`, key)
	}
	return fault.Validationf(`"%s" must be one of [%s]`, key, strings.Join(names, ", "))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// epochMillisInRange reports whether v is a usable millisecond timestamp.
// NaN fails both comparisons.
func epochMillisInRange(v float64) bool {
	return v >= minRenderableMillis && v <= maxRenderableMillis
}

func typeNames() []string {
	names := make([]string, 0, len(AllTypes()))
	for _, t := range AllTypes() {
		names = append(names, string(t))
	}
	return names
}

func statusNames() []string {
	names := make([]string, 0, len(AllStatuses()))
	for _, s := range AllStatuses() {
		names = append(names, string(s))
	}
	return names
}

// parseInt accepts only a plain decimal integer. Leading or trailing
// garbage such as "2abc" or " 2" is rejected.
func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// parseFloat accepts a finite decimal number. Hexadecimal forms such as
// "0x1p4", which strconv.ParseFloat also accepts, are rejected.
func parseFloat(s string) (float64, bool) {
	if strings.ContainsAny(s, "xX") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseID parses a path identifier. Callers report failures as NotFound
// with the raw text.
func ParseID(s string) (int, bool) {
	return parseInt(s)
}
