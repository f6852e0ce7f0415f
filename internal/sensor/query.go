package sensor

import (
	"net/url"
	"time"

	"github.com/nerrad567/sensorhub/internal/fault"
)

// ReadingQuery is a validated set of ListReadings parameters.
// Nil pointers mean the filter is absent.
type ReadingQuery struct {
	Page     int
	Limit    int
	Type     *Type
	MinValue *float64
	MaxValue *float64
	From     *time.Time
	To       *time.Time
}

// Page is one page of results with its pagination metadata.
type Page[T any] struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	TotalItems int  `json:"totalItems"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
	Results    []T  `json:"results"`
}

// ValidateListQuery checks query parameters in the fixed order page, limit,
// type, minValue, maxValue, from, to and returns the first failure.
// Empty values are treated as absent.
func ValidateListQuery(params url.Values) (ReadingQuery, error) {
	q := ReadingQuery{Page: DefaultPage, Limit: DefaultLimit}

	if v := params.Get("page"); v != "" {
		n, ok := parseInt(v)
		if !ok || n < 1 {
			return ReadingQuery{}, fault.Validation("page must be an integer greater than or equal to 1")
		}
		q.Page = n
	}

	if v := params.Get("limit"); v != "" {
		n, ok := parseInt(v)
		if !ok || n < 1 || n > MaxLimit {
			return ReadingQuery{}, fault.Validationf("limit must be between 1 and %d", MaxLimit)
		}
		q.Limit = n
	}

	if v := params.Get("type"); v != "" {
		t := Type(v)
		if !IsValidType(t) {
			return ReadingQuery{}, fault.Validation("Invalid type: must be one of temperature, humidity, moisture")
		}
		q.Type = &t
	}

	if v := params.Get("minValue"); v != "" {
		f, ok := parseFloat(v)
		if !ok {
			return ReadingQuery{}, fault.Validation("minValue must be a number")
		}
		q.MinValue = &f
	}

	if v := params.Get("maxValue"); v != "" {
		f, ok := parseFloat(v)
		if !ok {
			return ReadingQuery{}, fault.Validation("maxValue must be a number")
		}
		q.MaxValue = &f
	}

	if q.MinValue != nil && q.MaxValue != nil && *q.MinValue > *q.MaxValue {
		return ReadingQuery{}, fault.Validation("minValue cannot exceed maxValue")
	}

	if v := params.Get("from"); v != "" {
		t, err := ParseTimestamp(v)
		if err != nil {
			return ReadingQuery{}, fault.Validation("Invalid date format for 'from' parameter")
		}
		q.From = &t
	}

	if v := params.Get("to"); v != "" {
		t, err := ParseTimestamp(v)
		if err != nil {
			return ReadingQuery{}, fault.Validation("Invalid date format for 'to' parameter")
		}
		q.To = &t
	}

	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return ReadingQuery{}, fault.Validation("'from' cannot be later than 'to'")
	}

	return q, nil
}

// FilterReadings applies q's filters to readings, preserving order.
// The type filter is a join: matching sensor ids are collected first and
// readings are then kept by set membership.
func FilterReadings(q ReadingQuery, sensors []Sensor, readings []Reading) []Reading {
	var sensorIDs map[int]struct{}
	if q.Type != nil {
		sensorIDs = make(map[int]struct{})
		for _, s := range sensors {
			if s.Type == *q.Type {
				sensorIDs[s.ID] = struct{}{}
			}
		}
	}

	filtered := make([]Reading, 0, len(readings))
	for _, r := range readings {
		if sensorIDs != nil {
			if _, ok := sensorIDs[r.SensorID]; !ok {
				continue
			}
		}
		if q.MinValue != nil && r.Value < *q.MinValue {
			continue
		}
		if q.MaxValue != nil && r.Value > *q.MaxValue {
			continue
		}
		if q.From != nil || q.To != nil {
			// A reading without a readable instant matches no time range.
			at, ok := r.Time()
			if !ok {
				continue
			}
			if q.From != nil && at.Before(*q.From) {
				continue
			}
			if q.To != nil && at.After(*q.To) {
				continue
			}
		}
		filtered = append(filtered, r)
	}
	return filtered
}

// Paginate slices items into the requested page. A page past the end is
// an empty page, not an error. Results is never nil.
func Paginate[T any](items []T, page, limit int) Page[T] {
	if limit < 1 {
		limit = DefaultLimit
	}
	if page < 1 {
		page = DefaultPage
	}

	total := len(items)
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	inRange := totalPages > 0 && page <= totalPages

	results := []T{}
	if inRange {
		start := (page - 1) * limit
		end := min(start+limit, total)
		results = append(results, items[start:end]...)
	}

	// A page past the end reports no neighbours in either direction.
	return Page[T]{
		Page:       page,
		PageSize:   limit,
		TotalItems: total,
		TotalPages: totalPages,
		HasNext:    totalPages > 0 && page < totalPages,
		HasPrev:    inRange && page > 1,
		Results:    results,
	}
}

// ListReadings validates params, filters readings and paginates the result.
// It performs no mutation and is safe to call on any consistent snapshot.
func ListReadings(params url.Values, sensors []Sensor, readings []Reading) (Page[Reading], error) {
	q, err := ValidateListQuery(params)
	if err != nil {
		return Page[Reading]{}, err
	}
	return Paginate(FilterReadings(q, sensors, readings), q.Page, q.Limit), nil
}
