package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"flight_catalog/internal/models"
)

// ---------------------------------------------------------------------------
// Document format
// ---------------------------------------------------------------------------
//
//	{
//	  "flights": [
//	    {
//	      "FlightNumber": "AB123",
//	      "Airline": "MAU",
//	      "Destination": "London",
//	      "DepartureTime": "2023-12-27T15:30:00",
//	      "ArrivalTime": "2023-12-27T17:30:00",
//	      "Status": 0,
//	      "Duration": "02:00:00",
//	      "AircraftType": "",
//	      "Terminal": ""
//	    }
//	  ]
//	}

// TimestampLayout is the wall-clock layout used for DepartureTime and
// ArrivalTime. No offset is written or accepted.
const TimestampLayout = "2006-01-02T15:04:05"

// DateLayout is the layout for calendar-date query parameters.
const DateLayout = "2006-01-02"

const (
	tickLayout = TimestampLayout + ".9999999"
	nanoLayout = TimestampLayout + ".999999999"
)

// Document is the top-level catalog document.
type Document struct {
	Flights []*Record `json:"flights"`
}

// Record is the wire form of a models.Flight. Field names are fixed by the
// document format and are independent of the Go field names.
type Record struct {
	FlightNumber  string     `json:"FlightNumber"`
	Airline       string     `json:"Airline"`
	Destination   string     `json:"Destination"`
	DepartureTime string     `json:"DepartureTime"`
	ArrivalTime   string     `json:"ArrivalTime"`
	Status        StatusCode `json:"Status"`
	Duration      string     `json:"Duration"`
	AircraftType  string     `json:"AircraftType"`
	Terminal      string     `json:"Terminal"`
}

// NewRecord converts a flight to its wire form.
func NewRecord(f models.Flight) Record {
	return Record{
		FlightNumber:  f.FlightNumber,
		Airline:       f.Airline,
		Destination:   f.Destination,
		DepartureTime: FormatTimestamp(f.DepartureTime),
		ArrivalTime:   FormatTimestamp(f.ArrivalTime),
		Status:        StatusCode(f.Status),
		Duration:      FormatDuration(f.Duration),
		AircraftType:  f.AircraftType,
		Terminal:      f.Terminal,
	}
}

// NewRecords converts flights to wire form, preserving order.
func NewRecords(flights []models.Flight) []Record {
	records := make([]Record, 0, len(flights))
	for _, f := range flights {
		records = append(records, NewRecord(f))
	}
	return records
}

// Flight converts the record back to a flight. Empty timestamp and duration
// text decode to zero values.
func (r Record) Flight() (models.Flight, error) {
	f := models.Flight{
		FlightNumber: r.FlightNumber,
		Airline:      r.Airline,
		Destination:  r.Destination,
		Status:       models.FlightStatus(r.Status),
		AircraftType: r.AircraftType,
		Terminal:     r.Terminal,
	}

	var err error
	if r.DepartureTime != "" {
		if f.DepartureTime, err = ParseTimestamp(r.DepartureTime); err != nil {
			return models.Flight{}, fmt.Errorf("invalid DepartureTime: %w", err)
		}
	}
	if r.ArrivalTime != "" {
		if f.ArrivalTime, err = ParseTimestamp(r.ArrivalTime); err != nil {
			return models.Flight{}, fmt.Errorf("invalid ArrivalTime: %w", err)
		}
	}
	if r.Duration != "" {
		if f.Duration, err = ParseDuration(r.Duration); err != nil {
			return models.Flight{}, fmt.Errorf("invalid Duration: %w", err)
		}
	}

	return f, nil
}

// DecodeDocument parses a catalog document. It returns a non-nil slice on
// success, empty when the document lists no flights.
func DecodeDocument(data []byte) ([]models.Flight, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ImportError{Kind: ParseError, Err: err}
	}
	if doc.Flights == nil {
		return nil, &ImportError{Kind: MissingData}
	}

	flights := make([]models.Flight, 0, len(doc.Flights))
	for i, r := range doc.Flights {
		if r == nil {
			return nil, &ImportError{Kind: ParseError, Err: fmt.Errorf("flight %d is null", i)}
		}
		f, err := r.Flight()
		if err != nil {
			return nil, &ImportError{Kind: ParseError, Err: fmt.Errorf("flight %d: %w", i, err)}
		}
		flights = append(flights, f)
	}
	return flights, nil
}

// EncodeDocument renders flights as an indented catalog document.
func EncodeDocument(flights []models.Flight) ([]byte, error) {
	doc := Document{Flights: make([]*Record, 0, len(flights))}
	for i, f := range flights {
		if err := checkTimestamp(f.DepartureTime); err != nil {
			return nil, &SerializeError{Err: fmt.Errorf("flight %d DepartureTime: %w", i, err)}
		}
		if err := checkTimestamp(f.ArrivalTime); err != nil {
			return nil, &SerializeError{Err: fmt.Errorf("flight %d ArrivalTime: %w", i, err)}
		}
		r := NewRecord(f)
		doc.Flights = append(doc.Flights, &r)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &SerializeError{Err: err}
	}
	return data, nil
}

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

// StatusCode carries a FlightStatus on the wire. It is written as the
// ordinal and read from either the ordinal or the exact status name.
// Ordinals outside the enumeration pass through unchanged.
type StatusCode models.FlightStatus

func (s StatusCode) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(s), 10), nil
}

func (s *StatusCode) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		status, ok := models.ParseFlightStatus(name)
		if !ok {
			return fmt.Errorf("unknown flight status %q", name)
		}
		*s = StatusCode(status)
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid flight status %s: %w", data, err)
	}
	*s = StatusCode(n)
	return nil
}

// ---------------------------------------------------------------------------
// Timestamps
// ---------------------------------------------------------------------------

// FormatTimestamp writes the wall clock of t without an offset. Fractional
// seconds are emitted only when non-zero. The location is dropped, so a
// non-UTC time reads back as the same wall clock in UTC, not the same instant.
func FormatTimestamp(t time.Time) string {
	if t.Nanosecond()%100 != 0 {
		return t.Format(nanoLayout)
	}
	return t.Format(tickLayout)
}

// ParseTimestamp reads a wall-clock timestamp with up to nine fractional
// digits. The result is in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if !timestampPattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return time.Parse(TimestampLayout, s)
}

var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d{1,9})?$`)

// checkTimestamp rejects years the four-digit layout cannot write.
func checkTimestamp(t time.Time) error {
	if year := t.Year(); year < 0 || year > 9999 {
		return fmt.Errorf("year %d outside 0000-9999", year)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Durations
// ---------------------------------------------------------------------------

// [-][d.]hh:mm:ss[.fffffff]
var durationPattern = regexp.MustCompile(`^(-)?(?:(\d+)\.)?(\d{1,2}):(\d{1,2}):(\d{1,2})(?:\.(\d{1,9}))?$`)

const day = 24 * time.Hour

// FormatDuration writes d as [-][d.]hh:mm:ss[.fffffff]. The fraction has
// seven digits when d is a whole number of 100ns ticks and nine otherwise.
func FormatDuration(d time.Duration) string {
	neg := d < 0
	u := uint64(d)
	if neg {
		u = uint64(-d)
	}

	days := u / uint64(day)
	rem := u % uint64(day)
	hours := rem / uint64(time.Hour)
	rem %= uint64(time.Hour)
	minutes := rem / uint64(time.Minute)
	rem %= uint64(time.Minute)
	seconds := rem / uint64(time.Second)
	frac := rem % uint64(time.Second)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	if days > 0 {
		fmt.Fprintf(&b, "%d.", days)
	}
	fmt.Fprintf(&b, "%02d:%02d:%02d", hours, minutes, seconds)
	if frac != 0 {
		if frac%100 == 0 {
			fmt.Fprintf(&b, ".%07d", frac/100)
		} else {
			fmt.Fprintf(&b, ".%09d", frac)
		}
	}
	return b.String()
}

// ParseDuration reads the format written by FormatDuration. Hours must be
// below 24, minutes and seconds below 60.
func ParseDuration(s string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	neg := m[1] == "-"

	var days uint64
	if m[2] != "" {
		var err error
		if days, err = strconv.ParseUint(m[2], 10, 64); err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
	}

	hours, _ := strconv.ParseUint(m[3], 10, 64)
	minutes, _ := strconv.ParseUint(m[4], 10, 64)
	seconds, _ := strconv.ParseUint(m[5], 10, 64)
	if hours >= 24 || minutes >= 60 || seconds >= 60 {
		return 0, fmt.Errorf("invalid duration %q: component out of range", s)
	}

	var frac uint64
	if digits := m[6]; digits != "" {
		frac, _ = strconv.ParseUint(digits+strings.Repeat("0", 9-len(digits)), 10, 64)
	}

	clock := hours*uint64(time.Hour) + minutes*uint64(time.Minute) + seconds*uint64(time.Second) + frac

	limit := uint64(math.MaxInt64)
	if neg {
		limit++
	}
	if days > (limit-clock)/uint64(day) {
		return 0, fmt.Errorf("invalid duration %q: out of range", s)
	}

	total := days*uint64(day) + clock
	if neg {
		return time.Duration(-int64(total)), nil
	}
	return time.Duration(total), nil
}
