package models

import (
	"time"
)

// FlightStatus is the operational state of a flight. The numeric values are
// part of the catalog document format and must not be reordered.
type FlightStatus int

// FlightStatus constants
const (
	StatusOnTime FlightStatus = iota
	StatusDelayed
	StatusCancelled
	StatusBoarding
	StatusInFlight
)

var statusNames = []string{"OnTime", "Delayed", "Cancelled", "Boarding", "InFlight"}

// String returns the status name, or "Unknown" for values outside the enumeration
func (s FlightStatus) String() string {
	if s.IsValid() {
		return statusNames[s]
	}
	return "Unknown"
}

// IsValid checks if the status is one of the declared values
func (s FlightStatus) IsValid() bool {
	return s >= StatusOnTime && int(s) < len(statusNames)
}

// ParseFlightStatus looks up a status by its exact name
func ParseFlightStatus(name string) (FlightStatus, bool) {
	for i, n := range statusNames {
		if n == name {
			return FlightStatus(i), true
		}
	}
	return 0, false
}

// Flight represents a single scheduled flight in the catalog.
//
// No field is validated. Duration is stored as given and is never derived
// from DepartureTime and ArrivalTime, so the three may disagree.
type Flight struct {
	FlightNumber  string
	Airline       string
	Destination   string
	DepartureTime time.Time
	ArrivalTime   time.Time
	Status        FlightStatus
	Duration      time.Duration
	AircraftType  string // optional
	Terminal      string // optional
}

// IsDelayed checks if the flight is reported as delayed
func (f *Flight) IsDelayed() bool {
	return f.Status == StatusDelayed
}

