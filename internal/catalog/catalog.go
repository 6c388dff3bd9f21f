// Package catalog holds an ordered, in-memory collection of flights with
// filtered queries and whole-document JSON import and export.
//
// A Catalog is not safe for concurrent use. Callers sharing one across
// goroutines must hold an exclusive lock for Add, Remove and LoadFromJSON;
// searches and exports may run concurrently with each other.
package catalog

import (
	"sort"
	"time"

	"flight_catalog/internal/models"
)

// RecentArrivalWindow is how far back SearchRecentArrivals looks.
const RecentArrivalWindow = time.Hour

// Catalog owns an ordered sequence of flights. Flights are copied in and
// out; results returned by searches never alias the catalog's storage.
type Catalog struct {
	flights []models.Flight
}

// New creates a catalog holding copies of flights in the given order.
func New(flights ...models.Flight) *Catalog {
	c := &Catalog{flights: make([]models.Flight, 0, len(flights))}
	c.flights = append(c.flights, flights...)
	return c
}

// Add appends a flight. Duplicates are kept.
func (c *Catalog) Add(f models.Flight) {
	c.flights = append(c.flights, f)
}

// Remove deletes every flight whose FlightNumber equals flightNumber exactly
// and returns how many were deleted.
func (c *Catalog) Remove(flightNumber string) int {
	kept := c.flights[:0]
	for _, f := range c.flights {
		if f.FlightNumber != flightNumber {
			kept = append(kept, f)
		}
	}

	removed := len(c.flights) - len(kept)
	// Clear the tail so dropped flights are not retained by the backing array
	clear(c.flights[len(kept):])
	c.flights = kept
	return removed
}

// Len returns the number of flights held.
func (c *Catalog) Len() int {
	return len(c.flights)
}

// Flights returns a copy of all flights in catalog order.
func (c *Catalog) Flights() []models.Flight {
	out := make([]models.Flight, len(c.flights))
	copy(out, c.flights)
	return out
}

// ---------------------------------------------------------------------------
// Searches
// ---------------------------------------------------------------------------

// SearchByAirline returns flights operated by airline, by departure time.
func (c *Catalog) SearchByAirline(airline string) []models.Flight {
	return c.search(func(f *models.Flight) bool {
		return f.Airline == airline
	}, byDeparture)
}

// SearchDelayed returns delayed flights, by departure time.
func (c *Catalog) SearchDelayed() []models.Flight {
	return c.search((*models.Flight).IsDelayed, byDeparture)
}

// SearchByStatus returns flights in the given status, by departure time.
func (c *Catalog) SearchByStatus(status models.FlightStatus) []models.Flight {
	return c.search(func(f *models.Flight) bool {
		return f.Status == status
	}, byDeparture)
}

// SearchByDepartureDate returns flights departing on the calendar date of
// date, by departure time. Only year, month and day are compared, each
// read in its own time's location.
func (c *Catalog) SearchByDepartureDate(date time.Time) []models.Flight {
	year, month, dd := date.Date()
	return c.search(func(f *models.Flight) bool {
		y, m, d := f.DepartureTime.Date()
		return y == year && m == month && d == dd
	}, byDeparture)
}

// SearchByTimeAndDestination returns flights to destination departing within
// [start, end], by departure time. The result is empty when start is after end.
func (c *Catalog) SearchByTimeAndDestination(start, end time.Time, destination string) []models.Flight {
	window := TimeRange{Start: start, End: end}
	if window.IsEmpty() {
		return []models.Flight{}
	}
	return c.search(func(f *models.Flight) bool {
		return f.Destination == destination && window.Contains(f.DepartureTime)
	}, byDeparture)
}

// SearchRecentArrivals returns flights arriving within the hour up to and
// including ref, by arrival time.
func (c *Catalog) SearchRecentArrivals(ref time.Time) []models.Flight {
	window := TimeRange{Start: ref.Add(-RecentArrivalWindow), End: ref}
	return c.search(func(f *models.Flight) bool {
		return window.Contains(f.ArrivalTime)
	}, byArrival)
}

func byDeparture(f *models.Flight) time.Time { return f.DepartureTime }

func byArrival(f *models.Flight) time.Time { return f.ArrivalTime }

// search copies matching flights out and stable-sorts them by key, so equal
// keys keep catalog order.
func (c *Catalog) search(match func(*models.Flight) bool, key func(*models.Flight) time.Time) []models.Flight {
	results := make([]models.Flight, 0)
	for i := range c.flights {
		if match(&c.flights[i]) {
			results = append(results, c.flights[i])
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return key(&results[i]).Before(key(&results[j]))
	})
	return results
}

// ---------------------------------------------------------------------------
// JSON import / export
// ---------------------------------------------------------------------------

// LoadFromJSON replaces the catalog's contents with the flights in doc. On
// any error the catalog is left untouched and the error is an *ImportError.
func (c *Catalog) LoadFromJSON(doc []byte) error {
	flights, err := DecodeDocument(doc)
	if err != nil {
		return err
	}
	c.flights = flights
	return nil
}

// ExportToJSON renders the catalog as an indented document in catalog order.
// Errors are *SerializeError.
func (c *Catalog) ExportToJSON() ([]byte, error) {
	return EncodeDocument(c.flights)
}
