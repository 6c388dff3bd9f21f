package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flight_catalog/internal/models"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

var baseTime = time.Date(2023, 12, 27, 10, 0, 0, 0, time.UTC)

func newFlight(number, airline, dest string, dep time.Time, status models.FlightStatus) models.Flight {
	return models.Flight{
		FlightNumber:  number,
		Airline:       airline,
		Destination:   dest,
		DepartureTime: dep,
		ArrivalTime:   dep.Add(2 * time.Hour),
		Status:        status,
		Duration:      2 * time.Hour,
	}
}

func flightNumbers(flights []models.Flight) []string {
	out := make([]string, 0, len(flights))
	for _, f := range flights {
		out = append(out, f.FlightNumber)
	}
	return out
}

func setupCatalog() *Catalog {
	return New(
		newFlight("AB123", "MAU", "London", baseTime, models.StatusOnTime),
		newFlight("AB124", "MAU", "Paris", baseTime.Add(-1*time.Hour), models.StatusDelayed),
		newFlight("DL001", "DAL", "London", baseTime, models.StatusDelayed),
		newFlight("AB125", "MAU", "London", baseTime.Add(26*time.Hour), models.StatusCancelled),
		newFlight("DL002", "DAL", "London", baseTime.Add(3*time.Hour), models.StatusBoarding),
	)
}

// ---------------------------------------------------------------------------
// Add / Remove
// ---------------------------------------------------------------------------

func TestAddAppends(t *testing.T) {
	c := New()
	c.Add(newFlight("X1", "MAU", "London", baseTime, models.StatusOnTime))
	c.Add(newFlight("X1", "MAU", "London", baseTime, models.StatusOnTime))
	c.Add(models.Flight{})

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"X1", "X1", ""}, flightNumbers(c.Flights()))
}

func TestNewCopiesArguments(t *testing.T) {
	flights := []models.Flight{newFlight("X1", "MAU", "London", baseTime, models.StatusOnTime)}
	c := New(flights...)
	flights[0].FlightNumber = "changed"

	assert.Equal(t, []string{"X1"}, flightNumbers(c.Flights()))
}

func TestRemoveAllMatches(t *testing.T) {
	c := setupCatalog()
	c.Add(newFlight("AB123", "XXX", "Rome", baseTime, models.StatusOnTime))
	before := c.Len()

	removed := c.Remove("AB123")

	assert.Equal(t, 2, removed)
	assert.Equal(t, before-2, c.Len())
	assert.NotContains(t, flightNumbers(c.Flights()), "AB123")
	assert.Equal(t, []string{"AB124", "DL001", "AB125", "DL002"}, flightNumbers(c.Flights()))
}

func TestRemoveNoMatch(t *testing.T) {
	c := setupCatalog()
	before := c.Flights()

	removed := c.Remove("ZZZ")

	assert.Zero(t, removed)
	assert.Equal(t, before, c.Flights())
}

func TestRemoveIsCaseSensitive(t *testing.T) {
	c := setupCatalog()
	assert.Zero(t, c.Remove("ab123"))
	assert.Equal(t, 5, c.Len())
}

func TestRemoveOnEmptyCatalog(t *testing.T) {
	c := New()
	assert.Zero(t, c.Remove(""))
	assert.Zero(t, c.Len())
}

func TestRemoveDoesNotAffectEarlierSnapshots(t *testing.T) {
	c := setupCatalog()
	snapshot := c.Flights()
	results := c.SearchByAirline("MAU")

	c.Remove("AB124")

	assert.Len(t, snapshot, 5)
	assert.Equal(t, []string{"AB124", "AB123", "AB125"}, flightNumbers(results))
}

// ---------------------------------------------------------------------------
// Searches
// ---------------------------------------------------------------------------

func TestSearchByAirlineOrdersByDeparture(t *testing.T) {
	c := New(
		newFlight("A", "MAU", "London", baseTime, models.StatusOnTime),
		newFlight("B", "MAU", "London", baseTime.Add(-1*time.Hour), models.StatusOnTime),
		newFlight("C", "DAL", "London", baseTime, models.StatusOnTime),
	)

	assert.Equal(t, []string{"B", "A"}, flightNumbers(c.SearchByAirline("MAU")))
}

func TestSearchByAirlineExactMatch(t *testing.T) {
	c := setupCatalog()
	assert.Empty(t, c.SearchByAirline("mau"))
	assert.Empty(t, c.SearchByAirline(""))
	assert.Empty(t, c.SearchByAirline("MA"))
}

func TestSearchIsStableOnTies(t *testing.T) {
	c := New()
	for _, n := range []string{"T1", "T2", "T3", "T4"} {
		c.Add(newFlight(n, "MAU", "London", baseTime, models.StatusDelayed))
	}
	c.Add(newFlight("EARLY", "MAU", "London", baseTime.Add(-time.Minute), models.StatusDelayed))

	want := []string{"EARLY", "T1", "T2", "T3", "T4"}
	assert.Equal(t, want, flightNumbers(c.SearchByAirline("MAU")))
	assert.Equal(t, want, flightNumbers(c.SearchDelayed()))
	assert.Equal(t, want, flightNumbers(c.SearchByDepartureDate(baseTime)))
	assert.Equal(t, want, flightNumbers(c.SearchByTimeAndDestination(baseTime.Add(-time.Hour), baseTime, "London")))
}

func TestSearchDelayed(t *testing.T) {
	c := setupCatalog()
	assert.Equal(t, []string{"AB124", "DL001"}, flightNumbers(c.SearchDelayed()))
}

func TestSearchDelayedEmptyCatalog(t *testing.T) {
	results := New().SearchDelayed()
	require.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearchByStatus(t *testing.T) {
	c := setupCatalog()
	assert.Equal(t, []string{"AB125"}, flightNumbers(c.SearchByStatus(models.StatusCancelled)))
	assert.Empty(t, c.SearchByStatus(models.StatusInFlight))
}

func TestSearchByDepartureDate(t *testing.T) {
	c := setupCatalog()

	tests := []struct {
		name     string
		date     time.Time
		expected []string
	}{
		{"midnight of day", time.Date(2023, 12, 27, 0, 0, 0, 0, time.UTC), []string{"AB124", "AB123", "DL001", "DL002"}},
		{"time of day ignored", time.Date(2023, 12, 27, 23, 59, 59, 0, time.UTC), []string{"AB124", "AB123", "DL001", "DL002"}},
		{"next day", time.Date(2023, 12, 28, 8, 0, 0, 0, time.UTC), []string{"AB125"}},
		{"no flights", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), []string{}},
		{"zero date", time.Time{}, []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, flightNumbers(c.SearchByDepartureDate(tc.date)))
		})
	}
}

func TestSearchByTimeAndDestination(t *testing.T) {
	c := setupCatalog()

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		dest     string
		expected []string
	}{
		{"inclusive both ends", baseTime, baseTime.Add(3 * time.Hour), "London", []string{"AB123", "DL001", "DL002"}},
		{"single instant", baseTime, baseTime, "London", []string{"AB123", "DL001"}},
		{"excludes before start", baseTime.Add(time.Second), baseTime.Add(3 * time.Hour), "London", []string{"DL002"}},
		{"other destination", baseTime.Add(-2 * time.Hour), baseTime, "Paris", []string{"AB124"}},
		{"case sensitive destination", baseTime, baseTime.Add(3 * time.Hour), "london", []string{}},
		{"reversed range", baseTime.Add(3 * time.Hour), baseTime, "London", []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, flightNumbers(c.SearchByTimeAndDestination(tc.start, tc.end, tc.dest)))
		})
	}
}

func TestSearchByTimeAndDestinationReversedAlwaysEmpty(t *testing.T) {
	c := setupCatalog()
	for _, dest := range []string{"London", "Paris", ""} {
		assert.Empty(t, c.SearchByTimeAndDestination(baseTime.Add(time.Nanosecond), baseTime, dest))
	}
}

func TestSearchRecentArrivals(t *testing.T) {
	ref := baseTime
	x := models.Flight{FlightNumber: "X", ArrivalTime: ref.Add(-30 * time.Minute)}
	y := models.Flight{FlightNumber: "Y", ArrivalTime: ref.Add(-90 * time.Minute)}
	c := New(x, y)

	assert.Equal(t, []string{"X"}, flightNumbers(c.SearchRecentArrivals(ref)))
}

func TestSearchRecentArrivalsBoundsAndOrder(t *testing.T) {
	ref := baseTime
	c := New(
		models.Flight{FlightNumber: "AT_REF", ArrivalTime: ref},
		models.Flight{FlightNumber: "AT_START", ArrivalTime: ref.Add(-time.Hour)},
		models.Flight{FlightNumber: "TOO_OLD", ArrivalTime: ref.Add(-time.Hour - time.Nanosecond)},
		models.Flight{FlightNumber: "FUTURE", ArrivalTime: ref.Add(time.Nanosecond)},
		models.Flight{FlightNumber: "MIDDLE", ArrivalTime: ref.Add(-10 * time.Minute), DepartureTime: ref.Add(5 * time.Hour)},
	)

	assert.Equal(t, []string{"AT_START", "MIDDLE", "AT_REF"}, flightNumbers(c.SearchRecentArrivals(ref)))
}

func TestSearchRecentArrivalsZeroReference(t *testing.T) {
	c := setupCatalog()
	c.Add(models.Flight{FlightNumber: "ZERO"})

	assert.Equal(t, []string{"ZERO"}, flightNumbers(c.SearchRecentArrivals(time.Time{})))
}

func TestSearchDoesNotMutateCatalog(t *testing.T) {
	c := setupCatalog()
	before := c.Flights()

	results := c.SearchByAirline("MAU")
	require.NotEmpty(t, results)
	results[0].Airline = "changed"
	c.SearchDelayed()
	c.SearchByDepartureDate(baseTime)
	c.SearchByTimeAndDestination(baseTime, baseTime.Add(time.Hour), "London")
	c.SearchRecentArrivals(baseTime)

	assert.Equal(t, before, c.Flights())
}

func TestFlightsReturnsCopy(t *testing.T) {
	c := setupCatalog()
	flights := c.Flights()
	flights[0].FlightNumber = "changed"

	assert.Equal(t, "AB123", c.Flights()[0].FlightNumber)
}

// ---------------------------------------------------------------------------
// Import / Export
// ---------------------------------------------------------------------------

const sampleDocument = `{
  "flights": [
    {
      "FlightNumber": "AB123",
      "Airline": "MAU",
      "Destination": "London",
      "DepartureTime": "2023-12-27T15:30:00",
      "ArrivalTime": "2023-12-27T17:30:00",
      "Status": 0,
      "Duration": "02:00:00",
      "AircraftType": "",
      "Terminal": ""
    },
    {
      "FlightNumber": "DL001",
      "Airline": "DAL",
      "Destination": "Paris",
      "DepartureTime": "2023-12-28T08:00:00",
      "ArrivalTime": "2023-12-28T09:15:00",
      "Status": 1,
      "Duration": "01:15:00",
      "AircraftType": "A320",
      "Terminal": "2B"
    }
  ]
}`

func TestLoadFromJSON(t *testing.T) {
	c := New(newFlight("OLD", "XXX", "Nowhere", baseTime, models.StatusOnTime))

	require.NoError(t, c.LoadFromJSON([]byte(sampleDocument)))

	flights := c.Flights()
	require.Len(t, flights, 2)
	assert.Equal(t, models.Flight{
		FlightNumber:  "AB123",
		Airline:       "MAU",
		Destination:   "London",
		DepartureTime: time.Date(2023, 12, 27, 15, 30, 0, 0, time.UTC),
		ArrivalTime:   time.Date(2023, 12, 27, 17, 30, 0, 0, time.UTC),
		Status:        models.StatusOnTime,
		Duration:      2 * time.Hour,
	}, flights[0])
	assert.Equal(t, models.StatusDelayed, flights[1].Status)
	assert.Equal(t, "A320", flights[1].AircraftType)
	assert.Equal(t, "2B", flights[1].Terminal)
}

func TestLoadFromJSONEmptyArrayClearsCatalog(t *testing.T) {
	c := setupCatalog()
	require.NoError(t, c.LoadFromJSON([]byte(`{"flights": []}`)))
	assert.Zero(t, c.Len())
}

func TestLoadFromJSONFailuresLeaveCatalogUnchanged(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind ImportErrorKind
	}{
		{"missing key", `{"other": []}`, MissingData},
		{"null flights", `{"flights": null}`, MissingData},
		{"null document", `null`, MissingData},
		{"empty object", `{}`, MissingData},
		{"not json", `this is not json`, ParseError},
		{"empty input", ``, ParseError},
		{"truncated", `{"flights": [`, ParseError},
		{"root is array", `[{"FlightNumber": "X"}]`, ParseError},
		{"flights not array", `{"flights": {}}`, ParseError},
		{"field type mismatch", `{"flights": [{"FlightNumber": 42}]}`, ParseError},
		{"null element", `{"flights": [null]}`, ParseError},
		{"bad timestamp", `{"flights": [{"DepartureTime": "27/12/2023"}]}`, ParseError},
		{"timestamp with offset", `{"flights": [{"DepartureTime": "2023-12-27T15:30:00Z"}]}`, ParseError},
		{"bad duration", `{"flights": [{"Duration": "2h"}]}`, ParseError},
		{"unknown status name", `{"flights": [{"Status": "Lost"}]}`, ParseError},
		{"fractional status", `{"flights": [{"Status": 1.5}]}`, ParseError},
		{"second element bad", `{"flights": [{"FlightNumber": "OK"}, {"Airline": []}]}`, ParseError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := setupCatalog()
			before := c.Flights()

			err := c.LoadFromJSON([]byte(tc.doc))

			require.Error(t, err)
			var importErr *ImportError
			require.ErrorAs(t, err, &importErr)
			assert.Equal(t, tc.kind, importErr.Kind)
			assert.Equal(t, before, c.Flights())
		})
	}
}

func TestImportErrorIs(t *testing.T) {
	c := New()

	err := c.LoadFromJSON([]byte(`{}`))
	assert.ErrorIs(t, err, ErrMissingData)
	assert.NotErrorIs(t, err, ErrParse)

	err = c.LoadFromJSON([]byte(`{`))
	assert.ErrorIs(t, err, ErrParse)
	assert.NotErrorIs(t, err, ErrMissingData)
}

func TestLoadFromJSONPartialFlightUsesZeroValues(t *testing.T) {
	c := New()
	require.NoError(t, c.LoadFromJSON([]byte(`{"flights": [{"FlightNumber": "P1", "DepartureTime": null}]}`)))

	assert.Equal(t, []models.Flight{{FlightNumber: "P1"}}, c.Flights())
}

func TestLoadFromJSONAcceptsStatusName(t *testing.T) {
	c := New()
	require.NoError(t, c.LoadFromJSON([]byte(`{"flights": [{"Status": "InFlight"}, {"Status": 3}]}`)))

	flights := c.Flights()
	assert.Equal(t, models.StatusInFlight, flights[0].Status)
	assert.Equal(t, models.StatusBoarding, flights[1].Status)
}

func TestExportToJSONShape(t *testing.T) {
	c := New()
	require.NoError(t, c.LoadFromJSON([]byte(sampleDocument)))

	out, err := c.ExportToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, sampleDocument, string(out))
	assert.Equal(t, sampleDocument, string(out))
}

func TestExportEmptyCatalog(t *testing.T) {
	out, err := New().ExportToJSON()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"flights\": []\n}", string(out))
}

func TestRoundTrip(t *testing.T) {
	c := setupCatalog()
	c.Add(models.Flight{})
	c.Add(models.Flight{
		FlightNumber:  "ODD",
		Airline:       "MAU",
		Destination:   "Tokyo",
		DepartureTime: time.Date(2023, 12, 27, 23, 10, 5, 123456789, time.UTC),
		ArrivalTime:   time.Date(2023, 12, 29, 1, 0, 0, 1234500, time.UTC),
		Status:        models.FlightStatus(9),
		Duration:      -(26*time.Hour + 50*time.Minute + 3*time.Nanosecond),
		AircraftType:  "B777",
		Terminal:      "1",
	})

	out, err := c.ExportToJSON()
	require.NoError(t, err)

	restored := New()
	require.NoError(t, restored.LoadFromJSON(out))
	assert.Equal(t, c.Flights(), restored.Flights())
}

func TestExportRejectsUnrepresentableYear(t *testing.T) {
	tests := []struct {
		name   string
		flight models.Flight
	}{
		{"departure after 9999", models.Flight{FlightNumber: "A", DepartureTime: time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)}},
		{"arrival after 9999", models.Flight{FlightNumber: "A", ArrivalTime: time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)}},
		{"departure before year 0", models.Flight{FlightNumber: "A", DepartureTime: time.Date(-1, 1, 1, 0, 0, 0, 0, time.UTC)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := New(tc.flight).ExportToJSON()
			assert.Nil(t, out)

			var serr *SerializeError
			require.ErrorAs(t, err, &serr)
		})
	}
}

func TestExportBoundaryYearsRoundTrip(t *testing.T) {
	c := New(
		models.Flight{FlightNumber: "LOW", DepartureTime: time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC)},
		models.Flight{FlightNumber: "HIGH", ArrivalTime: time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)},
	)

	out, err := c.ExportToJSON()
	require.NoError(t, err)

	restored := New()
	require.NoError(t, restored.LoadFromJSON(out))
	assert.Equal(t, c.Flights(), restored.Flights())
}

// ---------------------------------------------------------------------------
// TimeRange
// ---------------------------------------------------------------------------

func TestTimeRange(t *testing.T) {
	tests := []struct {
		name     string
		r        TimeRange
		t        time.Time
		contains bool
		empty    bool
	}{
		{"start bound", TimeRange{baseTime, baseTime.Add(time.Hour)}, baseTime, true, false},
		{"end bound", TimeRange{baseTime, baseTime.Add(time.Hour)}, baseTime.Add(time.Hour), true, false},
		{"after end", TimeRange{baseTime, baseTime.Add(time.Hour)}, baseTime.Add(time.Hour + 1), false, false},
		{"single instant", TimeRange{baseTime, baseTime}, baseTime, true, false},
		{"reversed", TimeRange{baseTime.Add(time.Hour), baseTime}, baseTime, false, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.contains, tc.r.Contains(tc.t))
			assert.Equal(t, tc.empty, tc.r.IsEmpty())
		})
	}
}
