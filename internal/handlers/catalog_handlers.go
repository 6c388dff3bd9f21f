package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"flight_catalog/internal/catalog"
	"flight_catalog/internal/database"
	"flight_catalog/internal/models"
	"flight_catalog/internal/services"
)

// Request body caps
const (
	maxDocumentBytes = 32 << 20
	maxFlightBytes   = 1 << 20
)

// SearchResponse represents the response for every flight search
type SearchResponse struct {
	Flights []catalog.Record `json:"flights"`
	Count   int              `json:"count"`
}

// CatalogHandlers handles catalog-related HTTP requests
type CatalogHandlers struct {
	catalogService *services.CatalogService
}

// NewCatalogHandlers creates new catalog handlers
func NewCatalogHandlers(catalogService *services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{
		catalogService: catalogService,
	}
}

// Register adds every catalog route to mux
func (ch *CatalogHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/flights", ch.ExportFlights)
	mux.HandleFunc("POST /api/flights", ch.AddFlight)
	mux.HandleFunc("DELETE /api/flights/{flightNumber}", ch.RemoveFlight)
	mux.HandleFunc("GET /api/flights/search/airline", ch.SearchByAirline)
	mux.HandleFunc("GET /api/flights/search/delayed", ch.SearchDelayed)
	mux.HandleFunc("GET /api/flights/search/status", ch.SearchByStatus)
	mux.HandleFunc("GET /api/flights/search/date", ch.SearchByDepartureDate)
	mux.HandleFunc("GET /api/flights/search/window", ch.SearchByTimeAndDestination)
	mux.HandleFunc("GET /api/flights/search/arrivals", ch.SearchRecentArrivals)
	mux.HandleFunc("POST /api/catalog/import", ch.ImportCatalog)
	mux.HandleFunc("POST /api/catalog/reload", ch.ReloadCatalog)
	mux.HandleFunc("POST /api/catalog/save", ch.SaveCatalog)
	mux.HandleFunc("GET /api/catalog/info", ch.CatalogInfo)
}

// ExportFlights returns the whole catalog document
func (ch *CatalogHandlers) ExportFlights(w http.ResponseWriter, r *http.Request) {
	doc, err := ch.catalogService.Export()
	if err != nil {
		log.Printf("Catalog export error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// AddFlight handles adding a single flight record
func (ch *CatalogHandlers) AddFlight(w http.ResponseWriter, r *http.Request) {
	var record catalog.Record
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFlightBytes)).Decode(&record); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	flight, err := record.Flight()
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid flight: %v", err), http.StatusBadRequest)
		return
	}

	ch.catalogService.AddFlight(flight)

	writeJSON(w, http.StatusCreated, catalog.NewRecord(flight))
}

// RemoveFlight handles removing every flight with a flight number
func (ch *CatalogHandlers) RemoveFlight(w http.ResponseWriter, r *http.Request) {
	flightNumber := r.PathValue("flightNumber")
	removed := ch.catalogService.RemoveFlight(flightNumber)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"flight_number": flightNumber,
		"removed":       removed,
	})
}

// SearchByAirline handles airline search requests
func (ch *CatalogHandlers) SearchByAirline(w http.ResponseWriter, r *http.Request) {
	airline := r.URL.Query().Get("airline")
	writeSearch(w, ch.catalogService.SearchByAirline(airline))
}

// SearchDelayed handles delayed flight search requests
func (ch *CatalogHandlers) SearchDelayed(w http.ResponseWriter, r *http.Request) {
	writeSearch(w, ch.catalogService.SearchDelayed())
}

// SearchByStatus handles status search requests. The status may be a name or its number.
func (ch *CatalogHandlers) SearchByStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := parseStatus(r.URL.Query().Get("status"))
	if !ok {
		http.Error(w, "Invalid status parameter", http.StatusBadRequest)
		return
	}
	writeSearch(w, ch.catalogService.SearchByStatus(status))
}

// SearchByDepartureDate handles departure date search requests
func (ch *CatalogHandlers) SearchByDepartureDate(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(catalog.DateLayout, r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "Invalid date parameter. Must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	writeSearch(w, ch.catalogService.SearchByDepartureDate(date))
}

// SearchByTimeAndDestination handles departure window search requests
func (ch *CatalogHandlers) SearchByTimeAndDestination(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	start, err := catalog.ParseTimestamp(query.Get("start"))
	if err != nil {
		http.Error(w, "Invalid start parameter", http.StatusBadRequest)
		return
	}
	end, err := catalog.ParseTimestamp(query.Get("end"))
	if err != nil {
		http.Error(w, "Invalid end parameter", http.StatusBadRequest)
		return
	}

	writeSearch(w, ch.catalogService.SearchByTimeAndDestination(start, end, query.Get("destination")))
}

// SearchRecentArrivals handles recent arrival search requests
func (ch *CatalogHandlers) SearchRecentArrivals(w http.ResponseWriter, r *http.Request) {
	ref, err := catalog.ParseTimestamp(r.URL.Query().Get("ref"))
	if err != nil {
		http.Error(w, "Invalid ref parameter", http.StatusBadRequest)
		return
	}
	writeSearch(w, ch.catalogService.SearchRecentArrivals(ref))
}

// ImportCatalog replaces the catalog with the request body document
func (ch *CatalogHandlers) ImportCatalog(w http.ResponseWriter, r *http.Request) {
	doc, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	if err := ch.catalogService.Import(doc); err != nil {
		log.Printf("Catalog import error: %v", err)
		http.Error(w, err.Error(), importStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Catalog imported successfully",
		"count":   ch.catalogService.Len(),
	})
}

// ReloadCatalog replaces the catalog with the stored document
func (ch *CatalogHandlers) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	count, err := ch.catalogService.Reload(ctx)
	if err != nil {
		log.Printf("Catalog reload error: %v", err)
		http.Error(w, err.Error(), storeStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Catalog reloaded successfully",
		"count":   count,
	})
}

// SaveCatalog writes the catalog to the configured store
func (ch *CatalogHandlers) SaveCatalog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	revision, err := ch.catalogService.Save(ctx)
	if err != nil {
		log.Printf("Catalog save error: %v", err)
		http.Error(w, err.Error(), storeStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Catalog saved successfully",
		"revision": revision,
		"saved_at": time.Now(),
	})
}

// CatalogInfo describes the document held by the store
func (ch *CatalogHandlers) CatalogInfo(w http.ResponseWriter, r *http.Request) {
	info, err := ch.catalogService.StoreInfo(r.Context())
	if err != nil {
		http.Error(w, err.Error(), storeStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"store":   info,
		"flights": ch.catalogService.Len(),
	})
}

func parseStatus(s string) (models.FlightStatus, bool) {
	if status, ok := models.ParseFlightStatus(s); ok {
		return status, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	status := models.FlightStatus(n)
	return status, status.IsValid()
}

func importStatus(err error) int {
	switch {
	case errors.Is(err, catalog.ErrMissingData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, catalog.ErrParse):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func storeStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrNoStore):
		return http.StatusNotImplemented
	case errors.Is(err, database.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrParse), errors.Is(err, catalog.ErrMissingData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeSearch(w http.ResponseWriter, flights []models.Flight) {
	writeJSON(w, http.StatusOK, SearchResponse{
		Flights: catalog.NewRecords(flights),
		Count:   len(flights),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
