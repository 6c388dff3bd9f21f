package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"flight_catalog/internal/catalog"
	"flight_catalog/internal/database"
	"flight_catalog/internal/models"
)

// ErrNoStore is returned by store operations when the service runs without a store
var ErrNoStore = errors.New("no document store configured")

// DocumentStore reads and overwrites a whole catalog document
type DocumentStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, revision string, doc []byte) error
}

// InfoStore is implemented by stores that can describe their saved document
type InfoStore interface {
	Info(ctx context.Context) (*database.DocumentInfo, error)
}

// CatalogService shares one catalog between concurrent callers. Mutations
// take the write lock; searches and exports share the read lock.
type CatalogService struct {
	mu      sync.RWMutex
	catalog *catalog.Catalog
	store   DocumentStore
	// Singleflight group so concurrent reloads fetch the document once
	reloadGroup singleflight.Group
}

// NewCatalogService creates a service around an empty catalog. store may be nil.
func NewCatalogService(store DocumentStore) *CatalogService {
	return &CatalogService{
		catalog: catalog.New(),
		store:   store,
	}
}

// HasStore reports whether Reload and Save are available
func (cs *CatalogService) HasStore() bool {
	return cs.store != nil
}

// Len returns the number of flights in the catalog
func (cs *CatalogService) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.catalog.Len()
}

// AddFlight appends a flight to the catalog
func (cs *CatalogService) AddFlight(f models.Flight) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.catalog.Add(f)
	log.Printf("Added flight %s (%s to %s)", f.FlightNumber, f.Airline, f.Destination)
}

// RemoveFlight deletes every flight with the given number
func (cs *CatalogService) RemoveFlight(flightNumber string) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	removed := cs.catalog.Remove(flightNumber)
	log.Printf("Removed %d flights with number %s", removed, flightNumber)
	return removed
}

// SearchByAirline returns flights of an airline ordered by departure
func (cs *CatalogService) SearchByAirline(airline string) []models.Flight {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.catalog.SearchByAirline(airline)
}

// SearchDelayed returns delayed flights ordered by departure
func (cs *CatalogService) SearchDelayed() []models.Flight {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.catalog.SearchDelayed()
}

// SearchByStatus returns flights in a status ordered by departure
func (cs *CatalogService) SearchByStatus(status models.FlightStatus) []models.Flight {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.catalog.SearchByStatus(status)
}

// SearchByDepartureDate returns flights departing on the date ordered by departure
func (cs *CatalogService) SearchByDepartureDate(date time.Time) []models.Flight {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.catalog.SearchByDepartureDate(date)
}

// SearchByTimeAndDestination returns flights to destination departing in [start, end]
func (cs *CatalogService) SearchByTimeAndDestination(start, end time.Time, destination string) []models.Flight {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.catalog.SearchByTimeAndDestination(start, end, destination)
}

// SearchRecentArrivals returns flights that arrived in the hour up to ref
func (cs *CatalogService) SearchRecentArrivals(ref time.Time) []models.Flight {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.catalog.SearchRecentArrivals(ref)
}

// Export renders the catalog document
func (cs *CatalogService) Export() ([]byte, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.catalog.ExportToJSON()
}

// Import replaces the catalog with the flights in doc. On error the catalog
// is unchanged and the error is a *catalog.ImportError.
func (cs *CatalogService) Import(doc []byte) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if err := cs.catalog.LoadFromJSON(doc); err != nil {
		return err
	}
	log.Printf("Imported catalog with %d flights", cs.catalog.Len())
	return nil
}

// Reload replaces the catalog with the document held by the store and
// returns the new flight count. Concurrent calls share one store read.
func (cs *CatalogService) Reload(ctx context.Context) (int, error) {
	if cs.store == nil {
		return 0, ErrNoStore
	}

	count, err, shared := cs.reloadGroup.Do("reload", func() (interface{}, error) {
		doc, err := cs.store.Load(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to load catalog document: %w", err)
		}

		cs.mu.Lock()
		defer cs.mu.Unlock()
		if err := cs.catalog.LoadFromJSON(doc); err != nil {
			return 0, err
		}
		return cs.catalog.Len(), nil
	})
	if err != nil {
		return 0, err
	}

	if shared {
		log.Printf("Reload shared with a concurrent caller")
	}
	log.Printf("Reloaded catalog with %d flights", count.(int))
	return count.(int), nil
}

// Save writes the current catalog to the store under a new revision id
func (cs *CatalogService) Save(ctx context.Context) (string, error) {
	if cs.store == nil {
		return "", ErrNoStore
	}

	doc, err := cs.Export()
	if err != nil {
		return "", err
	}

	revision := uuid.New().String()
	if err := cs.store.Save(ctx, revision, doc); err != nil {
		return "", fmt.Errorf("failed to save catalog document: %w", err)
	}
	return revision, nil
}

// StoreInfo describes the document last saved to the store
func (cs *CatalogService) StoreInfo(ctx context.Context) (*database.DocumentInfo, error) {
	infoStore, ok := cs.store.(InfoStore)
	if !ok {
		return nil, ErrNoStore
	}
	return infoStore.Info(ctx)
}
