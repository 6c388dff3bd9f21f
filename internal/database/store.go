// Package database provides whole-document storage for catalog documents.
package database

import (
	"errors"
	"time"
)

// ErrDocumentNotFound is returned when a store holds no document yet
var ErrDocumentNotFound = errors.New("catalog document not found")

// DocumentInfo describes the last saved revision of a document
type DocumentInfo struct {
	Name     string    `json:"name"`
	Revision string    `json:"revision"`
	Size     int       `json:"size"`
	SavedAt  time.Time `json:"saved_at"`
}
