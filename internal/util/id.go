// Package util provides utility functions for bakeplan.
package util

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator provides thread-safe UUIDv7 generation.
// UUIDv7 ids sort by creation time, which keeps index inserts append-only.
type IDGenerator struct {
	mu sync.Mutex
}

// NewIDGenerator creates a new ID generator.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// NewID generates a new UUIDv7 identifier from this generator.
func (g *IDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := uuid.NewV7()
	if err != nil {
		// Only fails when the random source is broken.
		return uuid.New().String()
	}
	return id.String()
}

var generator = NewIDGenerator()

// NewID generates a new UUIDv7 identifier.
func NewID() string {
	return generator.NewID()
}

// ParseID validates and normalizes a UUID string.
func ParseID(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid ID format: %w", err)
	}
	return id.String(), nil
}

// IsValidID checks if a string is a valid UUID format.
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a display name into a lowercase, underscore separated slug.
// Example: "Chocolate Chip Cookie" -> "chocolate_chip_cookie"
func Slugify(name string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(name), "_")
	return strings.Trim(s, "_")
}

// ShortID returns the last eight characters of an id for display. UUIDv7
// ids made close together share their leading timestamp digits, so the
// random tail is what tells them apart.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[len(id)-8:]
}
