package utils

import "github.com/google/uuid"

// UUIDGenerator issues identifiers for queue items and audit entries.
type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// Generate returns a version 7 UUID so freshly inserted rows sort in
// creation order; it falls back to a random UUID if the clock source fails.
func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}
