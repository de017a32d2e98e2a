package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	// GeneID is the opaque gene identifier both quantification inputs
	// summarize to. Unique within one (input, shrinkage) partition.
	GeneID string

	// RunID identifies one comparison pipeline run
	RunID ID

	// ArtifactID identifies a stored artifact
	ArtifactID ID
)

// String conversions for domain IDs
func (id GeneID) String() string     { return string(id) }
func (id RunID) String() string      { return ID(id).String() }
func (id ArtifactID) String() string { return ID(id).String() }

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// ParseGeneID parses a string into GeneID
func ParseGeneID(s string) (GeneID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("gene ID cannot be empty")
	}
	return GeneID(strings.TrimSpace(s)), nil
}
