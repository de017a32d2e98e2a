package de

import (
	"deqc/domain/core"
)

// SetName names one of the five overlap sets derived from the unshrunken pair
type SetName string

const (
	SetUp          SetName = "Up"
	SetDown        SetName = "Down"
	SetUnchanged   SetName = "Unchanged"
	SetTPMInput    SetName = "TPM_Input"
	SetCountsInput SetName = "Counts_Input"
)

// SetNames lists the five sets in canonical order
func SetNames() []SetName {
	return []SetName{SetUp, SetDown, SetUnchanged, SetTPMInput, SetCountsInput}
}

// MembershipRecord carries the five boolean flags for one (gene, input type)
// occurrence. A gene evaluated under both inputs yields two records, so the
// same gene may land in both TPM_Input and Counts_Input with different
// direction flags.
type MembershipRecord struct {
	GeneID      core.GeneID `json:"gene_id"`
	Input       InputType   `json:"input_type"`
	Up          bool        `json:"up"`
	Down        bool        `json:"down"`
	Unchanged   bool        `json:"unchanged"`
	TPMInput    bool        `json:"tpm_input"`
	CountsInput bool        `json:"counts_input"`
}

// In reports membership in a named set
func (r MembershipRecord) In(set SetName) bool {
	switch set {
	case SetUp:
		return r.Up
	case SetDown:
		return r.Down
	case SetUnchanged:
		return r.Unchanged
	case SetTPMInput:
		return r.TPMInput
	default:
		return r.CountsInput
	}
}

// SetPartition is the overlap view handed to the reporting collaborator:
// per-set gene memberships suitable for overlap-cardinality computation.
type SetPartition struct {
	Records []MembershipRecord `json:"records"`
	// Sets maps each set name to the genes that belong to it. Built from
	// Records; a plain mapping so callers need no domain types to count
	// overlaps.
	Sets map[SetName]map[core.GeneID]bool `json:"sets"`
	// ExcludedNaN counts occurrences dropped before membership because the
	// adjusted p-value carried no significance information.
	ExcludedNaN int `json:"excluded_nan"`
}

// Cardinality returns the size of a named set
func (p *SetPartition) Cardinality(set SetName) int {
	return len(p.Sets[set])
}

// Overlap returns the number of genes in every one of the given sets
func (p *SetPartition) Overlap(sets ...SetName) int {
	if len(sets) == 0 {
		return 0
	}
	count := 0
	for id := range p.Sets[sets[0]] {
		inAll := true
		for _, s := range sets[1:] {
			if !p.Sets[s][id] {
				inAll = false
				break
			}
		}
		if inAll {
			count++
		}
	}
	return count
}
