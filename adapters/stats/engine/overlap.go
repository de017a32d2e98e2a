package engine

import (
	"fmt"
	"math"

	"deqc/domain/core"
	"deqc/domain/de"
)

// Partition derives the five overlap sets from the unshrunken classified
// pair. Each table row is one (gene, input) occurrence; a gene evaluated
// under both inputs contributes two records, so it can land in TPM_Input
// and Counts_Input with different direction flags.
//
// Occurrences with a NaN adjusted p-value carry no significance information
// and are excluded from all five sets before membership is computed.
func (e *CompareEngine) Partition(tpm, counts *de.ResultTable) (*de.SetPartition, error) {
	if tpm.Key.Shrinkage != de.ShrinkNone || counts.Key.Shrinkage != de.ShrinkNone {
		return nil, core.NewValidationError("partition", fmt.Sprintf(
			"overlap sets derive from the unshrunken pair, got %s and %s", tpm.Key, counts.Key))
	}
	if tpm.Key.Input != de.InputTPM || counts.Key.Input != de.InputCounts {
		return nil, core.NewValidationError("partition", fmt.Sprintf(
			"expected TPM and COUNTS tables, got %s and %s", tpm.Key, counts.Key))
	}

	partition := &de.SetPartition{
		Sets: make(map[de.SetName]map[core.GeneID]bool, len(de.SetNames())),
	}
	for _, name := range de.SetNames() {
		partition.Sets[name] = make(map[core.GeneID]bool)
	}

	for _, table := range []*de.ResultTable{tpm, counts} {
		for _, row := range table.Rows {
			if !row.Evaluable() {
				partition.ExcludedNaN++
				continue
			}
			rec := membership(row)
			partition.Records = append(partition.Records, rec)
			for _, name := range de.SetNames() {
				if rec.In(name) {
					partition.Sets[name][rec.GeneID] = true
				}
			}
		}
	}

	return partition, nil
}

// membership sets the five flags for one occurrence. Up and Down require
// significance and a signed fold change; everything else significant-but-
// flat or not significant is Unchanged, so an occurrence lands in exactly
// one direction set.
func membership(row de.ResultRow) de.MembershipRecord {
	rec := de.MembershipRecord{
		GeneID:      row.GeneID,
		Input:       row.Input,
		TPMInput:    row.Input == de.InputTPM,
		CountsInput: row.Input == de.InputCounts,
	}

	switch {
	case row.Label == de.Significant && !math.IsNaN(row.LFC) && row.LFC > 0:
		rec.Up = true
	case row.Label == de.Significant && !math.IsNaN(row.LFC) && row.LFC < 0:
		rec.Down = true
	default:
		rec.Unchanged = true
	}

	return rec
}
