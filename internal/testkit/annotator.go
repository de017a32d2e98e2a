package testkit

import (
	"context"

	"deqc/domain/core"
	"deqc/ports"
)

// StaticAnnotator serves transcript counts from a fixed map
type StaticAnnotator struct {
	counts map[core.GeneID]int
}

var _ ports.Annotator = (*StaticAnnotator)(nil)

// NewStaticAnnotator creates an annotator over the given counts
func NewStaticAnnotator(counts map[core.GeneID]int) *StaticAnnotator {
	return &StaticAnnotator{counts: counts}
}

// TranscriptCount returns the count for a gene, or ErrNotFound
func (a *StaticAnnotator) TranscriptCount(ctx context.Context, gene core.GeneID) (int, error) {
	count, ok := a.counts[gene]
	if !ok {
		return 0, core.NewNotFoundError("gene annotation", gene.String())
	}
	return count, nil
}
