package ports

import (
	"context"

	"deqc/domain/core"
	"deqc/domain/de"
)

// FittedModel is the handle the external fitting collaborator exposes for
// one input type. Size factors, dispersions and the hypothesis test are
// assumed already run; IsFit reports that precondition.
//
// Shrinkage operates on a named model coefficient, not an arbitrary
// contrast; ResolveCoefficient maps a two-group contrast onto the
// coefficient name deterministically and fails with
// core.ErrCoefficientUnresolved when the design cannot express it.
type FittedModel interface {
	// IsFit reports whether the model has estimated size factors and
	// dispersions and run the test.
	IsFit() bool

	// CoefficientNames returns the model's coefficient names in design order.
	CoefficientNames() []string

	// ResolveCoefficient maps a contrast to the coefficient name shrinkage
	// methods operate on.
	ResolveCoefficient(contrast de.Contrast) (string, error)

	// Results extracts unshrunken test results filtered by the contrast.
	// Exactly one row per gene; inevaluable genes carry NaN fields, they are
	// never omitted.
	Results(ctx context.Context, contrast de.Contrast) ([]de.ResultRow, error)

	// Shrink extracts one shrinkage variant of the named coefficient from
	// the same underlying fit. Same one-row-per-gene guarantee as Results.
	Shrink(ctx context.Context, coefficient string, method de.ShrinkageMethod) ([]de.ResultRow, error)
}

// Annotator is the annotation collaborator. Transcript counts decorate
// comparison reports only; the statistical logic never consults them.
type Annotator interface {
	TranscriptCount(ctx context.Context, gene core.GeneID) (int, error)
}
