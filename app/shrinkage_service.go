package app

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"deqc/domain/de"
	"deqc/internal/errors"
	"deqc/ports"
)

// defaultMaxParallel bounds concurrent extraction branches. The eight
// branches share only read-only model handles, so the bound is about
// memory, not safety.
const defaultMaxParallel = 4

// ShrinkageService extracts, per input type, the unshrunken test results
// and the three shrinkage variants of the same fitted coefficient. Each
// (input, shrinkage) combination runs as an independent branch; a branch
// failure is surfaced in its outcome and never aborts siblings, so callers
// still obtain partial results.
type ShrinkageService struct {
	classifier  *de.Classifier
	maxParallel int64
}

// NewShrinkageService creates the extraction service with the given
// significance classifier
func NewShrinkageService(classifier *de.Classifier) *ShrinkageService {
	return &ShrinkageService{
		classifier:  classifier,
		maxParallel: defaultMaxParallel,
	}
}

type branchResult struct {
	outcome de.BranchOutcome
	table   *de.ResultTable
}

// ExtractAll runs every (input, shrinkage) branch for the supplied models.
// The returned set contains one classified table per successful branch;
// outcomes report every branch in canonical order, failed ones included.
func (s *ShrinkageService) ExtractAll(ctx context.Context, models map[de.InputType]ports.FittedModel, contrast de.Contrast) (de.ResultSet, []de.BranchOutcome) {
	sem := semaphore.NewWeighted(s.maxParallel)
	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make(map[de.TableKey]branchResult)

	for _, input := range de.InputTypes() {
		model, ok := models[input]
		if !ok {
			continue
		}
		for _, method := range de.ShrinkageMethods() {
			key := de.TableKey{Input: input, Shrinkage: method}
			wg.Add(1)
			go func(key de.TableKey, model ports.FittedModel) {
				defer wg.Done()
				if err := sem.Acquire(ctx, 1); err != nil {
					mu.Lock()
					results[key] = branchResult{outcome: de.BranchOutcome{
						Key: key, Status: de.BranchFailed, Error: err.Error(),
					}}
					mu.Unlock()
					return
				}
				defer sem.Release(1)

				res := s.runBranch(ctx, key, model, contrast)
				mu.Lock()
				results[key] = res
				mu.Unlock()
			}(key, model)
		}
	}
	wg.Wait()

	set := make(de.ResultSet)
	outcomes := make([]de.BranchOutcome, 0, len(results))
	for key, res := range results {
		if res.table != nil {
			set[key] = res.table
		}
		outcomes = append(outcomes, res.outcome)
	}
	sortOutcomes(outcomes)
	return set, outcomes
}

// runBranch extracts and classifies one (input, shrinkage) table. The
// model-not-fit precondition fails fast: nothing is ever fitted here, that
// is the external collaborator's job.
func (s *ShrinkageService) runBranch(ctx context.Context, key de.TableKey, model ports.FittedModel, contrast de.Contrast) branchResult {
	fail := func(err error) branchResult {
		return branchResult{outcome: de.BranchOutcome{
			Key:    key,
			Status: de.BranchFailed,
			Error:  err.Error(),
		}}
	}

	if !model.IsFit() {
		return fail(errors.PreconditionFailed(
			"model must have size factors, dispersions and test results before extraction", nil))
	}

	var rows []de.ResultRow
	var err error
	if key.Shrinkage == de.ShrinkNone {
		rows, err = model.Results(ctx, contrast)
	} else {
		// Shrinkage operates on a named coefficient, not a contrast;
		// resolution happens inside the branch so an unresolvable design
		// fails this branch alone.
		var coefficient string
		coefficient, err = model.ResolveCoefficient(contrast)
		if err == nil {
			rows, err = model.Shrink(ctx, coefficient, key.Shrinkage)
		}
	}
	if err != nil {
		return fail(errors.PreconditionFailed("branch extraction failed", err))
	}

	// Retag rows with the branch key so the table invariant holds no
	// matter how the adapter labeled them.
	for i := range rows {
		rows[i].Input = key.Input
		rows[i].Shrinkage = key.Shrinkage
	}

	table, err := de.NewResultTable(key, rows)
	if err != nil {
		return fail(errors.WithCode(errors.CodeValidationError, err))
	}

	return branchResult{
		outcome: de.BranchOutcome{Key: key, Status: de.BranchOK, RowCount: table.Len()},
		table:   s.classifier.Classify(table),
	}
}

// sortOutcomes orders outcomes canonically: input, then shrinkage method
func sortOutcomes(outcomes []de.BranchOutcome) {
	methodOrder := make(map[de.ShrinkageMethod]int, 4)
	for i, m := range de.ShrinkageMethods() {
		methodOrder[m] = i
	}
	sort.Slice(outcomes, func(a, b int) bool {
		if outcomes[a].Key.Input != outcomes[b].Key.Input {
			return outcomes[a].Key.Input == de.InputTPM
		}
		return methodOrder[outcomes[a].Key.Shrinkage] < methodOrder[outcomes[b].Key.Shrinkage]
	})
}
