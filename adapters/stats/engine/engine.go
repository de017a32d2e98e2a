package engine

// CompareEngine provides the cross-input comparison computations: joining,
// correlation, ranking and set partitioning. All methods are pure functions
// over immutable result tables.
type CompareEngine struct {
	// correlation scalars are rounded to this many decimal digits for
	// stable reporting
	precision int
}

// NewCompareEngine creates a comparison engine with default settings
func NewCompareEngine() *CompareEngine {
	return &CompareEngine{precision: 7}
}
