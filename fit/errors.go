// Public domain.

package fit

import "fmt"

// ConvergenceError reports a fit that ended without convergence.  Last
// holds the last stable result: the best parameter set reached, never a
// worse one presented as success.
type ConvergenceError struct {
	Status Status
	Last   *Result
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("fit: %s after %d iterations, chi2 %.6g",
		e.Status, e.Last.Iterations, e.Last.Chi2)
}
