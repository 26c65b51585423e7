package prechecks

import (
	"sync"
)

type StageRunner struct {
	Checkers []Checker
}

func NewStageRunner(checkers []Checker) *StageRunner {
	return &StageRunner{
		Checkers: checkers,
	}
}

// Default returns the checks applied to names submitted over the service surfaces.
func Default() *StageRunner {
	return NewStageRunner([]Checker{
		NewLengthChecker(DefaultMaxLength),
		NewFormatChecker(),
	})
}

// Run executes every checker on name and returns the results in checker order.
func (r *StageRunner) Run(name string) []Result {
	results := make([]Result, len(r.Checkers))
	var wg sync.WaitGroup

	for i, checker := range r.Checkers {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()
			results[i] = c.Check(name)
		}(i, checker)
	}

	wg.Wait()
	return results
}

// FirstFailure returns the first failed result, if any.
func (r *StageRunner) FirstFailure(name string) (Result, bool) {
	for _, result := range r.Run(name) {
		if !result.Passed {
			return result, true
		}
	}
	return Result{}, false
}
