package refine

import (
	"fmt"

	"github.com/gobwas/glob"

	"github.com/entrhq/replay/pkg/executor"
)

// Predicate decides whether an execution result is acceptable.
type Predicate func(*executor.Result) bool

// Succeeded accepts any execution that completed without error.
func Succeeded() Predicate {
	return func(r *executor.Result) bool {
		return r.Success
	}
}

// NonEmptyValue accepts successful executions whose return value renders
// to a non-empty string.
func NonEmptyValue() Predicate {
	return func(r *executor.Result) bool {
		return r.Success && r.Value != nil && fmt.Sprint(r.Value) != ""
	}
}

// ValueMatches accepts successful executions whose rendered return value
// matches the glob pattern. An invalid pattern rejects everything.
func ValueMatches(pattern string) Predicate {
	matcher, err := glob.Compile(pattern)
	return func(r *executor.Result) bool {
		if err != nil || !r.Success || r.Value == nil {
			return false
		}
		return matcher.Match(fmt.Sprint(r.Value))
	}
}

// MinOperations accepts successful executions that recorded at least n
// operations.
func MinOperations(n int) Predicate {
	return func(r *executor.Result) bool {
		return r.Success && r.Recording != nil && r.Recording.OperationCount >= n
	}
}

// All combines predicates; every one must accept.
func All(predicates ...Predicate) Predicate {
	return func(r *executor.Result) bool {
		for _, p := range predicates {
			if !p(r) {
				return false
			}
		}
		return true
	}
}
