package refine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/entrhq/replay/pkg/executor"
	"github.com/entrhq/replay/pkg/recording"
)

func TestSucceeded(t *testing.T) {
	assert.True(t, Succeeded()(&executor.Result{Success: true}))
	assert.False(t, Succeeded()(&executor.Result{
		Err: &executor.Error{Kind: executor.ErrorKindRuntime, Err: errors.New("boom")},
	}))
}

func TestNonEmptyValue(t *testing.T) {
	p := NonEmptyValue()

	assert.True(t, p(&executor.Result{Success: true, Value: "result"}))
	assert.True(t, p(&executor.Result{Success: true, Value: 42}))
	assert.False(t, p(&executor.Result{Success: true, Value: ""}))
	assert.False(t, p(&executor.Result{Success: true}))
	assert.False(t, p(&executor.Result{Success: false, Value: "result"}))
}

func TestValueMatches(t *testing.T) {
	p := ValueMatches("Order *: confirmed")

	assert.True(t, p(&executor.Result{Success: true, Value: "Order 1042: confirmed"}))
	assert.False(t, p(&executor.Result{Success: true, Value: "Order 1042: pending"}))
	assert.False(t, p(&executor.Result{Success: false, Value: "Order 1042: confirmed"}))

	// An invalid pattern rejects rather than accepting everything.
	bad := ValueMatches("[")
	assert.False(t, bad(&executor.Result{Success: true, Value: "anything"}))
}

func TestMinOperations(t *testing.T) {
	p := MinOperations(2)

	assert.True(t, p(&executor.Result{Success: true, Recording: &recording.Info{OperationCount: 3}}))
	assert.True(t, p(&executor.Result{Success: true, Recording: &recording.Info{OperationCount: 2}}))
	assert.False(t, p(&executor.Result{Success: true, Recording: &recording.Info{OperationCount: 1}}))
	assert.False(t, p(&executor.Result{Success: true}))
}

func TestAll(t *testing.T) {
	p := All(Succeeded(), NonEmptyValue())

	assert.True(t, p(&executor.Result{Success: true, Value: "x"}))
	assert.False(t, p(&executor.Result{Success: true, Value: ""}))
	assert.True(t, All()(&executor.Result{}))
}
