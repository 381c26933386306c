package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Format(t *testing.T) {
	t.Parallel()

	err := New(CodeInvocation, "constructor failed", errors.New("boom")).WithKey("*app.Server")
	assert.Equal(t, `[INVOCATION] key="*app.Server": constructor failed: boom`, err.Error())

	err = Configuration("more than one qualifier on %s", "app.Repo")
	assert.Equal(t, "[CONFIGURATION] more than one qualifier on app.Repo", err.Error())
}

func TestError_IsComparesCodes(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrapped: %w", Cyclic([]string{"A", "B", "A"}))
	assert.True(t, errors.Is(err, New(CodeCyclicDependency, "", nil)))
	assert.False(t, errors.Is(err, New(CodeResolution, "", nil)))
	assert.True(t, Has(err, CodeCyclicDependency))
}

func TestCyclic(t *testing.T) {
	t.Parallel()

	err := Cyclic([]string{"A", "B", "A"})
	assert.Equal(t, []string{"A", "B", "A"}, err.Chain)
	assert.Contains(t, err.Error(), "A -> B -> A")
}

func TestResolution_ListsKeys(t *testing.T) {
	t.Parallel()

	err := Resolution("app.Missing", []string{"app.A", "app.B"}, []string{"app.Root"})
	assert.Equal(t, []string{"app.A", "app.B"}, err.Keys)
	assert.Equal(t, []string{"app.Root"}, err.Chain)
	assert.Contains(t, err.Error(), "\n - app.A\n - app.B")
}

func TestInvocation_PassesThroughInjectorErrors(t *testing.T) {
	t.Parallel()

	inner := Cyclic([]string{"A", "A"})
	assert.Same(t, inner, Invocation("B", "constructor failed", inner))

	cause := errors.New("disk full")
	err := Invocation("B", "constructor failed", cause)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, CodeInvocation, e.Code)
	assert.ErrorIs(t, err, cause)
}

func TestCode_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "SCOPE", CodeScope.String())
	assert.Equal(t, "UNKNOWN(99)", Code(99).String())
}
