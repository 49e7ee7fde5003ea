package harness

import (
	"fmt"
	"strings"
)

// AssertionError describes one failed assertion.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s\n  expected: %s\n  actual:   %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion against result and returns one
// message per failure, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var msgs []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	return msgs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertRendered:
		if result.Rendered != a.Value {
			return &AssertionError{Type: a.Type, Expected: quote(a.Value), Actual: quote(result.Rendered)}
		}
	case AssertContains:
		out := strings.Join(result.Output, "\n")
		if !strings.Contains(out, a.Value) {
			return &AssertionError{Type: a.Type, Expected: "output containing " + quote(a.Value), Actual: quote(out)}
		}
	case AssertTermCount:
		if result.Terms != a.Count {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d terms", a.Count), Actual: fmt.Sprintf("%d terms", result.Terms)}
		}
	case AssertSinglePass:
		if result.Rendered != result.SinglePass {
			return &AssertionError{Type: a.Type, Expected: quote(result.SinglePass), Actual: quote(result.Rendered)}
		}
	default:
		return &AssertionError{Type: a.Type, Expected: "a known assertion type", Actual: quote(a.Type)}
	}
	return nil
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}
