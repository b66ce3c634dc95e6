package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/chazu/batoms/pkg/model"
)

func TestEvaluateEmptyString(t *testing.T) {
	eng := NewEngine()

	for _, src := range []string{"", "   \n\t  \n  "} {
		sys, evalErrs, err := eng.Evaluate(src)
		if err != nil {
			t.Fatalf("unexpected fatal error: %v", err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("unexpected eval errors: %v", evalErrs)
		}
		if sys == nil {
			t.Fatal("expected non-nil system")
		}
		if sys.NumAtoms() != 0 {
			t.Errorf("expected no atoms, got %d", sys.NumAtoms())
		}
		if sys.Label != model.DefaultLabel {
			t.Errorf("label = %q, want %q", sys.Label, model.DefaultLabel)
		}
	}
}

func TestEvaluateValidExpression(t *testing.T) {
	eng := NewEngine()

	source := `
(def x 10)
(def y 20)
(+ x y)
`
	sys, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if sys == nil || sys.NumAtoms() != 0 {
		t.Fatalf("expected empty system, got %+v", sys)
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	eng := NewEngine()

	// Unmatched paren is a parse error.
	sys, evalErrs, err := eng.Evaluate("(+ 1 2")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if sys != nil {
		t.Fatal("expected nil system on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for syntax error")
	}
	if evalErrs[0].Message == "" {
		t.Error("eval error message should not be empty")
	}
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	eng := NewEngine()

	sys, evalErrs, err := eng.Evaluate("(+ 1 undefined-symbol)")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if sys != nil {
		t.Fatal("expected nil system on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for undefined symbol")
	}
}

func TestEvaluateSyntaxErrorHasLineInfo(t *testing.T) {
	eng := NewEngine()

	source := "(+ 1 2)\n(+ 3"
	_, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}

	// Line info depends on the zygomys message format; only the message is
	// guaranteed.
	e := evalErrs[0]
	if e.Message == "" {
		t.Error("eval error message should not be empty")
	}
	if e.Line > 0 {
		t.Logf("extracted line info: line=%d, message=%q", e.Line, e.Message)
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") {
		t.Errorf("Error() should contain line info, got: %s", s)
	}
	if !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() should contain message, got: %s", s)
	}

	e2 := EvalError{Message: "no location"}
	if strings.Contains(e2.Error(), "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", e2.Error())
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := NewEngine()

	source := `(cell 5) (atom "Na" (vec3 0 0 0)) (atom "Cl" (vec3 2.5 0 0))`
	for i := 0; i < 5; i++ {
		sys, evalErrs, err := eng.Evaluate(source)
		if err != nil {
			t.Fatalf("iteration %d: unexpected fatal error: %v", i, err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("iteration %d: unexpected eval errors: %v", i, evalErrs)
		}
		if sys.NumAtoms() != 2 {
			t.Errorf("iteration %d: expected 2 atoms, got %d", i, sys.NumAtoms())
		}
	}
}

func TestEvaluateTimeout(t *testing.T) {
	// zygomys gives no cheap way to spin forever inside the sandbox, so the
	// timeout path is exercised directly with a channel that never sends.
	eng := NewEngine()
	eng.Timeout = 50 * time.Millisecond
	ch := make(chan evalResult)

	done := make(chan struct{})
	var resultErr error
	go func() {
		defer close(done)
		_, _, resultErr = eng.wait(ch, 0)
	}()

	select {
	case <-done:
		if resultErr == nil {
			t.Fatal("expected timeout error, got nil")
		}
		if !strings.Contains(resultErr.Error(), "timed out after 50ms") {
			t.Errorf("expected timeout error message, got: %v", resultErr)
		}
	case <-time.After(EvalTimeout):
		t.Fatal("test itself timed out waiting for evaluation timeout")
	}
}

func TestEvaluateGenerationDiscardsStale(t *testing.T) {
	eng := NewEngine()
	eng.generation = 2

	ch := make(chan evalResult, 1)
	ch <- evalResult{system: model.New()}

	_, _, err := eng.wait(ch, 1)
	if err == nil {
		t.Fatal("expected error for stale generation")
	}
	if !strings.Contains(err.Error(), "superseded") {
		t.Errorf("expected superseded error, got: %v", err)
	}

	ch <- evalResult{system: model.New()}
	if sys, _, err := eng.wait(ch, 2); err != nil || sys == nil {
		t.Errorf("current generation: got %v, %v", sys, err)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "error on line format",
			msg:      "Error on line 5: unexpected token\n",
			wantLine: 5,
			wantMsg:  "unexpected token",
		},
		{
			name:     "no line info",
			msg:      "some generic error",
			wantLine: 0,
			wantMsg:  "some generic error",
		},
		{
			name:     "line format lowercase",
			msg:      "error on line 12: missing paren",
			wantLine: 12,
			wantMsg:  "missing paren",
		},
		{
			name:     "short line format",
			msg:      "line 3: atom: position: expected vec3",
			wantLine: 3,
			wantMsg:  "expected vec3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }

func TestEvaluateStartsFromNewSystem(t *testing.T) {
	eng := NewEngine()
	eng.NewSystem = func() *model.System {
		sys := model.New()
		sys.Cavity.MinRadius = 2.5
		return sys
	}

	sys, evalErrs, err := eng.Evaluate(`(cavity :resolution 0.5)`)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("unexpected errors: %v %v", err, evalErrs)
	}
	if sys.Cavity.MinRadius != 2.5 {
		t.Errorf("min radius = %f, want the starting value 2.5", sys.Cavity.MinRadius)
	}
	if sys.Cavity.Resolution != 0.5 {
		t.Errorf("resolution = %f, want 0.5 from the script", sys.Cavity.Resolution)
	}
}
