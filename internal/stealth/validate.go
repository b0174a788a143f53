package stealth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// ScriptName is the source name reported in compile errors of the combined script.
const ScriptName = "stealth.js"

// DefaultEvalTimeout bounds EvalOpts when the context carries no earlier deadline.
const DefaultEvalTimeout = 5 * time.Second

// ValidateScript checks that the combined script parses as a single program.
// Duplicate top-level lexical declarations across bodies are reported here.
func ValidateScript(src string) error {
	if _, err := goja.Compile(ScriptName, src, false); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	return nil
}

// EvalOpts runs the opts declaration in an isolated VM and exports the value
// the evasion scripts would read. Only the declaration is executed, so no
// browser globals are needed.
func EvalOpts(ctx context.Context, p *Properties) (map[string]interface{}, error) {
	decl, err := optsDeclaration(p)
	if err != nil {
		return nil, err
	}

	timeout := DefaultEvalTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until > 0 && until < timeout {
			timeout = until
		}
	}

	vm := goja.New()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-time.After(timeout):
			vm.Interrupt(fmt.Sprintf("evaluation timeout exceeded (%v)", timeout))
		case <-ctx.Done():
			vm.Interrupt(ctx.Err().Error())
		case <-done:
		}
	}()

	val, err := vm.RunString(decl + "\n" + OptsIdentifier + ";")
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) && ctx.Err() != nil {
			return nil, fmt.Errorf("stealth: opts evaluation interrupted: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}

	out, ok := val.Export().(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: opts is %T, not an object", ErrInvalidScript, val.Export())
	}
	return out, nil
}
