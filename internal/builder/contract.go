package builder

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"cms-console/internal/schema"
)

//go:embed schema.cue
var contractSource string

var (
	contractOnce sync.Once
	contractCtx  *cue.Context
	contractDef  cue.Value
	contractErr  error
)

func loadContract() (*cue.Context, cue.Value, error) {
	contractOnce.Do(func() {
		contractCtx = cuecontext.New()
		v := contractCtx.CompileString(contractSource, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			contractErr = err
			return
		}
		contractDef = v.LookupPath(cue.ParsePath("#Schema"))
		contractErr = contractDef.Err()
	})
	return contractCtx, contractDef, contractErr
}

var contractMu sync.Mutex

// CheckContract validates a schema document against the CUE definition the
// backend's schema endpoint accepts.
func CheckContract(s schema.Schema) error {
	contractMu.Lock()
	defer contractMu.Unlock()
	ctx, def, err := loadContract()
	if err != nil {
		return fmt.Errorf("schema contract: %w", err)
	}
	doc := ctx.Encode(s)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("schema contract: %w", err)
	}
	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema contract: %s", errors.Details(err, nil))
	}
	return nil
}
