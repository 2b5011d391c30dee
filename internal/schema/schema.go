// Package schema validates untrusted frame documents against the
// embedded CUE wire contract before they are decoded into the typed
// model.
//
// This is shape validation only: enums, ranges, required fields.
// Referential integrity (edge endpoints, unique ids) is the frame
// package's job and runs after decoding.
package schema

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed frame.cue
var frameCUE string

var (
	compileOnce sync.Once
	frameDef    cue.Value
	compileErr  error
)

func compiled() (cue.Value, error) {
	compileOnce.Do(func() {
		ctx := cuecontext.New()
		root := ctx.CompileString(frameCUE, cue.Filename("frame.cue"))
		if err := root.Err(); err != nil {
			compileErr = fmt.Errorf("compile frame schema: %w", err)
			return
		}
		frameDef = root.LookupPath(cue.ParsePath("#Frame"))
		if err := frameDef.Err(); err != nil {
			compileErr = fmt.Errorf("lookup #Frame: %w", err)
		}
	})
	return frameDef, compileErr
}

// ValidateFrameJSON checks a JSON document against the #Frame wire
// contract. Returns nil for conforming documents; the error carries the
// CUE path of the first offending field.
func ValidateFrameJSON(data []byte) error {
	def, err := compiled()
	if err != nil {
		return err
	}
	expr, err := cuejson.Extract("frame.json", data)
	if err != nil {
		return fmt.Errorf("frame document is not valid JSON: %w", err)
	}
	doc := def.Context().BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("frame document: %w", err)
	}
	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return fmt.Errorf("frame document does not satisfy wire contract: %w", err)
	}
	return nil
}
