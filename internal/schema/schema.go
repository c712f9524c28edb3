// Package schema holds the JSON schema that YAML mapping files are checked
// against once their structure has been decoded.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// V0URL is the $id of the embedded schema and the only accepted $schema
// value in a mapping file.
const V0URL = "https://chownmap.usoltsev.xyz/v0.json"

var (
	ErrInvalid   = errors.New("document does not match schema")
	errEmptyFile = errors.New("embedded schema is empty")
)

//go:embed v0.json
var v0JSON []byte

var compiled = sync.OnceValues(func() (*jsonschema.Schema, error) { //nolint:gochecknoglobals
	if len(bytes.TrimSpace(v0JSON)) == 0 {
		return nil, errEmptyFile
	}
	raw, err := jsonschema.UnmarshalJSON(bytes.NewReader(v0JSON))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", V0URL, err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(V0URL, raw); err != nil {
		return nil, fmt.Errorf("register %s: %w", V0URL, err)
	}
	s, err := c.Compile(V0URL)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", V0URL, err)
	}
	return s, nil
})

// V0 returns the compiled schema. It is compiled on first use and shared.
func V0() (*jsonschema.Schema, error) {
	return compiled()
}

// Check validates doc, any value encoding/json can marshal, against V0.
// doc is normalized through a JSON round trip first so that maps and
// numbers reach the validator in the shapes it expects. A mismatch wraps
// ErrInvalid and carries the validator's basic output.
func Check(doc any) error {
	s, err := V0()
	if err != nil {
		return err
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := s.Validate(inst); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, describe(err))
	}
	return nil
}

func describe(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	out, mErr := json.Marshal(ve.BasicOutput())
	if mErr != nil {
		return err.Error()
	}
	return string(out)
}
