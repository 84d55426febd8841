package source

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Options is the plain, re-constructible representation of a source: the
// object a factory consumes and Serialize returns. The "type" member names
// the registry entry; everything else is type-specific.
type Options map[string]any

// Type returns the source type name, or "" when absent.
func (o Options) Type() string {
	t, _ := o["type"].(string)
	return t
}

// Clone returns a shallow copy.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

var validate = validator.New()

// decodeInto decodes an options object into a typed per-source options
// struct and validates it. Decoding goes through JSON so the same shapes
// work whether the object came from a style document, a config file, or a
// prior Serialize call.
func decodeInto(opts Options, v any) error {
	b, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode options: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}
