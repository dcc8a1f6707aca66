package record

import (
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var schemaCache sync.Map

// CompileSchema compiles an embedded JSON schema once per name.
func CompileSchema(name, raw string) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(name); ok {
		if compiled, ok := cached.(*jsonschema.Schema); ok {
			return compiled, nil
		}
	}

	compiled, err := jsonschema.CompileString(name, raw)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	schemaCache.Store(name, compiled)
	return compiled, nil
}

func MustCompileSchema(name, raw string) *jsonschema.Schema {
	s, err := CompileSchema(name, raw)
	if err != nil {
		panic(err)
	}
	return s
}
