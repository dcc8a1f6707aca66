// Package record loads and writes the small JSON documents the agents work
// from: FAQ, fraud cases, catalog, and the lead/order files they produce.
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const TimestampLayout = "20060102_150405"

var (
	ErrMissing   = errors.New("record file missing")
	ErrMalformed = errors.New("record file malformed")
)

// Read decodes path into T. When schema is non-nil the document is validated
// before decoding.
func Read[T any](path string, schema *jsonschema.Schema) (T, error) {
	var out T

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return out, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return out, fmt.Errorf("read %s: %w", path, err)
	}

	if schema != nil {
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return out, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
		}
		if err := schema.Validate(doc); err != nil {
			return out, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
		}
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	return out, nil
}

// Load is Read for call paths that must keep going: any failure is logged and
// the zero value of T is returned, which callers treat as an empty store.
func Load[T any](path string, schema *jsonschema.Schema) T {
	out, err := Read[T](path, schema)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("record store unavailable, continuing empty")
		var zero T
		return zero
	}
	return out
}

// Persist overwrites path with v. The write goes through a temp file in the
// same directory and a rename, so readers never observe a half-written file.
// An existing file keeps its permissions; a new one gets 0644.
func Persist(path string, v any) error {
	payload, err := encode(v)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// WriteTimestamped writes v to dir/<prefix>_<YYYYMMDD_HHMMSS>.json and returns
// the path. Two writes in the same second target the same file; the later one
// wins.
func WriteTimestamped(dir, prefix string, at time.Time, v any) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.json", prefix, at.Format(TimestampLayout)))
	if err := Persist(path, v); err != nil {
		return "", err
	}
	return path, nil
}

// Marshal renders v the way every record file is written: two-space indent,
// no HTML escaping so names and the rupee sign stay readable.
func Marshal(v any) ([]byte, error) {
	return encode(v)
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return buf.Bytes(), nil
}
