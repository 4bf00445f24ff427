package http

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const maxBodyBytes = 1 << 20

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func loadSchemas() (map[string]*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		entries, err := schemaFS.ReadDir("schemas")
		if err != nil {
			schemasErr = err
			return
		}
		compiler := jsonschema.NewCompiler()
		for _, e := range entries {
			b, err := schemaFS.ReadFile("schemas/" + e.Name())
			if err != nil {
				schemasErr = err
				return
			}
			if err := compiler.AddResource(e.Name(), bytes.NewReader(b)); err != nil {
				schemasErr = fmt.Errorf("failed to load schema %s: %w", e.Name(), err)
				return
			}
		}
		out := make(map[string]*jsonschema.Schema, len(entries))
		for _, e := range entries {
			s, err := compiler.Compile(e.Name())
			if err != nil {
				schemasErr = fmt.Errorf("failed to compile schema %s: %w", e.Name(), err)
				return
			}
			out[e.Name()] = s
		}
		schemas = out
	})
	return schemas, schemasErr
}

// decodeValid reads the request body, checks it against the named schema and
// decodes it into dst. Failures are reported to the client as 400.
func decodeValid(w http.ResponseWriter, r *http.Request, schemaName string, dst any) bool {
	all, err := loadSchemas()
	if err != nil {
		http.Error(w, "schema: "+err.Error(), http.StatusInternalServerError)
		return false
	}
	schema, ok := all[schemaName]
	if !ok {
		http.Error(w, "schema not found: "+schemaName, http.StatusInternalServerError)
		return false
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return false
	}
	if len(body) > maxBodyBytes {
		http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
		return false
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if err := schema.Validate(doc); err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
