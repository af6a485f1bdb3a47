package config

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*
var schemaFiles embed.FS

func loadSchemaFile(s string) (io.ReadCloser, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	return schemaFiles.Open(u.Path)
}

func init() {
	jsonschema.Loaders["embedFS"] = loadSchemaFile
}

// ValidateManifest checks raw manifest JSON against the detector manifest
// schema before it is unmarshaled into a Manifest.
func ValidateManifest(raw []byte) error {
	sch, err := jsonschema.Compile("embedFS://schemas/manifest.schema.json")
	if err != nil {
		return fmt.Errorf("config: compiling manifest schema: %w", err)
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("config: decoding manifest: %w", err)
	}

	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("config: manifest failed validation: %w", err)
	}
	return nil
}
