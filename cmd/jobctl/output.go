package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
)

type renderer func(w io.Writer, v any) error

func newRenderer(format string) (renderer, error) {
	switch format {
	case "", "json":
		return renderJSON, nil
	case "yaml":
		return renderYAML, nil
	}
	return nil, fmt.Errorf("unknown output format %q (want json or yaml)", format)
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// renderYAML goes through JSON so field names match the json tags.
func renderYAML(w io.Writer, v any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return err
	}
	out, err := yaml.JSONToYAML(buf.Bytes())
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
