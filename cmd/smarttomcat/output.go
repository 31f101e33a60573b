package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output.
const (
	formatText = "text"
	formatYAML = "yaml"
	formatJSON = "json"
)

// writeOutput renders v in format. text is used for the text format and
// may be nil when the command has no human-readable rendering, in which
// case YAML is written instead.
func writeOutput(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case formatText, "":
		if text != nil {
			return text(w)
		}
		return writeYAML(w, v)
	case formatYAML:
		return writeYAML(w, v)
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported output format %q (want text, yaml or json)", format)
	}
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
