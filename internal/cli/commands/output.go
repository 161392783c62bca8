package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Output formats
const (
	outputJSON = "json"
	outputYAML = "yaml"
)

// ErrUnknownOutput is returned for an unsupported --output value
type ErrUnknownOutput struct {
	Format string
}

func (e ErrUnknownOutput) Error() string {
	return fmt.Sprintf("unknown output format %q (use json or yaml)", e.Format)
}

func validateOutput(format string) error {
	switch format {
	case outputJSON, outputYAML:
		return nil
	default:
		return ErrUnknownOutput{Format: format}
	}
}

// writeOutput renders v to w in the given format
func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return ErrUnknownOutput{Format: format}
	}
}
