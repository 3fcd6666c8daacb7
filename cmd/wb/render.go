package main

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// render writes v in the selected output format. The table callback
// handles the human-readable default; json and yaml marshal v directly.
func render(v any, table func()) error {
	switch GetOutput() {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		fmt.Print(string(data))
	default:
		table()
	}
	return nil
}
