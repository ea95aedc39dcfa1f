package main

import (
	"encoding/json"
	"fmt"
	"io"
)

// printResult writes v as indented JSON, or the plain line otherwise.
func printResult(w io.Writer, format string, plain string, v any) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, plain)
	return err
}
