package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"promptlens/internal/prompt"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatText = "text"
)

func newParseCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "parse [prompt]",
		Short: "Split a prompt into structured fields",
		Long: `Split a prompt into structured fields. The prompt is read from the
arguments, or from stdin when no arguments are given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := promptInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return renderFields(cmd.OutOrStdout(), prompt.Parse(text), format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: json, yaml or text")
	return cmd
}

func promptInput(in io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func renderFields(w io.Writer, f prompt.Fields, format string) error {
	switch strings.ToLower(format) {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(f)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return err
		}
		return enc.Close()
	case formatText, "":
		for _, e := range f.Entries() {
			if _, err := fmt.Fprintf(w, "%-16s %s\n", e.Label+":", e.Value); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (want json, yaml or text)", format)
	}
}
