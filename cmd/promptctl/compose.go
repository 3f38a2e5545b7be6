package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"promptlens/internal/prompt"
)

func newComposeCmd() *cobra.Command {
	var (
		sets []string
		from string
	)
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Build a prompt from structured fields",
		Long: `Build a prompt from structured fields.

Fields come from --set key=value flags applied in order, optionally on top of
a prompt given with --from. Without --set, a JSON object of fields is read
from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := prompt.Empty()
			if from != "" {
				fields = prompt.Parse(from)
			}

			if len(sets) == 0 && from == "" {
				if err := json.NewDecoder(cmd.InOrStdin()).Decode(&fields); err != nil {
					return fmt.Errorf("decode fields from stdin: %w", err)
				}
			}
			for _, kv := range sets {
				key, value, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("invalid --set %q, want key=value", kv)
				}
				if err := fields.Set(strings.TrimSpace(key), value); err != nil {
					return err
				}
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), prompt.Construct(fields))
			return err
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field assignment key=value (repeatable)")
	cmd.Flags().StringVar(&from, "from", "", "start from the fields of an existing prompt")
	return cmd
}
