package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "promptctl",
		Short: "Decompose and recompose image-generation prompts",
		Long: `promptctl converts between free-form image prompts and their structured
fields (image type, subject, background, style, lighting, texture, details,
aspect ratio).

  promptctl parse "Photo of a fox in a forest, golden hour --ar 3:2"
  promptctl compose --set imageType=Photo --set object="a fox"`,
		SilenceUsage: true,
	}
	root.AddCommand(newParseCmd(), newComposeCmd())
	return root
}
