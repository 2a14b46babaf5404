package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-worksheets/internal/equation"
	"github.com/mind-engage/mindengage-worksheets/internal/sanitize"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render text with inline LaTeX from stdin as HTML",
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().Bool("plain", false, "Write the plain-text form instead of HTML")
}

func runRender(cmd *cobra.Command, args []string) error {
	plain, _ := cmd.Flags().GetBool("plain")
	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return err
	}
	r := equation.New()
	if plain {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), r.Plain(string(raw)))
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), sanitize.New().Clean(r.Render(string(raw))))
	return err
}
