package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "worksheetd",
	Short: "Worksheet, quiz and exam generator front-end",
	Long: `worksheetd serves the worksheet pages in front of the question generation API
and exports question sets as PDF, HTML or plain text.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (WORKSHEETS_* env vars override it)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(versionCmd)
}
