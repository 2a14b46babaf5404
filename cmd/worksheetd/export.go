package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-worksheets/internal/equation"
	"github.com/mind-engage/mindengage-worksheets/internal/export"
	"github.com/mind-engage/mindengage-worksheets/internal/question"
	"github.com/mind-engage/mindengage-worksheets/internal/sanitize"
	"github.com/mind-engage/mindengage-worksheets/internal/storage"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a question set file as PDF, HTML or text",
	Long: `Load a question set from a JSON or YAML file and write it as a worksheet.

PDF output needs wkhtmltopdf on PATH or --converter.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("in", "", "Question set file, .json or .yaml (required)")
	exportCmd.Flags().String("format", "txt", "Output format: pdf, html or txt")
	exportCmd.Flags().Bool("answers", false, "Include answers and explanations")
	exportCmd.Flags().String("topic", "", "Topic label (overrides the file's topic)")
	exportCmd.Flags().String("out", "", "Output file (default: derived from topic and date)")
	exportCmd.Flags().String("converter", "wkhtmltopdf", "wkhtmltopdf binary for PDF output")
	exportCmd.Flags().String("math-css", "", "Stylesheet URL linked from HTML/PDF output")
	exportCmd.Flags().String("image-cache", "", "Directory for caching embedded images; empty keeps remote image URLs")
	_ = exportCmd.MarkFlagRequired("in")
}

func runExport(cmd *cobra.Command, args []string) error {
	in, _ := cmd.Flags().GetString("in")
	formatVal, _ := cmd.Flags().GetString("format")
	answers, _ := cmd.Flags().GetBool("answers")
	topic, _ := cmd.Flags().GetString("topic")
	out, _ := cmd.Flags().GetString("out")
	converter, _ := cmd.Flags().GetString("converter")
	mathCSS, _ := cmd.Flags().GetString("math-css")
	cacheDir, _ := cmd.Flags().GetString("image-cache")

	f, err := export.ParseFormat(formatVal)
	if err != nil {
		return err
	}
	set, err := question.LoadSet(in)
	if err != nil {
		return err
	}
	if topic == "" {
		topic = set.Topic
	}

	log := zap.NewNop()
	renderer := equation.New()
	opts := []export.Option{export.WithMathStylesheet(mathCSS)}
	if cacheDir != "" {
		blobs, err := storage.NewFSStore(cacheDir)
		if err != nil {
			return fmt.Errorf("image cache: %w", err)
		}
		opts = append(opts, export.WithImages(export.NewImageEmbedder(blobs, 10*time.Second, 0, log)))
	}
	if f == export.FormatPDF {
		conv, err := export.NewWKHTMLToPDF(converter, 0)
		if err != nil {
			return err
		}
		opts = append(opts, export.WithConverter(conv))
	}
	ex := export.New(renderer, sanitize.New(), opts...)

	a, err := ex.Export(cmd.Context(), topic, set.Questions, export.Options{Format: f, IncludeAnswers: answers})
	if err != nil {
		return err
	}
	if out == "" {
		out = a.Filename
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(out, a.Body, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d questions, %d marks)\n", out, len(set.Questions), question.TotalMarks(set.Questions))
	return nil
}
