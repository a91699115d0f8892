package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tsawler/uilayout"
	"github.com/tsawler/uilayout/export"
	"github.com/tsawler/uilayout/layout"
	"github.com/tsawler/uilayout/observability"
	"github.com/tsawler/uilayout/ocr"
	"github.com/tsawler/uilayout/screen"
)

type analyzeOptions struct {
	*rootOptions

	image      string
	useOCR     bool
	languages  []string
	ocrMode    string
	ocrMinConf float64
	format     string
	out        string
	clips      string
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "analyze <detections.json>",
		Short: "Analyse one detection file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), opts, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.image, "image", "", "Screenshot the detections were taken from")
	flags.BoolVar(&opts.useOCR, "ocr", false, "Add OCR words from the screenshot (requires --image and a build with -tags ocr)")
	flags.StringSliceVar(&opts.languages, "lang", nil, "OCR languages, e.g. eng,fra")
	flags.StringVar(&opts.ocrMode, "ocr-mode", ocr.ModeSparse.String(), "OCR segmentation: sparse, auto, block or line")
	flags.Float64Var(&opts.ocrMinConf, "ocr-min-conf", ocr.DefaultMinConfidence, "Drop OCR words below this confidence (0-1)")
	flags.StringVar(&opts.format, "format", "json", "Output format: json, jsonl, csv, tsv or html")
	flags.StringVarP(&opts.out, "out", "o", "", "Output file (default stdout)")
	flags.StringVar(&opts.clips, "clips", "", "Directory to write one PNG per component, cut from --image")
	return cmd
}

func runAnalyze(ctx context.Context, opts *analyzeOptions, detections string, stdout, stderr io.Writer) error {
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if opts.image == "" && (opts.useOCR || opts.clips != "") {
		return fmt.Errorf("--ocr and --clips require --image")
	}
	mode, err := ocr.ParseMode(opts.ocrMode)
	if err != nil {
		return err
	}
	config, err := opts.loadConfig()
	if err != nil {
		return err
	}
	logger := opts.logger(stderr, observability.LevelWarn)

	p := uilayout.FromFile(detections).WithConfig(config).WithLogger(logger)
	if opts.image != "" {
		p = p.WithScreenshot(opts.image)
	}
	if opts.useOCR {
		p = p.WithOCR(opts.languages...).WithOCRMode(mode).WithOCRMinConfidence(opts.ocrMinConf)
	}

	a, err := p.Layout()
	if err != nil && !errors.Is(err, layout.ErrDetectionEmpty) {
		return err
	}

	exporter := export.NewExporterWithConfig(export.ConfigFor(format))
	if opts.out == "" {
		if err := exporter.Export(a, stdout); err != nil {
			return err
		}
	} else if err := exporter.ExportToFile(a, opts.out); err != nil {
		return err
	}

	if opts.clips != "" {
		n, err := writeClips(a, opts.image, opts.clips)
		if err != nil {
			return err
		}
		logger.Info("wrote clips", observability.String("dir", opts.clips), observability.Int("count", n))
	}

	archive, err := opts.openArchive()
	if err != nil || archive == nil {
		return err
	}
	defer archive.Close()

	id, err := archive.Save(ctx, filepath.Base(detections), export.NewDocument(a))
	if err != nil {
		return err
	}
	logger.Info("archived layout", observability.String("id", id))
	return nil
}

// writeClips cuts every component out of the screenshot and writes it to dir
// as <component id>.png. Component boxes are scaled from the analysed screen
// to the screenshot's pixels.
func writeClips(a *layout.Analysis, imagePath, dir string) (int, error) {
	img, err := screen.DecodeFile(imagePath)
	if err != nil {
		return 0, err
	}
	factor := 1.0
	if a.Screen.Known() {
		factor = float64(img.Bounds().Dx()) / a.Screen.Width
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create clip directory: %w", err)
	}

	n := 0
	for _, c := range a.Components {
		clip, err := screen.Clip(img, c.BBox.Scale(factor))
		if errors.Is(err, screen.ErrEmptyImage) {
			continue
		}
		if err != nil {
			return n, err
		}
		data, err := screen.EncodePNG(clip)
		if err != nil {
			return n, err
		}
		name := fmt.Sprintf("%s%d.png", export.ComponentPrefix, c.ID)
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return n, fmt.Errorf("write clip: %w", err)
		}
		n++
	}
	return n, nil
}
