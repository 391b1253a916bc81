package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"autotagger/internal/extraction"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var dir string
	var skipOCR bool

	cmd := &cobra.Command{
		Use:   "extract-subtitles [file.mkv...]",
		Short: "Extract the English subtitle track of each mkv file and convert it to srt",
		Long: "Extract the English subtitle track of each mkv file and convert it to srt.\n" +
			"With no files, every *.mkv in --dir is processed.",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if cerr := ctx.close(); err == nil {
					err = cerr
				}
			}()
			runCtx, logger, console, err := ctx.start(cmd, dir)
			if err != nil {
				return err
			}
			cfg, _ := ctx.ensureConfig()

			wf, err := extraction.New(cfg, console, extraction.WithLogger(logger))
			if err != nil {
				return err
			}
			files := make([]string, 0, len(args))
			for _, arg := range args {
				files = append(files, filepath.Clean(arg))
			}
			report, err := wf.Run(runCtx, extraction.Request{Dir: dir, Files: files, SkipOCR: skipOCR})
			if len(report.Files) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), renderExtractionReport(report))
			}
			if err != nil {
				return err
			}
			if failed := report.Failed(); failed > 0 {
				return fmt.Errorf("%d of %d files could not be converted to srt", failed, len(report.Files))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory to search for mkv files")
	cmd.Flags().BoolVarP(&skipOCR, "skip-ocr", "s", false, "Extract subtitle tracks without converting bitmap subtitles to text")
	return cmd
}

func renderExtractionReport(report extraction.Report) string {
	rows := make([][]string, 0, len(report.Files))
	for _, file := range report.Files {
		status := "ok"
		if file.Err != nil {
			status = file.Err.Error()
		}
		track := "-"
		if file.Format != extraction.FormatUnknown {
			track = fmt.Sprintf("%d (%s)", file.Track.Index, file.Format)
		}
		output := "-"
		if file.Output != "" {
			output = filepath.Base(file.Output)
		}
		rows = append(rows, []string{filepath.Base(file.Source), track, output, status})
	}
	return renderTable([]string{"File", "Track", "Output", "Status"}, rows, nil)
}
