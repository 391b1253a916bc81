package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"autotagger/internal/extraction"
	"autotagger/internal/identification/tmdb"
	"autotagger/internal/prompt"
	"autotagger/internal/subtitles/opensubtitles"
	"autotagger/internal/tagging"
)

func newTagCommand(ctx *commandContext) *cobra.Command {
	var dir string
	var title string
	var manual bool

	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Match extracted subtitles to episodes and rename the mkv files",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if cerr := ctx.close(); err == nil {
					err = cerr
				}
			}()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateTagging(); err != nil {
				return err
			}
			runCtx, logger, console, err := ctx.start(cmd, dir)
			if err != nil {
				return err
			}

			metadata, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
			if err != nil {
				return err
			}
			subtitles, err := opensubtitles.New(opensubtitles.Config{
				APIKey:      cfg.OpenSubtitles.APIKey,
				UserAgent:   cfg.OpenSubtitles.UserAgent,
				BaseURL:     cfg.OpenSubtitles.BaseURL,
				Username:    cfg.OpenSubtitles.Username,
				Password:    cfg.OpenSubtitles.Password,
				Credentials: credentialsPrompt(console),
			})
			if err != nil {
				return err
			}
			extractor, err := extraction.New(cfg, console, extraction.WithLogger(logger))
			if err != nil {
				return err
			}
			wf, err := tagging.New(cfg, metadata, subtitles, console,
				tagging.WithExtractor(extractor),
				tagging.WithLogger(logger),
			)
			if err != nil {
				return err
			}

			req := tagging.Request{Dir: dir, Title: title}
			if cmd.Flags().Changed("manual") {
				req.Manual = &manual
			}
			report, err := wf.Run(runCtx, req)
			if len(report.Assignments) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), renderTaggingReport(report))
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory holding the mkv and srt files")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Show title to search for (prompted when empty)")
	cmd.Flags().BoolVar(&manual, "manual", false, "Pick reference subtitles manually instead of using the first result")
	return cmd
}

func credentialsPrompt(console *prompt.Console) opensubtitles.CredentialsFunc {
	return func(ctx context.Context) (string, string, error) {
		username, err := console.Input(ctx, "OpenSubtitles username", "")
		if err != nil {
			return "", "", err
		}
		password, err := console.Password(ctx, "OpenSubtitles password")
		if err != nil {
			return "", "", err
		}
		return username, password, nil
	}
}

func renderTaggingReport(report tagging.Report) string {
	renames := make(map[string]tagging.Rename, len(report.Renames))
	for _, r := range report.Renames {
		renames[r.Assignment.File] = r
	}
	rows := make([][]string, 0, len(report.Assignments))
	for _, a := range report.Assignments {
		file := filepath.Base(a.File) + ".mkv"
		rename, reviewed := renames[a.File]
		if reviewed {
			file = filepath.Base(rename.Source)
		}
		if !a.Matched {
			rows = append(rows, []string{file, "no match", "-", "-", "no"})
			continue
		}
		negative := "n/a"
		if d, ok := a.ClosestNegative(); ok {
			negative = fmt.Sprint(d)
		}
		rows = append(rows, []string{
			file,
			fmt.Sprintf("%s - %s", a.Episode.Key(), a.Episode.Name),
			fmt.Sprint(a.Distance),
			negative,
			yesNo(rename.Applied),
		})
	}
	return renderTable(
		[]string{"File", "Episode", "Distance", "Closest negative", "Renamed"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}
