package tagging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"autotagger/internal/config"
	"autotagger/internal/contentid"
	"autotagger/internal/extraction"
	"autotagger/internal/fileutil"
	"autotagger/internal/identification/tmdb"
	"autotagger/internal/logging"
	"autotagger/internal/services"
	"autotagger/internal/subtitles/opensubtitles"
	"autotagger/internal/textutil"
)

const (
	showPromptTitle    = "Please select the desired result"
	seasonPromptTitle  = "Please select the seasons included on this disc"
	episodePromptTitle = "Please select the episodes included on this disc from %s"
	manualPromptTitle  = "Would you like to select subtitles manually?"
	extractPromptTitle = "Subtitles not found. Would you like to extract them?"
	renamePromptTitle  = "Rename file?"
)

// SubtitleSource searches and downloads reference subtitles.
type SubtitleSource interface {
	Search(ctx context.Context, req opensubtitles.SearchRequest) (opensubtitles.SearchResponse, error)
	Download(ctx context.Context, fileID int64) (opensubtitles.DownloadResult, error)
}

// Matcher assigns candidate files to episodes.
type Matcher interface {
	Match(ctx context.Context, episodes []contentid.Episode, files []contentid.CandidateFile) ([]contentid.Assignment, error)
}

// Extractor produces .srt files when none exist yet.
type Extractor interface {
	Run(ctx context.Context, req extraction.Request) (extraction.Report, error)
}

// Console is the subset of the interactive console the workflow uses.
type Console interface {
	Input(ctx context.Context, title, value string) (string, error)
	Confirm(ctx context.Context, title string, value bool) (bool, error)
	Select(ctx context.Context, title string, labels []string) (int, error)
	MultiSelect(ctx context.Context, title string, labels []string) ([]int, error)
	Printf(ctx context.Context, format string, args ...any) error
	Preview(ctx context.Context, text string) error
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithMatcher replaces the default contentid engine.
func WithMatcher(m Matcher) Option {
	return func(w *Workflow) {
		if m != nil {
			w.matcher = m
		}
	}
}

// WithExtractor enables offering extraction when no subtitles are present.
func WithExtractor(e Extractor) Option {
	return func(w *Workflow) {
		w.extractor = e
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		if logger != nil {
			w.logger = logging.NewComponentLogger(logger, "tagging")
		}
	}
}

// Workflow runs the tagging flow.
type Workflow struct {
	metadata      tmdb.Searcher
	subtitles     SubtitleSource
	console       Console
	matcher       Matcher
	extractor     Extractor
	logger        *slog.Logger
	languages     []string
	manualDefault bool
}

// New builds a tagging workflow.
func New(cfg *config.Config, metadata tmdb.Searcher, subtitles SubtitleSource, console Console, opts ...Option) (*Workflow, error) {
	if cfg == nil {
		return nil, errors.New("tagging requires config")
	}
	if metadata == nil || subtitles == nil || console == nil {
		return nil, errors.New("tagging requires metadata, subtitle source, and console")
	}
	w := &Workflow{
		metadata:      metadata,
		subtitles:     subtitles,
		console:       console,
		logger:        logging.NewComponentLogger(logging.NewNop(), "tagging"),
		languages:     append([]string(nil), cfg.OpenSubtitles.Languages...),
		manualDefault: cfg.OpenSubtitles.ManualSelection,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.matcher == nil {
		w.matcher = contentid.NewEngine(
			contentid.WithWorkers(cfg.MatchingWorkers()),
			contentid.WithLogger(w.logger),
		)
	}
	return w, nil
}

// Request configures a run.
type Request struct {
	// Dir holds the mkv and srt files.
	Dir string
	// Title skips the title prompt when set.
	Title string
	// Manual skips the manual-selection prompt when set.
	Manual *bool
}

// Rename records one proposed rename and its outcome.
type Rename struct {
	Assignment contentid.Assignment
	Source     string
	Target     string
	Applied    bool
}

// Report summarises a run.
type Report struct {
	Show        tmdb.Show
	Episodes    int
	References  int
	Assignments []contentid.Assignment
	Renames     []Rename
}

// Run executes the tagging flow in req.Dir.
func (w *Workflow) Run(ctx context.Context, req Request) (Report, error) {
	ctx = services.WithStage(ctx, "tagging")
	dir := req.Dir
	if dir == "" {
		dir = "."
	}
	var report Report

	show, err := w.chooseShow(ctx, dir, req.Title)
	if err != nil {
		return report, err
	}
	report.Show = show

	episodes, err := w.chooseEpisodes(ctx, show)
	if err != nil {
		return report, err
	}
	report.Episodes = len(episodes)

	manual := w.manualDefault
	if req.Manual != nil {
		manual = *req.Manual
	} else if manual, err = w.console.Confirm(ctx, manualPromptTitle, w.manualDefault); err != nil {
		return report, err
	}

	refs, err := w.references(ctx, episodes, manual)
	if err != nil {
		return report, err
	}
	report.References = len(refs)
	if len(refs) == 0 {
		return report, services.Wrap(services.ErrNotFound, "tagging", "references", "no reference subtitles found for the selected episodes", nil)
	}

	files, sources, err := w.candidates(ctx, dir)
	if err != nil {
		return report, err
	}

	assignments, err := w.matcher.Match(ctx, refs, files)
	if err != nil {
		return report, err
	}
	report.Assignments = assignments

	for _, assignment := range assignments {
		rename, err := w.review(ctx, assignment, sources[assignment.File])
		if rename.Source != "" {
			report.Renames = append(report.Renames, rename)
		}
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

func (w *Workflow) chooseShow(ctx context.Context, dir, title string) (tmdb.Show, error) {
	if strings.TrimSpace(title) == "" {
		var err error
		title, err = w.console.Input(ctx, "Title", DefaultTitle(dir))
		if err != nil {
			return tmdb.Show{}, err
		}
	}
	resp, err := w.metadata.SearchTV(ctx, title)
	if err != nil {
		return tmdb.Show{}, err
	}
	if len(resp.Results) == 0 {
		return tmdb.Show{}, services.Wrap(services.ErrNotFound, "tagging", "search", fmt.Sprintf("no shows found for %q", title), nil)
	}
	labels := make([]string, len(resp.Results))
	for i, show := range resp.Results {
		labels[i] = show.Label()
	}
	idx, err := w.console.Select(ctx, showPromptTitle, labels)
	if err != nil {
		return tmdb.Show{}, err
	}
	return resp.Results[idx], nil
}

func (w *Workflow) chooseEpisodes(ctx context.Context, show tmdb.Show) ([]tmdb.Episode, error) {
	details, err := w.metadata.GetTVDetails(ctx, show.ID)
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(details.Seasons))
	for i, season := range details.Seasons {
		labels[i] = season.Label()
	}
	picked, err := w.console.MultiSelect(ctx, seasonPromptTitle, labels)
	if err != nil {
		return nil, err
	}

	var episodes []tmdb.Episode
	for _, idx := range picked {
		season, err := w.metadata.GetSeasonDetails(ctx, show.ID, details.Seasons[idx].SeasonNumber)
		if err != nil {
			return nil, err
		}
		epLabels := make([]string, len(season.Episodes))
		for i, ep := range season.Episodes {
			epLabels[i] = ep.Label()
		}
		chosen, err := w.console.MultiSelect(ctx, fmt.Sprintf(episodePromptTitle, season.Name), epLabels)
		if err != nil {
			return nil, err
		}
		for _, i := range chosen {
			ep := season.Episodes[i]
			if ep.SeasonNumber == 0 && season.SeasonNumber != 0 {
				ep.SeasonNumber = season.SeasonNumber
			}
			episodes = append(episodes, ep)
		}
	}
	if len(episodes) == 0 {
		return nil, services.Wrap(services.ErrValidation, "tagging", "episodes", "no episodes selected", nil)
	}
	return episodes, nil
}

// candidates reads every .srt in dir, offering extraction when there are none.
// The returned map gives the on-disk srt path for each candidate stem.
func (w *Workflow) candidates(ctx context.Context, dir string) ([]contentid.CandidateFile, map[string]string, error) {
	paths, err := fileutil.ListByExtension(dir, "srt")
	if err != nil {
		return nil, nil, services.Wrap(services.ErrValidation, "tagging", "list", "list subtitle files", err)
	}
	if len(paths) == 0 && w.extractor != nil {
		extract, err := w.console.Confirm(ctx, extractPromptTitle, true)
		if err != nil {
			return nil, nil, err
		}
		if extract {
			if _, err := w.extractor.Run(ctx, extraction.Request{Dir: dir}); err != nil {
				return nil, nil, err
			}
			if paths, err = fileutil.ListByExtension(dir, "srt"); err != nil {
				return nil, nil, services.Wrap(services.ErrValidation, "tagging", "list", "list subtitle files", err)
			}
		}
	}
	if len(paths) == 0 {
		return nil, nil, services.Wrap(services.ErrNotFound, "tagging", "list", "cannot continue without subtitles", nil)
	}

	files := make([]contentid.CandidateFile, 0, len(paths))
	sources := make(map[string]string, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, services.Wrap(services.ErrValidation, "tagging", "read", "read "+filepath.Base(path), err)
		}
		stem := strings.TrimSuffix(path, filepath.Ext(path))
		sources[stem] = path
		files = append(files, contentid.CandidateFile{
			Path: stem,
			Text: textutil.NormalizeSubtitles(string(data)),
		})
	}
	return files, sources, nil
}

// review shows one assignment and applies the rename when confirmed. srt is
// the subtitle file the assignment was built from.
func (w *Workflow) review(ctx context.Context, assignment contentid.Assignment, srt string) (Rename, error) {
	mkv, err := fileutil.FindSibling(assignment.File, ".mkv")
	if err != nil {
		mkv = assignment.File + ".mkv"
	}
	if srt == "" {
		srt = assignment.File + ".srt"
	}
	if !assignment.Matched {
		return Rename{}, w.console.Printf(ctx, "%q => no match", filepath.Base(mkv))
	}
	target := filepath.Join(filepath.Dir(mkv), TargetName(assignment.Episode))
	rename := Rename{Assignment: assignment, Source: mkv, Target: target}

	negative := "n/a"
	if d, ok := assignment.ClosestNegative(); ok {
		negative = fmt.Sprint(d)
	}
	if err := w.console.Printf(ctx, "%q => %q\n    distance:         %d\n    closest negative: %s",
		filepath.Base(mkv), filepath.Base(target), assignment.Distance, negative); err != nil {
		return rename, err
	}
	ok, err := w.console.Confirm(ctx, renamePromptTitle, false)
	if err != nil || !ok {
		return rename, err
	}

	if _, err := os.Stat(target); err == nil {
		return rename, services.Wrap(services.ErrValidation, "tagging", "rename", fmt.Sprintf("couldn't rename mkv file: %s already exists", filepath.Base(target)), nil)
	}
	if err := os.Rename(mkv, target); err != nil {
		return rename, services.Wrap(services.ErrValidation, "tagging", "rename", "couldn't rename mkv file", err)
	}
	rename.Applied = true
	if err := os.Remove(srt); err != nil {
		return rename, services.Wrap(services.ErrValidation, "tagging", "rename", "failed to remove srt file", err)
	}
	logging.WithContext(ctx, w.logger).Info("renamed episode",
		logging.String(logging.FieldEventType, "episode_renamed"),
		logging.EpisodeID(assignment.Episode.ID),
		logging.File(mkv),
		logging.String("target", filepath.Base(target)),
		logging.Int("distance", assignment.Distance),
	)
	return rename, nil
}

// TargetName is the file name an episode's mkv is renamed to.
func TargetName(ep contentid.Episode) string {
	return textutil.SanitizeFileName(fmt.Sprintf("%s - %s", ep.Key(), ep.Name)) + ".mkv"
}

// DefaultTitle derives a search title from a directory name.
func DefaultTitle(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	name := strings.NewReplacer("_", " ", ".", " ").Replace(filepath.Base(abs))
	name = strings.Join(strings.Fields(name), " ")
	if name == "" || name == string(filepath.Separator) {
		return ""
	}
	return cases.Title(language.English).String(name)
}
