package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"autotagger/internal/config"
	"autotagger/internal/fileutil"
	"autotagger/internal/logging"
	"autotagger/internal/media/ffprobe"
	"autotagger/internal/services"
	"autotagger/internal/services/mkvtoolnix"
	"autotagger/internal/services/ocr"
	"autotagger/internal/taskqueue"
)

// Prober lists the subtitle streams of a container.
type Prober interface {
	SubtitleStreams(ctx context.Context, path string) ([]ffprobe.Stream, error)
}

// Recognizer converts bitmap subtitles to text.
type Recognizer interface {
	VobSubToSRT(ctx context.Context, idxPath, srtPath string) error
	PGSToVobSub(ctx context.Context, supPath, idxPath string) error
	BDSup2SubPath() string
	SetBDSup2SubPath(path string)
}

// Console is the subset of the interactive console the workflow uses.
type Console interface {
	Chooser
	Input(ctx context.Context, title, value string) (string, error)
	Printf(ctx context.Context, format string, args ...any) error
}

type ffprobeProber struct {
	binary string
}

func (p ffprobeProber) SubtitleStreams(ctx context.Context, path string) ([]ffprobe.Stream, error) {
	result, err := ffprobe.Inspect(ctx, p.binary, path)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ffprobe", "inspect", path, err)
	}
	return result.SubtitleStreams(), nil
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithProber replaces the ffprobe-backed track lister.
func WithProber(p Prober) Option {
	return func(w *Workflow) {
		if p != nil {
			w.prober = p
		}
	}
}

// WithExtractor replaces the mkvextract client.
func WithExtractor(e mkvtoolnix.Extractor) Option {
	return func(w *Workflow) {
		if e != nil {
			w.extractor = e
		}
	}
}

// WithRecognizer replaces the OCR client.
func WithRecognizer(r Recognizer) Option {
	return func(w *Workflow) {
		if r != nil {
			w.ocr = r
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		if logger != nil {
			w.logger = logging.NewComponentLogger(logger, "extraction")
		}
	}
}

// Workflow extracts comparison subtitles from mkv files.
type Workflow struct {
	prober     Prober
	extractor  mkvtoolnix.Extractor
	ocr        Recognizer
	console    Console
	logger     *slog.Logger
	languages  []string
	ocrEnabled bool
}

// New builds a workflow from configuration.
func New(cfg *config.Config, console Console, opts ...Option) (*Workflow, error) {
	if cfg == nil {
		return nil, errors.New("extraction requires config")
	}
	if console == nil {
		return nil, errors.New("extraction requires a console")
	}
	w := &Workflow{
		prober:     ffprobeProber{binary: cfg.Extraction.FFprobeBinary},
		console:    console,
		logger:     logging.NewComponentLogger(logging.NewNop(), "extraction"),
		languages:  append([]string(nil), cfg.Extraction.Languages...),
		ocrEnabled: cfg.OCR.Enabled,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.extractor == nil {
		client, err := mkvtoolnix.New(cfg.Extraction.MkvextractBinary)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "extraction", "init", "mkvextract", err)
		}
		w.extractor = client
	}
	if w.ocr == nil {
		w.ocr = ocr.New(ocr.Config{
			VobsubocrBinary: cfg.OCR.VobsubocrBinary,
			Language:        cfg.OCR.Language,
			CharBlacklist:   cfg.OCR.CharBlacklist,
			JavaBinary:      cfg.OCR.JavaBinary,
			BDSup2SubPath:   cfg.OCR.BDSup2SubPath,
		})
	}
	return w, nil
}

// Request selects what Run processes.
type Request struct {
	// Dir is searched for *.mkv when Files is empty.
	Dir     string
	Files   []string
	SkipOCR bool
}

// FileResult records what happened to one input file.
type FileResult struct {
	Source string
	Track  ffprobe.Stream
	Format Format
	// Output is the final subtitle path: the .srt once conversion succeeded,
	// otherwise the raw extracted file.
	Output string
	Err    error
}

// Report summarises a run.
type Report struct {
	Files []FileResult
}

// Failed counts files whose conversion failed.
func (r Report) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// Run extracts every requested file. Extraction failures abort the run; OCR
// and conversion failures are recorded on the file and reported.
func (w *Workflow) Run(ctx context.Context, req Request) (Report, error) {
	ctx = services.WithStage(ctx, "extraction")
	files := req.Files
	if len(files) == 0 {
		dir := req.Dir
		if dir == "" {
			dir = "."
		}
		found, err := fileutil.ListByExtension(dir, "mkv")
		if err != nil {
			return Report{}, services.Wrap(services.ErrValidation, "extraction", "list", "list mkv files", err)
		}
		files = found
	}
	if len(files) == 0 {
		return Report{}, services.Wrap(services.ErrNotFound, "extraction", "list", "no mkv files found", nil)
	}

	var queue *taskqueue.Queue
	if !req.SkipOCR {
		queue = taskqueue.New(ctx, taskqueue.WithName("ocr"), taskqueue.WithLogger(w.logger))
		defer queue.Close()
	}

	var mu sync.Mutex
	results := make([]FileResult, len(files))
	record := func(i int, fn func(*FileResult)) {
		mu.Lock()
		fn(&results[i])
		mu.Unlock()
	}
	// snapshot reports the first n files; files after an abort were never reached.
	snapshot := func(n int) Report {
		mu.Lock()
		defer mu.Unlock()
		return Report{Files: append([]FileResult(nil), results[:n]...)}
	}

	for i, file := range files {
		fileCtx := services.WithFile(ctx, file)
		result, err := w.extract(fileCtx, file)
		record(i, func(r *FileResult) { *r = result })
		if err != nil {
			record(i, func(r *FileResult) { r.Err = err })
			if queue != nil {
				_ = queue.WaitForQueuedTasks(ctx)
			}
			return snapshot(i + 1), err
		}
		if result.Format == FormatSubRip {
			continue
		}
		if queue == nil {
			if !result.Format.Bitmap() {
				output, err := w.convert(fileCtx, result)
				record(i, func(r *FileResult) {
					if err != nil {
						r.Err = err
						return
					}
					r.Output = output
				})
			}
			continue
		}
		if result.Format == FormatPGS && w.ocrEnabled {
			if err := w.ensureBDSup2Sub(fileCtx); err != nil {
				record(i, func(r *FileResult) { r.Err = err })
				continue
			}
		}
		idx := i
		if err := queue.Add(func(taskCtx context.Context) {
			output, err := w.convert(services.WithFile(taskCtx, result.Source), result)
			record(idx, func(r *FileResult) {
				if err != nil {
					r.Err = err
					return
				}
				r.Output = output
			})
		}); err != nil {
			return snapshot(i + 1), err
		}
	}

	if queue != nil {
		if err := queue.WaitForQueuedTasks(ctx); err != nil {
			return snapshot(len(files)), services.Wrap(services.ErrCancelled, "extraction", "wait", "waiting for subtitle conversion", err)
		}
	}
	return snapshot(len(files)), nil
}

func (w *Workflow) extract(ctx context.Context, file string) (FileResult, error) {
	result := FileResult{Source: file}
	logger := logging.WithContext(ctx, w.logger)

	streams, err := w.prober.SubtitleStreams(ctx, file)
	if err != nil {
		return result, err
	}
	track, err := SelectTrack(ctx, streams, w.languages, w.console)
	if err != nil {
		return result, err
	}
	result.Track = track
	result.Format = FormatForCodec(track.CodecName)
	if result.Format == FormatUnknown {
		return result, services.Wrap(services.ErrValidation, "extraction", "select track", fmt.Sprintf("unsupported subtitle codec %q", track.CodecName), nil)
	}
	dest := fileutil.ReplaceExt(file, result.Format.Extension())

	logger.Info("extracting subtitles",
		logging.String(logging.FieldEventType, "extract_start"),
		logging.Int("track", track.Index),
		logging.String("codec", track.CodecName),
		logging.String("destination", dest),
	)
	progress := func(update mkvtoolnix.ProgressUpdate) {
		logger.Debug("mkvextract progress", logging.Any("percent", update.Percent))
	}
	if err := w.extractor.ExtractTrack(ctx, file, track.Index, dest, progress); err != nil {
		return result, err
	}
	result.Output = dest
	return result, nil
}

func (w *Workflow) ensureBDSup2Sub(ctx context.Context) error {
	if w.ocr.BDSup2SubPath() != "" {
		return nil
	}
	path, err := w.console.Input(ctx, "Path to BDSup2Sub.jar (needed for Blu-ray subtitles)", "")
	if err != nil {
		return err
	}
	if path == "" {
		return services.Wrap(services.ErrConfiguration, "extraction", "ocr", "BDSup2Sub path required for PGS subtitles", nil)
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "extraction", "ocr", "expand BDSup2Sub path", err)
	}
	w.ocr.SetBDSup2SubPath(expanded)
	return nil
}

// convert runs on the queue executor.
func (w *Workflow) convert(ctx context.Context, result FileResult) (string, error) {
	logger := logging.WithContext(ctx, w.logger)
	srt := fileutil.ReplaceExt(result.Source, ".srt")

	switch result.Format {
	case FormatASS, FormatWebVTT:
		if err := ConvertToSRT(result.Output, srt); err != nil {
			w.reportFailure(ctx, result.Source, err)
			return "", err
		}
		w.cleanup(ctx, result.Output)
	case FormatPGS:
		if !w.ocrEnabled {
			return result.Output, nil
		}
		idx := fileutil.ReplaceExt(result.Source, ".idx")
		if err := w.ocr.PGSToVobSub(ctx, result.Output, idx); err != nil {
			w.reportFailure(ctx, result.Source, err)
			return "", err
		}
		w.cleanup(ctx, result.Output)
		if err := w.recognize(ctx, result.Source, idx, srt); err != nil {
			return "", err
		}
	case FormatVobSub:
		if !w.ocrEnabled {
			return result.Output, nil
		}
		if err := w.recognize(ctx, result.Source, result.Output, srt); err != nil {
			return "", err
		}
	default:
		return result.Output, nil
	}

	if cues, err := CountCues(srt); err != nil || cues == 0 {
		logging.WarnWithContext(logger, "converted subtitles contain no cues", "subtitle_empty",
			logging.String("srt", srt),
			logging.String(logging.FieldErrorHint, "check the OCR language and the extracted track"),
			logging.String(logging.FieldImpact, "matching this file will be unreliable"),
		)
	}
	logger.Info("subtitles ready",
		logging.String(logging.FieldEventType, "subtitle_ready"),
		logging.String("srt", srt),
	)
	return srt, nil
}

func (w *Workflow) recognize(ctx context.Context, source, idx, srt string) error {
	if err := w.ocr.VobSubToSRT(ctx, idx, srt); err != nil {
		w.reportFailure(ctx, source, err)
		return err
	}
	w.cleanup(ctx, idx, fileutil.ReplaceExt(idx, ".sub"))
	return nil
}

func (w *Workflow) cleanup(ctx context.Context, paths ...string) {
	for _, path := range paths {
		if err := fileutil.RemoveIfExists(path); err != nil {
			_ = w.console.Printf(ctx, "Could not delete %s. Error:\n%v", filepath.Base(path), err)
		}
	}
}

func (w *Workflow) reportFailure(ctx context.Context, source string, err error) {
	logging.ErrorWithContext(logging.WithContext(ctx, w.logger), "subtitle conversion failed", "conversion_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "the raw extracted subtitles were kept next to the mkv"),
	)
	_ = w.console.Printf(ctx, "Failed to convert subtitles for %s: %v", filepath.Base(source), err)
}
