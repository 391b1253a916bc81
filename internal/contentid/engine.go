package contentid

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"autotagger/internal/logging"
	"autotagger/internal/services"
	"autotagger/internal/textutil"
)

// DistanceFunc computes an edit distance between two normalized texts.
type DistanceFunc func(a, b string) int

// Engine computes distances and assignments.
type Engine struct {
	workers  int
	logger   *slog.Logger
	distance DistanceFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers bounds the number of concurrent distance computations.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDistanceFunc overrides the distance metric.
func WithDistanceFunc(fn DistanceFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.distance = fn
		}
	}
}

// NewEngine constructs an engine that defaults to one worker per CPU and
// Levenshtein distance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		workers:  runtime.NumCPU(),
		logger:   logging.NewNop(),
		distance: textutil.Levenshtein,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Match produces exactly one Assignment per file, ordered by file path.
func (e *Engine) Match(ctx context.Context, episodes []Episode, files []CandidateFile) ([]Assignment, error) {
	observations, err := e.Distances(ctx, episodes, files)
	if err != nil {
		return nil, err
	}
	byEpisode := GroupByEpisode(observations)
	byFile := InvertByFile(byEpisode, episodes)
	return Assign(files, byFile), nil
}

// Distances computes an observation for every (episode, file) pair. Pairs are
// scored in parallel; the returned slice is sorted by episode ID, distance,
// then file.
func (e *Engine) Distances(ctx context.Context, episodes []Episode, files []CandidateFile) ([]Observation, error) {
	if err := validateInputs(episodes, files); err != nil {
		return nil, err
	}
	total := len(episodes) * len(files)
	if total == 0 {
		return nil, nil
	}

	logger := logging.WithContext(ctx, e.logger)
	started := time.Now()

	results := make(chan Observation, min(total, 64))
	collected := make(chan []Observation, 1)
	go func() {
		out := make([]Observation, 0, total)
		for obs := range results {
			out = append(out, obs)
		}
		collected <- out
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	var scheduled int
schedule:
	for _, episode := range episodes {
		for _, file := range files {
			if gctx.Err() != nil {
				break schedule
			}
			scheduled++
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				obs := Observation{
					EpisodeID: episode.ID,
					File:      file.Path,
					Distance:  e.distance(episode.Text, file.Text),
				}
				select {
				case results <- obs:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
	}
	err := g.Wait()
	close(results)
	logger.Debug("distance scheduling finished",
		logging.Int("scheduled", scheduled),
		logging.Int("pairs", total),
	)
	observations := <-collected
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, services.Wrap(services.ErrCancelled, "matching", "distances", "distance computation interrupted", err)
	}

	SortObservations(observations)
	logger.Debug("distance computation complete",
		logging.Int("episodes", len(episodes)),
		logging.Int("files", len(files)),
		logging.Int("pairs", len(observations)),
		logging.Int("workers", e.workers),
		logging.Duration("elapsed", time.Since(started)),
	)
	return observations, nil
}

func validateInputs(episodes []Episode, files []CandidateFile) error {
	seenEpisodes := make(map[int64]struct{}, len(episodes))
	for _, episode := range episodes {
		if _, dup := seenEpisodes[episode.ID]; dup {
			return services.Wrap(services.ErrValidation, "matching", "validate", fmt.Sprintf("duplicate episode id %d", episode.ID), nil)
		}
		seenEpisodes[episode.ID] = struct{}{}
	}
	seenFiles := make(map[string]struct{}, len(files))
	for _, file := range files {
		if _, dup := seenFiles[file.Path]; dup {
			return services.Wrap(services.ErrValidation, "matching", "validate", fmt.Sprintf("duplicate candidate file %q", file.Path), nil)
		}
		seenFiles[file.Path] = struct{}{}
	}
	return nil
}
