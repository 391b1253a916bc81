package tagging

import (
	"context"
	"fmt"

	"autotagger/internal/contentid"
	"autotagger/internal/identification/tmdb"
	"autotagger/internal/logging"
	"autotagger/internal/services"
	"autotagger/internal/subtitles/opensubtitles"
	"autotagger/internal/textutil"
)

const confirmSubtitlesTitle = "Use these subtitles for comparison?"

// references downloads and normalizes one reference subtitle per episode.
// Episodes without usable subtitles are reported and left out.
func (w *Workflow) references(ctx context.Context, episodes []tmdb.Episode, manual bool) ([]contentid.Episode, error) {
	out := make([]contentid.Episode, 0, len(episodes))
	for _, ep := range episodes {
		epCtx := services.WithEpisodeID(ctx, ep.ID)
		text, err := w.reference(epCtx, ep, manual)
		if err != nil {
			if services.Recoverable(err) {
				logging.WithContext(epCtx, w.logger).Info("no reference subtitles",
					logging.String(logging.FieldEventType, "reference_missing"),
					logging.String("episode", episodeKey(ep)),
				)
				if perr := w.console.Printf(ctx, "Skipping %s. No subtitles found.", episodeKey(ep)); perr != nil {
					return nil, perr
				}
				continue
			}
			return nil, err
		}
		out = append(out, contentid.Episode{
			ID:            ep.ID,
			SeasonNumber:  ep.SeasonNumber,
			EpisodeNumber: ep.EpisodeNumber,
			Name:          ep.Name,
			Text:          textutil.NormalizeSubtitles(text),
		})
	}
	return out, nil
}

func (w *Workflow) reference(ctx context.Context, ep tmdb.Episode, manual bool) (string, error) {
	resp, err := w.subtitles.Search(ctx, opensubtitles.SearchRequest{TMDBID: ep.ID, Languages: w.languages})
	if err != nil {
		return "", err
	}
	candidates := resp.Subtitles
	if len(candidates) == 0 {
		return "", services.Wrap(services.ErrNotFound, "tagging", "reference", "no subtitles for "+episodeKey(ep), nil)
	}
	if !manual {
		result, err := w.subtitles.Download(ctx, candidates[0].FileID)
		if err != nil {
			return "", err
		}
		return string(result.Data), nil
	}

	title := fmt.Sprintf("Select subtitles for %s - %s", episodeKey(ep), ep.Name)
	for len(candidates) > 0 {
		labels := make([]string, len(candidates))
		for i, sub := range candidates {
			labels[i] = sub.Label()
		}
		idx, err := w.console.Select(ctx, title, labels)
		if err != nil {
			return "", err
		}
		result, err := w.subtitles.Download(ctx, candidates[idx].FileID)
		if err != nil {
			return "", err
		}
		if err := w.console.Preview(ctx, string(result.Data)); err != nil {
			return "", err
		}
		ok, err := w.console.Confirm(ctx, confirmSubtitlesTitle, true)
		if err != nil {
			return "", err
		}
		if ok {
			return string(result.Data), nil
		}
		candidates = append(candidates[:idx:idx], candidates[idx+1:]...)
	}
	return "", services.Wrap(services.ErrNotFound, "tagging", "reference", "no subtitles accepted for "+episodeKey(ep), nil)
}

func episodeKey(ep tmdb.Episode) string {
	return fmt.Sprintf("S%02dE%02d", ep.SeasonNumber, ep.EpisodeNumber)
}
