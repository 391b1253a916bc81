// Package opensubtitles wraps the OpenSubtitles REST API: account login with a
// process-lifetime session token, subtitle search by TMDB episode id, and the
// two-step download (negotiate a link, then fetch it). Downloaded payloads are
// memoised in memory so a subtitle picked twice in one run is fetched once.
package opensubtitles
