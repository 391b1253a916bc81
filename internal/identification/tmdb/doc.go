// Package tmdb provides the minimal TMDB API client used to resolve a TV show
// into the episodes a disc may contain.
//
// It exposes TV search, show details (season list) and season details
// (episode list). Successful responses are memoised in-process with go-cache
// so repeated lookups during one run do not hit the network twice. Options
// let tests supply a custom HTTP client or cache.
package tmdb
