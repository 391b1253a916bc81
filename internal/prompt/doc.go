// Package prompt owns the interactive console.
//
// Every question and notice is funnelled through a single taskqueue.Queue, so
// prompts issued from concurrent goroutines (for example a credential prompt
// raised mid-download while the main flow is printing results) never
// interleave on the terminal. Questions are rendered with huh; notices are
// plain lines. Subtitle previews are paged through less when stdout is a
// terminal.
package prompt
