// Package deps reports whether the external tools and directories the
// workflows rely on are usable.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"autotagger/internal/config"
)

// Requirement defines an external dependency autotagger relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the binaries configured in cfg.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "mkvextract", Command: cfg.Extraction.MkvextractBinary, Description: "Extracts subtitle tracks from mkv files"},
		{Name: "ffprobe", Command: cfg.Extraction.FFprobeBinary, Description: "Lists subtitle tracks"},
		{Name: "vobsubocr", Command: cfg.OCR.VobsubocrBinary, Description: "Reads text from VobSub subtitles", Optional: !cfg.OCR.Enabled},
		{Name: "java", Command: cfg.OCR.JavaBinary, Description: "Runs BDSup2Sub for PGS subtitles", Optional: true},
		{Name: "less", Command: cfg.Interaction.PagerBinary, Description: "Previews subtitles during manual selection", Optional: true},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the names of unavailable, non-optional dependencies.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status.Name)
		}
	}
	return missing
}

// CheckWritable verifies that dir exists and is readable and writable, which
// the workflows need to write subtitles and rename files in place.
func CheckWritable(name, dir string) Status {
	status := Status{Name: name, Command: dir, Description: "Working directory"}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			status.Detail = "does not exist"
			return status
		}
		status.Detail = fmt.Sprintf("stat: %v", err)
		return status
	}
	if !info.IsDir() {
		status.Detail = "is not a directory"
		return status
	}
	if err := unix.Access(dir, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		status.Detail = fmt.Sprintf("insufficient permissions: %v", err)
		return status
	}
	status.Available = true
	status.Detail = "read/write ok"
	return status
}
