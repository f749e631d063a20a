// Package outwriter has output and writer logic.
package outwriter

import (
	"os"
	"time"

	"github.com/huangsam/devscore/internal/contract"
	"github.com/huangsam/devscore/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteLeaderboard prints a leaderboard snapshot using the configured output format.
func (ow *OutWriter) WriteLeaderboard(snapshot *schema.LeaderboardSnapshot, cfg *contract.Config, duration time.Duration) error {
	return PrintLeaderboardResults(snapshot, cfg, duration)
}

// WriteScoreRows prints score rows using the configured output format.
func (ow *OutWriter) WriteScoreRows(rows []schema.ScoreRow, cfg *contract.Config, duration time.Duration) error {
	return PrintScoreRowResults(rows, cfg, duration)
}

// GetMaxEmailWidth calculates the maximum width for user emails in table output
// based on terminal width and table configuration.
func GetMaxEmailWidth(cfg *contract.Config, detailColumns bool) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		// Get terminal width
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve space for fixed columns with table formatting
	baseWidth := 20 // Rank + Score with borders/padding

	if detailColumns {
		// Project + Hook + Commits + Lines +/- + Files + Hours + Reqs with formatting
		baseWidth += 60
	}

	// Reserve generous space for table borders, separators, and padding
	baseWidth += 10

	// Calculate available space for the email address
	available := termWidth - baseWidth
	if available < 12 {
		// Minimum reasonable email width
		return 12
	}
	if available > 48 {
		// Maximum email width to prevent overly wide tables
		return 48
	}
	return available
}
