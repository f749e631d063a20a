package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Color variables for console output.
var (
	GoldColor   = color.New(color.FgYellow, color.Bold) // first place
	SilverColor = color.New(color.FgWhite, color.Bold)  // second place
	BronzeColor = color.New(color.FgMagenta)            // third place
	RankColor   = color.New(color.FgCyan)               // everyone else
)

// GetPlainRank returns the plain text rank label used for CSV, JSON and
// table printing.
func GetPlainRank(rank int) string {
	return fmt.Sprintf("#%d", rank)
}

// GetColorRank returns a colored rank label for console tables, highlighting
// the podium positions.
func GetColorRank(rank int) string {
	text := GetPlainRank(rank)
	switch rank {
	case 1:
		return GoldColor.Sprint(text)
	case 2:
		return SilverColor.Sprint(text)
	case 3:
		return BronzeColor.Sprint(text)
	default:
		return RankColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on
// the provided file path. It falls back to os.Stdout for an empty path.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetDefaultDBFilePath returns the path to the SQLite DB file used when no
// connection string is configured.
func GetDefaultDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".devscore.db"
	}
	return filepath.Join(homeDir, ".devscore.db")
}

// TruncateEmail truncates a user email to a maximum width with ellipsis
// suffix. Requires maxWidth > 3 so there is room for the ellipsis and at
// least one character of content.
func TruncateEmail(email string, maxWidth int) string {
	runes := []rune(email)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return email
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive); an empty
// string defaults to true.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
