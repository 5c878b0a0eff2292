// Package cliutil provides the structured-logging and output-formatting
// helpers shared by the command-line surface. The field-name constants and
// WithFields usage are grounded on nabbar-golib/logger/types' FieldFile,
// FieldLine, and FieldError conventions, trimmed to the subset a CLI (as
// opposed to a long-running service) actually emits.
package cliutil

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

const (
	FieldArchive = "archive"
	FieldMember  = "member"
	FieldError   = "error"
	FieldCode    = "code"
)

// NewLogger builds the process-wide logger. verbose raises the level to
// Debug; quiet raises it to Warn; otherwise Info.
func NewLogger(verbose, quiet bool) *logrus.Logger {
	log := logrus.New()
	log.Out = os.Stderr
	log.Formatter = &logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    false,
	}

	switch {
	case verbose:
		log.SetLevel(logrus.DebugLevel)
	case quiet:
		log.SetLevel(logrus.WarnLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}

// FormatSize renders a byte count the way the listing table and summary
// lines do, choosing the largest unit under which the value is >= 1.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB", "PB"}
	value := float64(n) / float64(div)

	return fmt.Sprintf("%.1f %s", value, units[exp])
}
