// Package buildinfo reports version data injected with -ldflags -X.
package buildinfo

import "go.uber.org/zap"

// Info is the build metadata of the running binary.
type Info struct {
	Version string
	Date    string
	Commit  string
}

// New substitutes "N/A" for values the build did not set.
func New(version, date, commit string) Info {
	return Info{Version: orNA(version), Date: orNA(date), Commit: orNA(commit)}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Log writes the build metadata as one structured line.
func (i Info) Log(logger *zap.SugaredLogger) {
	logger.Infow("build info",
		"version", i.Version,
		"date", i.Date,
		"commit", i.Commit,
	)
}
