package buildinfo

import "time"

// Set via -ldflags "-X .../internal/buildinfo.CommitHash=..." at build time.
var (
	Version    = "dev"
	CommitHash string
	BuildTime  string
)

var startedAt = time.Now().UTC()

// Info describes the running binary for health probes.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"buildTime,omitempty"`
	StartedAt string `json:"startedAt"`
	Uptime    string `json:"uptime"`
}

// Current reports build metadata and process uptime.
func Current() Info {
	return Info{
		Version:   Version,
		Commit:    CommitHash,
		BuildTime: BuildTime,
		StartedAt: startedAt.Format(time.RFC3339),
		Uptime:    time.Since(startedAt).Round(time.Second).String(),
	}
}
