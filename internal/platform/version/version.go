package version

import "runtime"

// Build information, injected via ldflags at build time:
//
//	-X github.com/pscheid92/valo/internal/platform/version.Version=v1.2.3
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info is served on /version and attached to error reports.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// Release is the release name reported to Sentry.
func Release() string {
	if Commit == "unknown" {
		return "valo@" + Version
	}
	return "valo@" + Version + "+" + Commit
}
