package versioninfo

// Set at build time with -ldflags "-X .../versioninfo.Version=...".
var (
	Version   = "dev"
	BuildDate = "unknown"
)

type VersionInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
}

func Current() VersionInfo {
	return VersionInfo{Version: Version, BuildDate: BuildDate}
}
