package conf

const (
	APP_NAME = "argus"
	APP_DESC = "LLM Gateway Usage Monitor"
)

// Overridden at build time via -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	Author    = "bestruirui"
	Repo      = "https://github.com/bestruirui/argus"
)
