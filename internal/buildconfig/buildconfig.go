package buildconfig

import "fmt"

// Set with -ldflags "-X github.com/casadoar/payrecon/internal/buildconfig.version=..."
var (
	version = "dev"
	commit  = "unknown"
)

type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

func Get() Info {
	return Info{Version: version, Commit: commit}
}

func (i Info) String() string {
	return fmt.Sprintf("payrecon %s (%s)", i.Version, i.Commit)
}
