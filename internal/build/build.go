// Package build exposes the build metadata injected at link time, e.g.
//
//	go build -ldflags "-X github.com/openfga/pipegraph/internal/build.Version=v0.1.0"
package build

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// ProjectName is used in log, trace and metric metadata.
	ProjectName = "pipegraph"
)
