// Package version carries build metadata set at link time.
package version

import "fmt"

// Version, GitCommit, and BuildDate are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/vdc-project/vdchost/pkg/version.Version=v1.0.0 \
//	  -X github.com/vdc-project/vdchost/pkg/version.GitCommit=abc1234 \
//	  -X github.com/vdc-project/vdchost/pkg/version.BuildDate=2026-01-01"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info renders a single-line build summary for --version output.
func Info() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
