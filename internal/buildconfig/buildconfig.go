// Package buildconfig exposes build metadata injected via ldflags:
//
//	-ldflags "-X github.com/Harshitk-cp/proofstream/internal/buildconfig.version=v1.2.0"
package buildconfig

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// UserAgent identifies a proofstream binary in outgoing requests.
func UserAgent(program string) string {
	return fmt.Sprintf("%s/%s (%s)", program, version, commit)
}
