// Package buildconfig exposes version metadata stamped at link time:
//
//	go build -ldflags "-X .../internal/buildconfig.version=v1.2.0 -X .../internal/buildconfig.commit=$(git rev-parse --short HEAD)"
package buildconfig

var (
	version = "dev"
	commit  = "unknown"
)

func Version() string { return version }

func Commit() string { return commit }

// VersionInfo bundles the stamped fields for status endpoints.
func VersionInfo() map[string]string {
	return map[string]string{
		"version": version,
		"commit":  commit,
	}
}
