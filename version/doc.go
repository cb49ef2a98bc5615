// Package version reports the asrkit build.
//
// Release builds stamp the version with -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/asrkit/version.Version=1.2.0" ./cmd/asrkit
//
// Commit and build time fall back to the VCS stamp Go embeds in the binary.
package version
