package version

// version is set at build time via -ldflags.
var version = "dev"

// Get returns the SDK version.
func Get() string {
	return version
}
