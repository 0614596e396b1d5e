package app

import (
	"github.com/kart-io/version"
	"github.com/spf13/pflag"
)

// GetVersion returns the stamped git version of this build. The FAQ service
// attaches it to every log line as service.version.
func GetVersion() string {
	return version.Get().GitVersion
}

// AddVersionFlags registers the --version flag group on the flagset.
func AddVersionFlags(fs *pflag.FlagSet) {
	version.AddFlags(fs)
}

// PrintAndExitIfRequested honors --version before the command body runs.
func PrintAndExitIfRequested() {
	version.PrintAndExitIfRequested()
}
