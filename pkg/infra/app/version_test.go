package app

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
)

func TestGetVersion(t *testing.T) {
	// Unstamped builds still carry a default version string.
	assert.NotEmpty(t, GetVersion())
}

func TestAddVersionFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddVersionFlags(fs)

	count := 0
	fs.VisitAll(func(*pflag.Flag) { count++ })
	assert.Positive(t, count)
}
