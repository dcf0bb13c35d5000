package version

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFprint(t *testing.T) {
	t.Cleanup(func() {
		Version, GitCommit, BuildOS, BuildArch = "", "", "", ""
	})

	var buf bytes.Buffer
	Fprint(&buf)
	assert.Equal(t, "lockrs version dev\n", buf.String())

	Version = "v1.2.0"
	GitCommit = "0123456789abcdef"
	BuildOS, BuildArch = "linux", "amd64"
	buf.Reset()
	Fprint(&buf)
	assert.Equal(t,
		"lockrs version v1.2.0\nGit commit: 0123456\nBuilt for: linux/amd64\n",
		buf.String())
}
