package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	oldV, oldC, oldD := Version, GitCommit, BuildDate
	t.Cleanup(func() { Version, GitCommit, BuildDate = oldV, oldC, oldD })

	Version, GitCommit, BuildDate = "v1.0.0", "abc123", "2026-01-02"
	assert.Equal(t, "langid v1.0.0 (commit: abc123, built: 2026-01-02)", String())

	v, c, d := Info()
	assert.Equal(t, "v1.0.0", v)
	assert.Equal(t, "abc123", c)
	assert.Equal(t, "2026-01-02", d)
}
