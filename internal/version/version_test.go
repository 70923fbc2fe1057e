package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersion_DefaultValues(t *testing.T) {
	assert.Equal(t, "dev", Version)
	assert.Equal(t, "dev", Commit)
	assert.Equal(t, "unknown", BuildTime)
}

func TestString(t *testing.T) {
	assert.Equal(t, "dev (commit dev, built unknown)", String())
}

func TestString_ReflectsLinkerOverrides(t *testing.T) {
	oldVersion, oldCommit, oldBuild := Version, Commit, BuildTime
	t.Cleanup(func() { Version, Commit, BuildTime = oldVersion, oldCommit, oldBuild })

	Version, Commit, BuildTime = "v1.2.0", "abc1234", "2026-10-01T12:00:00Z"

	assert.Equal(t, "v1.2.0 (commit abc1234, built 2026-10-01T12:00:00Z)", String())
}
