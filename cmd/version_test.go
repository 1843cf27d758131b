package cmd

import (
	"bytes"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setStamp(t *testing.T, version, commit, date string) {
	t.Helper()
	oldVersion, oldCommit, oldDate := Version, Commit, BuildDate
	Version, Commit, BuildDate = version, commit, date
	t.Cleanup(func() {
		Version, Commit, BuildDate = oldVersion, oldCommit, oldDate
	})
}

func TestResolveBuildInfoPrefersLdflags(t *testing.T) {
	setStamp(t, "1.2.0", "3f2c9ab", "2024-05-01T10:00:00Z")

	info := &debug.BuildInfo{
		Main: debug.Module{Version: "v9.9.9"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "ffffffffffffffff"},
			{Key: "vcs.time", Value: "2000-01-01T00:00:00Z"},
		},
	}

	b := resolveBuildInfo(info, true)
	assert.Equal(t, "1.2.0", b.Version)
	assert.Equal(t, "3f2c9ab", b.Commit)
	assert.Equal(t, "2024-05-01T10:00:00Z", b.BuildDate)
	assert.Equal(t, "tally-export 1.2.0 (commit 3f2c9ab, built 2024-05-01T10:00:00Z)", b.String())
}

func TestResolveBuildInfoFallsBackToVCS(t *testing.T) {
	setStamp(t, "dev", "", "")

	info := &debug.BuildInfo{
		Main: debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2024-06-30T08:15:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	b := resolveBuildInfo(info, true)
	assert.Equal(t, "dev", b.Version)
	assert.Equal(t, "0123456789abcdef", b.Commit)
	assert.True(t, b.Modified)
	assert.Equal(t, "tally-export dev (commit 0123456-dirty, built 2024-06-30T08:15:00Z)", b.String())

	b = resolveBuildInfo(nil, false)
	assert.Equal(t, "tally-export dev (commit unknown, built unknown)", b.String())
}

func TestVersionCommandShort(t *testing.T) {
	setStamp(t, "1.2.0", "3f2c9ab", "2024-05-01T10:00:00Z")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version", "--short"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		versionShort = false
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "1.2.0", strings.TrimSpace(out.String()))
}
