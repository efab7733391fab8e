package versions

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionInfoWithValues(t *testing.T) {
	t.Parallel()

	t.Run("release build", func(t *testing.T) {
		t.Parallel()
		info := getVersionInfoWithValues("v1.4.0", "0123456789abcdef", "2026-03-01T10:00:00Z")

		assert.Equal(t, "v1.4.0", info.Version)
		assert.Equal(t, "0123456789abcdef", info.Commit)
		assert.Equal(t, "2026-03-01 10:00:00 UTC", info.BuildDate)
		assert.Equal(t, runtime.Version(), info.GoVersion)
		assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	})

	t.Run("dev build uses commit prefix", func(t *testing.T) {
		t.Parallel()
		info := getVersionInfoWithValues("dev", "0123456789abcdef", "not-a-date")

		assert.Equal(t, "build-01234567", info.Version)
		assert.Equal(t, "not-a-date", info.BuildDate)
	})

	t.Run("dev build without vcs info", func(t *testing.T) {
		t.Parallel()
		info := getVersionInfoWithValues("dev", unknownStr, unknownStr)

		assert.True(t, strings.HasPrefix(info.Version, "build-"))
	})
}
