package engine

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUNC(t *testing.T) {
	tests := []struct {
		path string
		goos string
		want bool
	}{
		{`\\server\share\f.txt`, "windows", true},
		{`\\server\share\f.txt`, "linux", true},
		{`//server/share/f.txt`, "windows", true},
		{`//tmp/f.txt`, "linux", false},
		{`//tmp/f.txt`, "darwin", false},
		{`\\?\UNC\server\share\f.txt`, "windows", true},
		{`\\?\C:\data\f.txt`, "windows", false},
		{`C:\data\f.txt`, "windows", false},
		{"/data/f.txt", "linux", false},
		{"relative/f.txt", "linux", false},
	}
	for _, tt := range tests {
		t.Run(tt.goos+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, isUNC(tt.path, tt.goos))
		})
	}
}

func TestValidatePath(t *testing.T) {
	_, err := validatePath("", false)
	require.Error(t, err)
	_, err = validatePath("   ", false)
	require.Error(t, err)

	_, err = validatePath(`\\nas\backups\x`, false)
	require.ErrorIs(t, err, errUNCPath)

	got, err := validatePath("some/rel/file", false)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))

	if runtime.GOOS != "windows" {
		got, err = validatePath("//tmp/f.txt", false)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/f.txt", got)
	}
}

func TestExtendedLengthPath(t *testing.T) {
	long := `C:\` + strings.Repeat(`segment\`, 40) + "f.txt"
	assert.Equal(t, `\\?\`+long, extendedLengthPath(long, "windows"))
	assert.Equal(t, `\\?\`+long, extendedLengthPath(`\\?\`+long, "windows"), "already extended")
	assert.Equal(t, `C:\short.txt`, extendedLengthPath(`C:\short.txt`, "windows"))
	assert.Equal(t, "/"+strings.Repeat("x/", 200), extendedLengthPath("/"+strings.Repeat("x/", 200), "linux"))
}
