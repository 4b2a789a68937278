//go:build darwin

package platform

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTimesSetsBirthTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	want := Times{
		Created:  time.Date(2019, 7, 8, 9, 10, 11, 250000000, time.UTC),
		Modified: time.Date(2021, 3, 4, 5, 6, 7, 123456789, time.UTC),
		Accessed: time.Date(2022, 1, 2, 3, 4, 5, 987654321, time.UTC),
	}
	require.NoError(t, WriteTimes(path, want))

	got, err := ReadTimes(path)
	require.NoError(t, err)
	assert.True(t, want.Created.Equal(got.Created), "birth %v != %v", got.Created, want.Created)
	assert.True(t, want.Modified.Equal(got.Modified), "mtime %v != %v", got.Modified, want.Modified)
}
