package artifact

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewatch/currentpoint/internal/domain"
)

func testArtifact() domain.Artifact {
	u, v, speed, bearing := 12.5, -3.0, 12.854960132, 103.495564
	return domain.Artifact{
		Target:      domain.GeoPoint{Lat: 37.7477, Lon: -122.3020},
		Nearest:     &domain.SampleRow{Time: "2026-03-14 17:00:00", Lat: 37.75, Lon: -122.30, U: 12.5, V: -3.0},
		From:        "2026-03-14 12:00:00",
		To:          "2026-03-14 18:00:00",
		Hours:       6,
		BoxKm:       12,
		UOM:         "cms",
		N:           1,
		U:           &u,
		V:           &v,
		Speed:       &speed,
		Bearing:     &bearing,
		SourceURL:   "https://hfradar.ndbc.noaa.gov/tabdownload.php?fmt=csv",
		TierUsed:    &domain.QueryTier{Hours: 6, BoxKm: 12},
		GeneratedAt: time.Date(2026, 3, 14, 18, 4, 0, 0, time.UTC),
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "point.json"))
	want := testArtifact()

	require.NoError(t, s.Save(want))

	got, found, err := s.Load()
	require.NoError(t, err)
	require.True(t, found)
	assert.Empty(t, cmp.Diff(want, got))
}

func TestStore_LoadMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "absent.json"))

	_, found, err := s.Load()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_SaveCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deeply", "nested", "point.json")
	s := NewStore(path)

	require.NoError(t, s.Save(testArtifact()))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "point.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewStore(path)
	_, _, err := s.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode artifact")
}

func TestStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "point.json"))

	require.NoError(t, s.Save(testArtifact()))
	require.NoError(t, s.Save(testArtifact()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "point.json", entries[0].Name())
}
