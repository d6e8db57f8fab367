package main

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRawImage(t *testing.T, dir string, values []float32) string {
	t.Helper()
	path := filepath.Join(dir, "image.raw")
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func TestRunEndToEndOverRawImage(t *testing.T) {
	dir := t.TempDir()
	path := writeRawImage(t, dir, []float32{0, 1, 2, 5, 2, 1, 0})

	cfg := defaultConfig()
	cfg.Image.Path = path
	cfg.Image.Width = 7
	cfg.Image.Height = 1

	assert.NoError(t, run(cfg, false))
}

func TestRunWriteSnapshotThenReload(t *testing.T) {
	dir := t.TempDir()
	path := writeRawImage(t, dir, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9})
	snapshotPath := filepath.Join(dir, "tree.snap")

	cfg := defaultConfig()
	cfg.Image.Path = path
	cfg.Image.Width = 9
	cfg.Image.Height = 1
	cfg.SnapshotPath = snapshotPath

	require.NoError(t, run(cfg, true))

	info, err := os.Stat(snapshotPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	// A second run reuses the snapshot on the same image instead of
	// rebuilding; it should still run detection to completion.
	require.NoError(t, run(cfg, false))
}

func TestRunRejectsMissingImagePath(t *testing.T) {
	cfg := defaultConfig()
	assert.Error(t, run(cfg, false))
}

func TestConnectivityByNameRejectsUnknown(t *testing.T) {
	_, err := connectivityByName("6")
	assert.Error(t, err)
}
