package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-imagefolder/config"
	"github.com/nvr-ai/go-imagefolder/dataset"
)

func TestParseSize(t *testing.T) {
	size, err := parseSize("32x24")
	require.NoError(t, err)
	assert.Equal(t, config.Size{Width: 32, Height: 24}, size)

	size, err = parseSize("64X64")
	require.NoError(t, err)
	assert.Equal(t, config.Size{Width: 64, Height: 64}, size)

	_, err = parseSize("big")
	assert.Error(t, err)
}

func TestLoadConfigOverrides(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg.yaml", []byte("root: /from-file\nextensions: [.bmp]\n"), 0o644))

	cfg, err := loadConfig(fs, "/cfg.yaml", "/override", "png, .JPG,", "16x8")
	require.NoError(t, err)
	assert.Equal(t, "/override", cfg.Root)
	assert.Equal(t, []string{".png", ".JPG"}, cfg.Extensions)
	assert.Equal(t, config.Size{Width: 16, Height: 8}, cfg.Resize)

	cfg, err = loadConfig(fs, "", "/only-flag", "", "")
	require.NoError(t, err)
	assert.Equal(t, "/only-flag", cfg.Root)
	assert.Empty(t, cfg.Extensions)

	_, err = loadConfig(fs, "/missing.yaml", "", "", "")
	assert.Error(t, err)
}

func TestDatasetMeanStd(t *testing.T) {
	fs := afero.NewMemMapFs()
	for i, p := range []string{"a/1.png", "b/2.png"} {
		img := image.NewGray(image.Rect(0, 0, 2, 1))
		img.SetGray(0, 0, color.Gray{Y: uint8(10 * i)})
		img.SetGray(1, 0, color.Gray{Y: uint8(10*i + 20)})
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, img))
		full := filepath.Join("/data", p)
		require.NoError(t, fs.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, afero.WriteFile(fs, full, buf.Bytes(), 0o644))
	}

	ds, err := dataset.NewImageFolder(dataset.NewImageFolderArgs{Root: "/data", Fs: fs})
	require.NoError(t, err)

	// Values 0, 20, 10, 30.
	mean, std, err := datasetMeanStd(ds)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{15}, mean, 1e-12)
	assert.InDeltaSlice(t, []float64{11.180339887498949}, std, 1e-9)
}
