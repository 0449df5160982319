package config

import (
	"image"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-imagefolder/images"
	"github.com/nvr-ai/go-imagefolder/transforms"
)

const pipelineYAML = `
root: /data/train
extensions: [".png", ".jpg"]
resize: {width: 32, height: 24}
filter: bilinear
transforms:
  - type: rescale
    range: [0, 1]
    old_range: [0, 255]
  - type: normalize
    mean: [0.5, 0.25, 0.5]
    std: [0.5, 0.25, 0.5]
`

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestLoadYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/cfg.yaml", pipelineYAML)

	cfg, err := Load(fs, "/cfg.yaml")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/data/train", cfg.Root)
	assert.Equal(t, []string{".png", ".jpg"}, cfg.Extensions)
	assert.Equal(t, Size{Width: 32, Height: 24}, cfg.Resize)
	require.Len(t, cfg.Transforms, 2)

	opts, err := cfg.LoadOptions()
	require.NoError(t, err)
	assert.Equal(t, images.LoadOptions{Resize: image.Point{X: 32, Y: 24}, Filter: images.FilterBilinear}, opts)

	transform, err := cfg.BuildTransform()
	require.NoError(t, err)
	img := tensor.New(tensor.WithShape(1, 1, 3), tensor.WithBacking([]float64{255, 0, 127.5}))
	out, err := transform.Apply(img)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, -1, 0}, out.Data().([]float64), 1e-12)
}

func TestLoadJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/cfg.json", `{"root": "/d", "transforms": [{"type": "rescale"}]}`)

	cfg, err := Load(fs, "/cfg.json")
	require.NoError(t, err)
	assert.Equal(t, "/d", cfg.Root)
	assert.Equal(t, string(images.FilterLanczos3), cfg.Filter)

	transform, err := cfg.BuildTransform()
	require.NoError(t, err)
	compose, ok := transform.(transforms.Compose)
	require.True(t, ok)
	require.Len(t, compose, 1)
	assert.Equal(t, &transforms.Rescale{New: transforms.UnitRange, Old: transforms.DefaultRange}, compose[0])
}

func TestLoadEmptyFileKeepsDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/empty.yaml", "")

	cfg, err := Load(fs, "/empty.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	transform, err := cfg.BuildTransform()
	require.NoError(t, err)
	assert.Nil(t, transform)
}

func TestLoadErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := Load(fs, "/missing.yaml")
	assert.Error(t, err)

	writeFile(t, fs, "/unknown.yaml", "root: /d\nshuffle: true\n")
	_, err = Load(fs, "/unknown.yaml")
	assert.Error(t, err)

	writeFile(t, fs, "/bad.yaml", "root: [unterminated\n")
	_, err = Load(fs, "/bad.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"ok", func(c *Config) {}, false},
		{"missing root", func(c *Config) { c.Root = "" }, true},
		{"bad filter", func(c *Config) { c.Filter = "sinc" }, true},
		{"half crop", func(c *Config) { c.CenterCrop = Size{Width: 4} }, true},
		{"negative resize", func(c *Config) { c.Resize = Size{Width: -1, Height: 2} }, true},
		{"unknown transform", func(c *Config) { c.Transforms = []TransformConfig{{Type: "blur"}} }, true},
		{"bad range", func(c *Config) { c.Transforms = []TransformConfig{{Type: "rescale", Range: []float64{1}}} }, true},
		{"zero width old range", func(c *Config) {
			c.Transforms = []TransformConfig{{Type: "rescale", OldRange: []float64{4, 4}}}
		}, true},
		{"zero std", func(c *Config) {
			c.Transforms = []TransformConfig{{Type: "normalize", Mean: []float64{0}, Std: []float64{0}}}
		}, true},
		{"case insensitive type", func(c *Config) {
			c.Transforms = []TransformConfig{{Type: "Normalize", Mean: []float64{1}, Std: []float64{2}}}
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Root = "/data"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := DefaultConfig()
	cfg.Root = "/data"
	cfg.CenterCrop = Size{Width: 8, Height: 8}
	cfg.Transforms = []TransformConfig{{Type: TransformNormalize, Mean: []float64{1, 2}, Std: []float64{3, 4}}}

	require.NoError(t, cfg.Save(fs, "/out.yaml"))
	loaded, err := Load(fs, "/out.yaml")
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDatasetArgs(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/cfg.yaml", pipelineYAML)
	cfg, err := Load(fs, "/cfg.yaml")
	require.NoError(t, err)

	args, err := cfg.DatasetArgs(fs)
	require.NoError(t, err)
	assert.Equal(t, "/data/train", args.Root)
	assert.Equal(t, fs, args.Fs)
	assert.NotNil(t, args.Transform)
	assert.Equal(t, image.Point{X: 32, Y: 24}, args.Load.Resize)

	cfg.Root = ""
	_, err = cfg.DatasetArgs(fs)
	assert.Error(t, err)
}

func TestDatasetArgsPropagatesBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"filter", func(c *Config) { c.Filter = "bogus" }},
		{"crop", func(c *Config) { c.CenterCrop = Size{Width: 2} }},
		{"transform", func(c *Config) {
			c.Transforms = []TransformConfig{{Type: TransformNormalize, Mean: []float64{0}, Std: []float64{0}}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Root = "/data"
			tt.mutate(cfg)

			args, err := cfg.DatasetArgs(nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
			assert.Empty(t, args.Root)
			assert.Nil(t, args.Transform)
		})
	}
}
