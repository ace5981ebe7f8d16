package loaders

import (
	"bytes"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/heifloader/engine/heif"
	"github.com/spaghettifunk/heifloader/engine/heif/heiftest"
	"github.com/spaghettifunk/heifloader/engine/renderer/metadata"
)

func writeBitstream(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, heiftest.Bitstream(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImageLoaderLoad(t *testing.T) {
	codec := heiftest.New(1, 2, 0, func(_, y int) color.NRGBA {
		return color.NRGBA{R: uint8(10 * (y + 1)), G: uint8(20 * (y + 1)), B: 3, A: 255}
	})
	loader := NewImageLoader(heif.NewDecoder(codec))
	path := writeBitstream(t, "tile.heic")

	tests := []struct {
		name   string
		params interface{}
		want   []byte
	}{
		{
			name:   "nil params",
			params: nil,
			want:   []byte{10, 20, 3, 255, 20, 40, 3, 255},
		},
		{
			name:   "flip",
			params: &metadata.ImageResourceParams{FlipY: true},
			want:   []byte{20, 40, 3, 255, 10, 20, 3, 255},
		},
		{
			name:   "normal map by value",
			params: metadata.ImageResourceParams{AsNormalMap: true},
			want:   []byte{0xFF, 20, 20, 10, 0xFF, 40, 40, 20},
		},
		{
			name:   "texture hints do not change pixels",
			params: &metadata.ImageResourceParams{MipChain: true, Linear: true},
			want:   []byte{10, 20, 3, 255, 20, 40, 3, 255},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := loader.Load(path, metadata.ResourceTypeImage, tt.params)
			if err != nil {
				t.Fatal(err)
			}
			if res.Name != "tile.heic" || res.FullPath != path || res.Type != metadata.ResourceTypeImage {
				t.Errorf("unexpected resource header: %+v", res)
			}
			data, ok := res.Data.(*metadata.ImageResourceData)
			if !ok {
				t.Fatalf("got %T, want *metadata.ImageResourceData", res.Data)
			}
			if data.Width != 1 || data.Height != 2 || data.ChannelCount != 4 {
				t.Errorf("got %dx%dx%d, want 1x2x4", data.Width, data.Height, data.ChannelCount)
			}
			if !bytes.Equal(data.Pixels, tt.want) {
				t.Errorf("got %v, want %v", data.Pixels, tt.want)
			}
			if res.DataSize != uint64(len(tt.want)) {
				t.Errorf("data size: got %d", res.DataSize)
			}
		})
	}

	if err := codec.Verify(); err != nil {
		t.Error(err)
	}
}

func TestImageLoaderErrors(t *testing.T) {
	codec := heiftest.Solid(2, 2, color.NRGBA{A: 255})
	loader := NewImageLoader(heif.NewDecoder(codec))

	t.Run("bad params", func(t *testing.T) {
		_, err := loader.Load(writeBitstream(t, "a.heic"), metadata.ResourceTypeImage, "nope")
		if err == nil {
			t.Errorf("expected an error")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.Load(filepath.Join(t.TempDir(), "gone.heic"), metadata.ResourceTypeImage, nil)
		var ioErr *heif.IOError
		if !errors.As(err, &ioErr) {
			t.Errorf("got %v, want *heif.IOError", err)
		}
	})

	t.Run("corrupt bytes", func(t *testing.T) {
		_, err := loader.LoadBytes("broken", heiftest.Corrupt(), nil)
		var decErr *heif.DecodeError
		if !errors.As(err, &decErr) {
			t.Errorf("got %v, want *heif.DecodeError", err)
		}
	})

	if err := codec.Verify(); err != nil {
		t.Error(err)
	}
}

func TestImageLoaderUnload(t *testing.T) {
	loader := NewImageLoader(heif.NewDecoder(heiftest.Solid(1, 1, color.NRGBA{A: 255})))
	res, err := loader.LoadBytes("mem", heiftest.Bitstream(), nil)
	if err != nil {
		t.Fatal(err)
	}
	data := res.Data.(*metadata.ImageResourceData)

	if err := loader.Unload(res); err != nil {
		t.Fatal(err)
	}
	if res.Data != nil || res.DataSize != 0 || data.Pixels != nil {
		t.Errorf("resource not cleared: %+v", res)
	}
	if err := loader.Unload(nil); err != nil {
		t.Errorf("unloading nil: %v", err)
	}
}
