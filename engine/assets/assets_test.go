package assets

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/heifloader/engine/assets/loaders"
	"github.com/spaghettifunk/heifloader/engine/core"
	"github.com/spaghettifunk/heifloader/engine/heif"
	"github.com/spaghettifunk/heifloader/engine/heif/heiftest"
	"github.com/spaghettifunk/heifloader/engine/renderer/metadata"
)

var _ BytesLoader = (*loaders.ImageLoader)(nil)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func newManager(t *testing.T, dir string, watch bool) (*AssetManager, *heiftest.Codec) {
	t.Helper()
	am, err := NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = am.Shutdown() })

	codec := heiftest.Solid(2, 2, color.NRGBA{R: 1, G: 2, B: 3, A: 4})
	am.RegisterLoader(metadata.ResourceTypeImage, loaders.NewImageLoader(heif.NewDecoder(codec)))
	if err := am.Initialize(dir, watch); err != nil {
		t.Fatal(err)
	}
	return am, codec
}

func TestDetermineAssetType(t *testing.T) {
	tests := []struct {
		path string
		want metadata.ResourceType
	}{
		{"a.heic", metadata.ResourceTypeImage},
		{"dir/b.HEIF", metadata.ResourceTypeImage},
		{"c.hif", metadata.ResourceTypeImage},
		{"d.avci", metadata.ResourceTypeImage},
		{"e.png", metadata.ResourceTypeNone},
		{"noext", metadata.ResourceTypeNone},
	}
	for _, tt := range tests {
		if got := DetermineAssetType(tt.path); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestAssetManagerIndexAndLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "textures", "brick.heic"), heiftest.Bitstream())
	writeFile(t, filepath.Join(dir, "sky.heif"), heiftest.Bitstream())
	writeFile(t, filepath.Join(dir, "readme.txt"), []byte("ignored"))

	am, codec := newManager(t, dir, false)

	if am.Count() != 2 {
		t.Fatalf("indexed %d assets, want 2", am.Count())
	}
	images := am.Assets(metadata.ResourceTypeImage)
	if len(images) != 2 || images[0].Name != "sky.heif" || images[1].Name != "textures/brick.heic" {
		t.Fatalf("unexpected index: %+v", images)
	}

	for _, name := range []string{"textures/brick.heic", "brick.heic", "brick"} {
		t.Run(name, func(t *testing.T) {
			res, err := am.LoadAsset(name, metadata.ResourceTypeImage, &metadata.ImageResourceParams{})
			if err != nil {
				t.Fatal(err)
			}
			data := res.Data.(*metadata.ImageResourceData)
			if data.Width != 2 || data.Height != 2 || len(data.Pixels) != 16 {
				t.Errorf("unexpected image data: %dx%d, %d bytes", data.Width, data.Height, len(data.Pixels))
			}
			if err := am.UnloadAsset(res); err != nil {
				t.Error(err)
			}
		})
	}

	info, _ := am.Lookup("brick")
	if info.LastLoaded.IsZero() {
		t.Errorf("LastLoaded not updated")
	}
	if err := codec.Verify(); err != nil {
		t.Error(err)
	}
}

func TestAssetManagerLoadErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.heic"), heiftest.Bitstream())
	am, _ := newManager(t, dir, false)

	if _, err := am.LoadAsset("missing", metadata.ResourceTypeImage, nil); !errors.Is(err, core.ErrAssetNotFound) {
		t.Errorf("got %v, want ErrAssetNotFound", err)
	}
	if _, err := am.LoadAsset("a", metadata.ResourceTypeBinary, nil); err == nil {
		t.Errorf("expected a type mismatch error")
	}

	bare, err := NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}
	defer bare.Shutdown()
	if err := bare.Initialize(dir, false); err != nil {
		t.Fatal(err)
	}
	if _, err := bare.LoadAsset("a", metadata.ResourceTypeImage, nil); !errors.Is(err, core.ErrLoaderNotRegistered) {
		t.Errorf("got %v, want ErrLoaderNotRegistered", err)
	}
}

type fileOnlyLoader struct{}

func (fileOnlyLoader) Load(string, metadata.ResourceType, interface{}) (*metadata.Resource, error) {
	return nil, nil
}

func (fileOnlyLoader) Unload(*metadata.Resource) error { return nil }

func TestAssetManagerLoadBytes(t *testing.T) {
	am, codec := newManager(t, t.TempDir(), false)

	res, err := am.LoadBytes("inline", metadata.ResourceTypeImage, heiftest.Bitstream(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Name != "inline" || res.FullPath != "" || res.DataSize != 16 {
		t.Errorf("unexpected resource %+v", res)
	}
	if am.Count() != 0 {
		t.Errorf("in-memory loads must not be indexed, got %d assets", am.Count())
	}

	if _, err := am.LoadBytes("x", metadata.ResourceTypeBinary, []byte{1}, nil); !errors.Is(err, core.ErrLoaderNotRegistered) {
		t.Errorf("got %v, want ErrLoaderNotRegistered", err)
	}

	am.RegisterLoader(metadata.ResourceTypeCustom, fileOnlyLoader{})
	if _, err := am.LoadBytes("x", metadata.ResourceTypeCustom, []byte{1}, nil); err == nil {
		t.Errorf("expected an error for a loader without LoadBytes")
	}

	if err := codec.Verify(); err != nil {
		t.Error(err)
	}
}

func TestAssetManagerWatch(t *testing.T) {
	dir := t.TempDir()
	am, _ := newManager(t, dir, true)

	writeFile(t, filepath.Join(dir, "new.heic"), heiftest.Bitstream())

	select {
	case name := <-am.Reloads():
		if name != "new.heic" {
			t.Errorf("got reload for %q, want new.heic", name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload event received")
	}

	if _, ok := am.Lookup("new"); !ok {
		t.Errorf("new asset was not indexed")
	}

	if err := os.Remove(filepath.Join(dir, "new.heic")); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, ok := am.Lookup("new"); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("removed asset is still indexed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestAssetManagerShutdownTwice(t *testing.T) {
	am, err := NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}
	if err := am.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := am.Shutdown(); err != nil {
		t.Errorf("second shutdown: %v", err)
	}
}
