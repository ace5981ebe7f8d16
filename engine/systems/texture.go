package systems

import (
	"fmt"
	"image"
	"sync"

	"github.com/google/uuid"
	"github.com/spaghettifunk/heifloader/engine/core"
	"github.com/spaghettifunk/heifloader/engine/math"
	"github.com/spaghettifunk/heifloader/engine/renderer/metadata"
	"golang.org/x/image/draw"
)

type TextureSystemConfig struct {
	/** @brief The maximum number of textures that can be loaded at once. */
	MaxTextureCount uint32
	/** @brief "bilinear" or "catmullrom". */
	MipFilter string
}

/** @brief Texture creation hints that do not affect decoding. */
type TextureOptions struct {
	MipChain  bool
	Linear    bool
	NormalMap bool
}

type TextureSystem struct {
	Config *TextureSystemConfig

	mu sync.RWMutex
	// Hashtable for texture lookups.
	registeredTextures map[string]*metadata.Texture
	nextID             uint32
	scaler             draw.Scaler
}

func NewTextureSystem(config *TextureSystemConfig) (*TextureSystem, error) {
	if config.MaxTextureCount == 0 {
		err := fmt.Errorf("func NewTextureSystem - config.MaxTextureCount must be > 0")
		core.LogError("%s", err)
		return nil, err
	}

	var scaler draw.Scaler
	switch config.MipFilter {
	case "", "bilinear":
		scaler = draw.ApproxBiLinear
	case "catmullrom":
		scaler = draw.CatmullRom
	default:
		return nil, fmt.Errorf("func NewTextureSystem - unknown mip filter %q", config.MipFilter)
	}

	return &TextureSystem{
		Config:             config,
		registeredTextures: make(map[string]*metadata.Texture),
		scaler:             scaler,
	}, nil
}

// Create builds a texture from decoded RGBA8 pixels and registers it under
// name. An empty name gets a generated one. Creating a texture under an
// existing name replaces its data and bumps its generation.
func (ts *TextureSystem) Create(name string, img *metadata.ImageResourceData, opts TextureOptions) (*metadata.Texture, error) {
	if img == nil || img.Width == 0 || img.Height == 0 {
		return nil, fmt.Errorf("cannot create texture %q from an empty image", name)
	}
	if img.ChannelCount != 4 || len(img.Pixels) != int(img.Width*img.Height*4) {
		return nil, fmt.Errorf("texture %q: expected %dx%d RGBA8 pixels, got %d channels and %d bytes", name, img.Width, img.Height, img.ChannelCount, len(img.Pixels))
	}
	if name == "" {
		name = uuid.NewString()
	}

	var flags metadata.TextureFlagBits
	if opts.Linear {
		flags |= metadata.TextureFlagBits(metadata.TextureFlagIsLinear)
	}
	if opts.NormalMap {
		flags |= metadata.TextureFlagBits(metadata.TextureFlagIsNormalMap)
	} else if hasTransparency(img.Pixels) {
		// alpha of a normal map holds data, not coverage
		flags |= metadata.TextureFlagBits(metadata.TextureFlagHasTransparency)
	}

	mips := []metadata.MipLevel{{Width: img.Width, Height: img.Height, Pixels: img.Pixels}}
	if opts.MipChain {
		mips = ts.generateMipChain(img.Pixels, img.Width, img.Height)
		flags |= metadata.TextureFlagBits(metadata.TextureFlagHasMips)
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	texture, exists := ts.registeredTextures[name]
	if !exists {
		if uint32(len(ts.registeredTextures)) >= ts.Config.MaxTextureCount {
			return nil, fmt.Errorf("texture system is full (%d textures), cannot create %q", ts.Config.MaxTextureCount, name)
		}
		texture = &metadata.Texture{
			ID:          ts.nextID,
			TextureType: metadata.TextureType2d,
			Name:        name,
			Generation:  metadata.InvalidID,
		}
		ts.nextID++
		ts.registeredTextures[name] = texture
	}

	texture.Width = img.Width
	texture.Height = img.Height
	texture.ChannelCount = img.ChannelCount
	texture.Flags = flags
	texture.Mips = mips
	// InvalidID + 1 wraps to 0 for a fresh texture
	texture.Generation++

	core.LogDebug("texture `%s` created (%dx%d, %d mip levels, generation %d)", name, texture.Width, texture.Height, len(mips), texture.Generation)
	return texture, nil
}

func (ts *TextureSystem) Get(name string) (*metadata.Texture, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	t, ok := ts.registeredTextures[name]
	return t, ok
}

func (ts *TextureSystem) Count() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return len(ts.registeredTextures)
}

// Release drops the texture registered under name. It reports whether a
// texture was found.
func (ts *TextureSystem) Release(name string) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t, ok := ts.registeredTextures[name]
	if !ok {
		core.LogWarn("texture_system_release called for unknown texture '%s'", name)
		return false
	}
	t.ID = metadata.InvalidID
	t.Generation = metadata.InvalidID
	t.Mips = nil
	delete(ts.registeredTextures, name)
	core.LogDebug("texture `%s` released", name)
	return true
}

func (ts *TextureSystem) Shutdown() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for name, t := range ts.registeredTextures {
		t.ID = metadata.InvalidID
		t.Generation = metadata.InvalidID
		t.Mips = nil
		delete(ts.registeredTextures, name)
	}
	return nil
}

// generateMipChain halves the image until it reaches 1x1. Each level is
// resampled from the previous one, one channel at a time, so colour is never
// clamped to alpha. Normal maps keep their data in alpha.
func (ts *TextureSystem) generateMipChain(pixels []uint8, width, height uint32) []metadata.MipLevel {
	count := math.MipLevelCount(width, height)
	mips := make([]metadata.MipLevel, 0, count)
	mips = append(mips, metadata.MipLevel{Width: width, Height: height, Pixels: pixels})

	w, h := width, height
	for level := 1; level < count; level++ {
		nw, nh := math.HalveDimension(w), math.HalveDimension(h)
		pixels = ts.downsample(pixels, w, h, nw, nh)
		mips = append(mips, metadata.MipLevel{Width: nw, Height: nh, Pixels: pixels})
		w, h = nw, nh
	}
	return mips
}

func (ts *TextureSystem) downsample(pixels []uint8, sw, sh, dw, dh uint32) []uint8 {
	out := make([]uint8, dw*dh*4)
	src := image.NewGray(image.Rect(0, 0, int(sw), int(sh)))
	dst := image.NewGray(image.Rect(0, 0, int(dw), int(dh)))
	for c := 0; c < 4; c++ {
		for i := range src.Pix {
			src.Pix[i] = pixels[i*4+c]
		}
		ts.scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		for i, v := range dst.Pix {
			out[i*4+c] = v
		}
	}
	return out
}

func hasTransparency(pixels []uint8) bool {
	for i := 3; i < len(pixels); i += 4 {
		if pixels[i] != 0xFF {
			return true
		}
	}
	return false
}
