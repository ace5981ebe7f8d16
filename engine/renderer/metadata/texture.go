package metadata

import "math"

/** @brief Marks an unassigned texture id or generation. */
const InvalidID uint32 = math.MaxUint32

type TextureFlag int

const (
	/** @brief Indicates if the texture has transparency. */
	TextureFlagHasTransparency TextureFlag = 0x1
	/** @brief Indicates if the texture stores linear values rather than sRGB. */
	TextureFlagIsLinear TextureFlag = 0x2
	/** @brief Indicates if the texture carries a generated mip chain. */
	TextureFlagHasMips TextureFlag = 0x4
	/** @brief Indicates if the texture holds a normal map. */
	TextureFlagIsNormalMap TextureFlag = 0x8
)

/** @brief Holds bit flags for textures.. */
type TextureFlagBits uint8

func (b TextureFlagBits) Has(f TextureFlag) bool {
	return b&TextureFlagBits(f) != 0
}

/**
 * @brief Represents various types of textures.
 */
type TextureType int

const (
	/** @brief A standard two-dimensional texture. */
	TextureType2d TextureType = iota
)

/** @brief One level of a mip chain. Level 0 is the full-size image. */
type MipLevel struct {
	Width  uint32
	Height uint32
	Pixels []uint8
}

/**
 * @brief Represents a CPU-side texture ready to be handed to a renderer.
 */
type Texture struct {
	/** @brief The unique texture identifier. */
	ID uint32
	/** @brief The texture type. */
	TextureType TextureType
	/** @brief The texture Width. */
	Width uint32
	/** @brief The texture Height. */
	Height uint32
	/** @brief The number of channels in the texture. */
	ChannelCount uint8
	/** @brief Holds various Flags for this texture. */
	Flags TextureFlagBits
	/** @brief The texture Generation. Incremented every time the data is reloaded. */
	Generation uint32
	/** @brief The texture Name. */
	Name string
	/** @brief The mip chain. Always holds at least level 0. */
	Mips []MipLevel
}
