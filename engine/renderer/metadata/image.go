package metadata

/**
 * @brief A structure to hold image resource data.
 */
type ImageResourceData struct {
	/** @brief The number of channels. Always 4 (RGBA8) for decoded HEIF images. */
	ChannelCount uint8
	/** @brief The width of the image. */
	Width uint32
	/** @brief The height of the image. */
	Height uint32
	/** @brief The pixel data of the image, row-major, Width*Height*ChannelCount bytes. */
	Pixels []uint8
}

/** @brief Parameters used when loading an image. */
type ImageResourceParams struct {
	/** @brief Indicates if the image should be flipped on the y-axis when loaded. */
	FlipY bool
	/** @brief Remaps (r,g,b,a) to (0xFF,g,g,r) after decoding. */
	AsNormalMap bool
	/** @brief Hint for texture creation: generate a full mip chain. Ignored by the decoder. */
	MipChain bool
	/** @brief Hint for texture creation: pixels are linear rather than sRGB. Ignored by the decoder. */
	Linear bool
}
