package loaders

import (
	"fmt"
	"path/filepath"

	"github.com/spaghettifunk/heifloader/engine/core"
	"github.com/spaghettifunk/heifloader/engine/heif"
	"github.com/spaghettifunk/heifloader/engine/renderer/metadata"
)

// ImageLoader decodes HEIF/HEIC files into RGBA8 image resources.
type ImageLoader struct {
	decoder *heif.Decoder
}

func NewImageLoader(decoder *heif.Decoder) *ImageLoader {
	return &ImageLoader{decoder: decoder}
}

func imageParams(params interface{}) (*metadata.ImageResourceParams, error) {
	switch p := params.(type) {
	case nil:
		return &metadata.ImageResourceParams{}, nil
	case *metadata.ImageResourceParams:
		return p, nil
	case metadata.ImageResourceParams:
		return &p, nil
	default:
		return nil, fmt.Errorf("failed to cast params in image loader: %T", params)
	}
}

func (il *ImageLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	typedParams, err := imageParams(params)
	if err != nil {
		return nil, err
	}

	img, err := il.decoder.DecodeFile(path, heif.Options{
		FlipY:       typedParams.FlipY,
		AsNormalMap: typedParams.AsNormalMap,
	})
	if err != nil {
		core.LogError("failed to load image `%s`: %s", path, err)
		return nil, err
	}
	core.LogDebug("loaded image `%s` (%dx%d)", path, img.Width, img.Height)

	return newImageResource(filepath.Base(path), path, img), nil
}

// LoadBytes decodes an in-memory HEIF bitstream. name is only used to label
// the resulting resource.
func (il *ImageLoader) LoadBytes(name string, data []byte, params interface{}) (*metadata.Resource, error) {
	typedParams, err := imageParams(params)
	if err != nil {
		return nil, err
	}

	img, err := il.decoder.Decode(data, heif.Options{
		FlipY:       typedParams.FlipY,
		AsNormalMap: typedParams.AsNormalMap,
	})
	if err != nil {
		core.LogError("failed to load image `%s` from memory: %s", name, err)
		return nil, err
	}

	return newImageResource(name, "", img), nil
}

func newImageResource(name, path string, img *heif.PixelImage) *metadata.Resource {
	return &metadata.Resource{
		Type:     metadata.ResourceTypeImage,
		Name:     name,
		FullPath: path,
		DataSize: uint64(len(img.Pixels)),
		Data: &metadata.ImageResourceData{
			ChannelCount: heif.BytesPerPixel,
			Width:        uint32(img.Width),
			Height:       uint32(img.Height),
			Pixels:       img.Pixels,
		},
	}
}

func (il *ImageLoader) Unload(res *metadata.Resource) error {
	if res == nil {
		return nil
	}
	if data, ok := res.Data.(*metadata.ImageResourceData); ok {
		data.Pixels = nil
	}
	res.Data = nil
	res.DataSize = 0
	return nil
}
