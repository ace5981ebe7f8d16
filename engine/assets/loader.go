package assets

import "github.com/spaghettifunk/heifloader/engine/renderer/metadata"

type Loader interface {
	Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) // `interface{}` here allows loaders to take per-type parameters
	Unload(*metadata.Resource) error
}

// BytesLoader is implemented by loaders that can also decode in-memory data.
type BytesLoader interface {
	Loader
	LoadBytes(name string, data []byte, params interface{}) (*metadata.Resource, error)
}
