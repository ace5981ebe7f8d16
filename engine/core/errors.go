package core

import (
	"errors"
)

var (
	ErrAssetNotFound        = errors.New("asset not found")
	ErrLoaderNotRegistered  = errors.New("no loader registered for resource type")
	ErrUnknownResourceType  = errors.New("unknown resource type")
	ErrEngineNotInitialized = errors.New("engine not initialized")
	ErrUnknown              = errors.New("unknown")
)
