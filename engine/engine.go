package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/spaghettifunk/heifloader/engine/assets"
	"github.com/spaghettifunk/heifloader/engine/assets/loaders"
	"github.com/spaghettifunk/heifloader/engine/core"
	"github.com/spaghettifunk/heifloader/engine/heif"
	"github.com/spaghettifunk/heifloader/engine/renderer/metadata"
	"github.com/spaghettifunk/heifloader/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released every system
	EngineStageShutdown
)

// LoadOptions mirrors the loader flags exposed to callers. MipChain and
// Linear only matter for LoadTexture.
type LoadOptions struct {
	FlipY       bool
	MipChain    bool
	Linear      bool
	AsNormalMap bool
}

func DefaultLoadOptions() LoadOptions {
	return LoadOptions{MipChain: true}
}

func (o LoadOptions) decodeOptions() heif.Options {
	return heif.Options{FlipY: o.FlipY, AsNormalMap: o.AsNormalMap}
}

// Result is delivered exactly once by the asynchronous loaders.
type Result struct {
	Image *heif.PixelImage
	Err   error
}

type Engine struct {
	// guards currentStage. Initialize and Shutdown hold it for their whole run.
	mu           sync.RWMutex
	currentStage Stage
	config       *core.Config

	decoder       *heif.Decoder
	imageLoader   *loaders.ImageLoader
	assetManager  *assets.AssetManager
	jobSystem     *systems.JobSystem
	textureSystem *systems.TextureSystem
}

func New(config *core.Config, codec heif.Codec) (*Engine, error) {
	if config == nil {
		config = core.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if codec == nil {
		return nil, fmt.Errorf("engine needs a heif codec")
	}
	if err := core.SetLogLevel(config.Log.Level); err != nil {
		core.LogWarn("invalid log level %q, keeping the default: %s", config.Log.Level, err)
	}
	if err := core.MetricsInitialize(); err != nil {
		return nil, err
	}

	opts := []heif.DecoderOption{heif.WithCopiedInput(config.Decoder.CopyInput)}
	if config.Decoder.Serialize {
		opts = append(opts, heif.WithSerializedDecodes())
	}
	decoder := heif.NewDecoder(codec, opts...)

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       config,
		decoder:      decoder,
		imageLoader:  loaders.NewImageLoader(decoder),
		assetManager: am,
	}, nil
}

func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("engine cannot be initialized from stage %d", e.currentStage)
	}
	e.currentStage = EngineStageInitializing

	js, err := systems.NewJobSystem(e.config.Jobs.Workers, e.config.Jobs.QueueSize)
	if err != nil {
		core.LogError("%s", err)
		return err
	}
	e.jobSystem = js

	ts, err := systems.NewTextureSystem(&systems.TextureSystemConfig{
		MaxTextureCount: e.config.Textures.MaxCount,
		MipFilter:       e.config.Textures.MipFilter,
	})
	if err != nil {
		return err
	}
	e.textureSystem = ts

	e.assetManager.RegisterLoader(metadata.ResourceTypeImage, e.imageLoader)
	if e.config.Assets.Dir != "" {
		if err := e.assetManager.Initialize(e.config.Assets.Dir, e.config.Assets.Watch); err != nil {
			core.LogWarn("assets directory %s not indexed: %s", e.config.Assets.Dir, err)
		}
	}

	e.currentStage = EngineStageInitialized
	core.LogInfo("engine initialized (%d decode workers)", e.config.Jobs.Workers)
	return nil
}

func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.currentStage == EngineStageShutdown || e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown

	if e.jobSystem != nil {
		if err := e.jobSystem.Shutdown(); err != nil {
			return err
		}
	}
	if e.textureSystem != nil {
		if err := e.textureSystem.Shutdown(); err != nil {
			return err
		}
	}
	if err := e.assetManager.Shutdown(); err != nil {
		return err
	}

	e.currentStage = EngineStageShutdown
	core.LogInfo("engine shut down")
	return nil
}

func (e *Engine) Stage() Stage {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.currentStage
}

func (e *Engine) AssetManager() *assets.AssetManager {
	return e.assetManager
}

func (e *Engine) TextureSystem() *systems.TextureSystem {
	return e.textureSystem
}

// LoadFromFile reads and decodes a HEIF file synchronously.
func (e *Engine) LoadFromFile(path string, opts LoadOptions) (*heif.PixelImage, error) {
	return measure(func() (*heif.PixelImage, error) {
		return e.decoder.DecodeFile(path, opts.decodeOptions())
	})
}

// LoadFromBytes decodes an in-memory HEIF bitstream synchronously.
func (e *Engine) LoadFromBytes(data []byte, opts LoadOptions) (*heif.PixelImage, error) {
	return measure(func() (*heif.PixelImage, error) {
		return e.decoder.Decode(data, opts.decodeOptions())
	})
}

// measure times a decode and feeds the result into the decode metrics.
func measure(decode func() (*heif.PixelImage, error)) (*heif.PixelImage, error) {
	clock := core.NewClock()
	clock.Start()
	img, err := decode()
	clock.Update()
	clock.Stop()

	size := 0
	if img != nil {
		size = len(img.Pixels)
	}
	core.MetricsRecordDecode(clock.Elapsed(), size, err)
	return img, err
}

// LoadFromFileAsync runs LoadFromFile on the job system.
func (e *Engine) LoadFromFileAsync(ctx context.Context, path string, opts LoadOptions) <-chan Result {
	return e.submit(ctx, func() (*heif.PixelImage, error) {
		return e.LoadFromFile(path, opts)
	})
}

// LoadFromBytesAsync runs LoadFromBytes on the job system. data must not be
// modified until the result has been received.
func (e *Engine) LoadFromBytesAsync(ctx context.Context, data []byte, opts LoadOptions) <-chan Result {
	return e.submit(ctx, func() (*heif.PixelImage, error) {
		return e.LoadFromBytes(data, opts)
	})
}

// submit queues load on the job system. ctx is only honoured until the job
// starts: a decode in flight always runs to completion.
func (e *Engine) submit(ctx context.Context, load func() (*heif.PixelImage, error)) <-chan Result {
	out := make(chan Result, 1)

	if e.Stage() != EngineStageInitialized {
		out <- Result{Err: core.ErrEngineNotInitialized}
		return out
	}

	err := e.jobSystem.Submit(metadata.JobTask{
		JobType: metadata.JOB_TYPE_RESOURCE_LOAD,
		OnStart: func(interface{}) (interface{}, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return load()
		},
		OnComplete: func(result interface{}) {
			out <- Result{Image: result.(*heif.PixelImage)}
		},
		OnFailure: func(err error) {
			out <- Result{Err: err}
		},
	})
	if err != nil {
		out <- Result{Err: err}
	}
	return out
}

// LoadTexture decodes path and builds a texture named after it, consuming
// the MipChain and Linear hints.
func (e *Engine) LoadTexture(path string, opts LoadOptions) (*metadata.Texture, error) {
	if e.Stage() != EngineStageInitialized {
		return nil, core.ErrEngineNotInitialized
	}
	clock := core.NewClock()
	clock.Start()
	res, err := e.imageLoader.Load(path, metadata.ResourceTypeImage, e.resourceParams(opts))
	clock.Update()
	core.MetricsRecordDecode(clock.Elapsed(), resourceSize(res), err)
	if err != nil {
		return nil, err
	}
	return e.createTexture(res, opts)
}

// LoadAsset resolves name through the asset manager and builds a texture.
func (e *Engine) LoadAsset(name string, opts LoadOptions) (*metadata.Texture, error) {
	if e.Stage() != EngineStageInitialized {
		return nil, core.ErrEngineNotInitialized
	}
	clock := core.NewClock()
	clock.Start()
	res, err := e.assetManager.LoadAsset(name, metadata.ResourceTypeImage, e.resourceParams(opts))
	clock.Update()
	core.MetricsRecordDecode(clock.Elapsed(), resourceSize(res), err)
	if err != nil {
		return nil, err
	}
	return e.createTexture(res, opts)
}

// LoadTextureFromBytes decodes an in-memory bitstream through the registered
// image loader and builds a texture named name. An empty name gets a
// generated one.
func (e *Engine) LoadTextureFromBytes(name string, data []byte, opts LoadOptions) (*metadata.Texture, error) {
	if e.Stage() != EngineStageInitialized {
		return nil, core.ErrEngineNotInitialized
	}
	clock := core.NewClock()
	clock.Start()
	res, err := e.assetManager.LoadBytes(name, metadata.ResourceTypeImage, data, e.resourceParams(opts))
	clock.Update()
	core.MetricsRecordDecode(clock.Elapsed(), resourceSize(res), err)
	if err != nil {
		return nil, err
	}
	return e.createTexture(res, opts)
}

func (e *Engine) resourceParams(opts LoadOptions) *metadata.ImageResourceParams {
	return &metadata.ImageResourceParams{
		FlipY:       opts.FlipY,
		AsNormalMap: opts.AsNormalMap,
		MipChain:    opts.MipChain,
		Linear:      opts.Linear,
	}
}

func resourceSize(res *metadata.Resource) int {
	if res == nil {
		return 0
	}
	return int(res.DataSize)
}

func (e *Engine) createTexture(res *metadata.Resource, opts LoadOptions) (*metadata.Texture, error) {
	data, ok := res.Data.(*metadata.ImageResourceData)
	if !ok {
		return nil, fmt.Errorf("failed to type cast resource data to `*metadata.ImageResourceData`")
	}
	return e.textureSystem.Create(res.Name, data, systems.TextureOptions{
		MipChain:  opts.MipChain,
		Linear:    opts.Linear,
		NormalMap: opts.AsNormalMap,
	})
}
