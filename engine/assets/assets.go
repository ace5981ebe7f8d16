package assets

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/heifloader/engine/core"
	"github.com/spaghettifunk/heifloader/engine/renderer/metadata"
)

type AssetInfo struct {
	// Path relative to the assets directory, using forward slashes.
	Name       string
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	wg       sync.WaitGroup
	fsnotify *fsnotify.Watcher
	isClosed bool
	reloads  chan string
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[metadata.ResourceType]Loader),
		fsnotify: fsWatch,
		reloads:  make(chan string, 64),
		done:     make(chan struct{}),
	}, nil
}

// Initialize indexes every known asset under assetsDir. With watch set,
// changes below assetsDir keep the index current and are reported on Reloads.
func (am *AssetManager) Initialize(assetsDir string, watch bool) error {
	root, err := filepath.Abs(assetsDir)
	if err != nil {
		return err
	}
	am.root = root

	if err := am.watchRecursive(root, watch); err != nil {
		return err
	}

	if watch {
		am.wg.Add(1)
		go am.start()
	}

	core.LogInfo("indexed %d assets under %s", am.Count(), root)
	return nil
}

// RegisterLoader registers the loader used for a resource type.
func (am *AssetManager) RegisterLoader(assetType metadata.ResourceType, loader Loader) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.loaders[assetType] = loader
}

func (am *AssetManager) Loader(assetType metadata.ResourceType) (Loader, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	l, ok := am.loaders[assetType]
	return l, ok
}

// Lookup resolves name against the index. name is either the path relative to
// the assets directory or a file name with or without its extension.
func (am *AssetManager) Lookup(name string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	if asset, ok := am.assets[filepath.ToSlash(name)]; ok {
		return asset, true
	}

	keys := make([]string, 0, len(am.assets))
	for k := range am.assets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		base := filepath.Base(k)
		if base == name || strings.TrimSuffix(base, filepath.Ext(base)) == name {
			return am.assets[k], true
		}
	}
	return AssetInfo{}, false
}

// Assets returns the indexed assets of the given type, sorted by name.
func (am *AssetManager) Assets(assetType metadata.ResourceType) []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	out := make([]AssetInfo, 0, len(am.assets))
	for _, a := range am.assets {
		if a.Type == assetType {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (am *AssetManager) Count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// Load an asset using the appropriate loader
func (am *AssetManager) LoadAsset(name string, resourceType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	asset, exists := am.Lookup(name)
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrAssetNotFound, name)
	}
	if asset.Type != resourceType {
		return nil, fmt.Errorf("asset %s is of type %s, requested %s", name, asset.Type, resourceType)
	}

	loader, loaderExists := am.Loader(asset.Type)
	if !loaderExists {
		return nil, fmt.Errorf("%w: %s", core.ErrLoaderNotRegistered, asset.Type)
	}

	res, err := loader.Load(asset.Path, resourceType, params)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	asset.LastLoaded = time.Now()
	am.assets[asset.Name] = asset // Update the loaded time
	am.mutex.Unlock()

	return res, nil
}

// LoadBytes decodes data with the loader registered for resourceType. The
// loader must implement BytesLoader. name only labels the resource and is
// not indexed.
func (am *AssetManager) LoadBytes(name string, resourceType metadata.ResourceType, data []byte, params interface{}) (*metadata.Resource, error) {
	loader, ok := am.Loader(resourceType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrLoaderNotRegistered, resourceType)
	}
	bl, ok := loader.(BytesLoader)
	if !ok {
		return nil, fmt.Errorf("loader for %s cannot load from memory", resourceType)
	}
	return bl.LoadBytes(name, data, params)
}

func (am *AssetManager) UnloadAsset(asset *metadata.Resource) error {
	if asset == nil {
		return nil
	}
	loader, ok := am.Loader(asset.Type)
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrLoaderNotRegistered, asset.Type)
	}
	return loader.Unload(asset)
}

// Reloads delivers the index name of every image asset created or modified
// while watching. Events are dropped if nobody drains the channel.
func (am *AssetManager) Reloads() <-chan string {
	return am.reloads
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	am.wg.Wait()
	close(am.reloads)
	return am.fsnotify.Close()
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {

		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name, true); err != nil {
						core.LogWarn("failed to watch %s: %s", e.Name, err)
					}
				}
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if name, ok := am.handleFileEvent(e.Name); ok {
					am.notify(name)
				}
			}
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
				// the path may not be watched (plain file), ignore the error
				_ = am.fsnotify.Remove(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("%s", err)

		case <-am.done:
			return
		}
	}
}

func (am *AssetManager) notify(name string) {
	select {
	case am.reloads <- name:
	default:
		core.LogWarn("reload queue full, dropping event for %s", name)
	}
}

// watchRecursive indexes every file under path and, when watch is set, adds
// a watch on every directory.
// this is probably a very racey process. What if a file is added to a folder before we get the watch added?
func (am *AssetManager) watchRecursive(path string, watch bool) error {
	return filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !watch {
				return nil
			}
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

func (am *AssetManager) indexName(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(am.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) (string, bool) {
	assetType := DetermineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return "", false
	}
	name, ok := am.indexName(path)
	if !ok {
		return "", false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[name] = AssetInfo{
		Name: name,
		Path: path,
		Type: assetType,
	}
	return name, true
}

// Remove the asset from the index if it was deleted. A removed directory
// can't be stat'ed anymore, so everything below path goes too.
func (am *AssetManager) removeAsset(path string) {
	name, ok := am.indexName(path)
	if !ok {
		return
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, name)
	for k := range am.assets {
		if strings.HasPrefix(k, name+"/") {
			delete(am.assets, k)
		}
	}
}

func DetermineAssetType(path string) metadata.ResourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".heic", ".heif", ".hif", ".avci":
		return metadata.ResourceTypeImage
	default:
		return metadata.ResourceTypeNone
	}
}
