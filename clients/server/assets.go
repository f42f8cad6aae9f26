// assets.go - Uploaded images held for the lifetime of the server.
package server

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type asset struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Mime string `json:"mime"`
	Size int    `json:"size"`
	path string
}

// assetManager keeps uploaded images on disk under dir so the compositing
// engine can load them by path.
type assetManager struct {
	dir    string
	mu     sync.RWMutex
	assets map[string]*asset
}

func newAssetManager(dir string) *assetManager {
	return &assetManager{dir: dir, assets: make(map[string]*asset)}
}

func (am *assetManager) add(name string, data []byte, mimeType string) (*asset, error) {
	id := uuid.NewString()
	a := &asset{
		ID:   id,
		Name: name,
		Mime: mimeType,
		Size: len(data),
		path: filepath.Join(am.dir, id+"_"+sanitizeFilename(name)),
	}
	if err := os.WriteFile(a.path, data, 0644); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	am.mu.Lock()
	am.assets[id] = a
	am.mu.Unlock()
	return a, nil
}

func (am *assetManager) get(id string) (*asset, bool) {
	am.mu.RLock()
	a, ok := am.assets[id]
	am.mu.RUnlock()
	return a, ok
}

func (am *assetManager) list() []*asset {
	am.mu.RLock()
	defer am.mu.RUnlock()
	out := make([]*asset, 0, len(am.assets))
	for _, a := range am.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (am *assetManager) remove(id string) bool {
	am.mu.Lock()
	a, ok := am.assets[id]
	delete(am.assets, id)
	am.mu.Unlock()
	if ok {
		os.Remove(a.path)
	}
	return ok
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	return strings.NewReplacer("/", "_", `\`, "_", " ", "_").Replace(name)
}
