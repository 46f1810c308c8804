// Package storage maps stable resource identifiers to lazily read binary
// payloads. Opening a store only scans directory trees and registers
// descriptors; the payload bytes are read on first access and memoized for
// the life of the process.
package storage

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/OneOfOne/xxhash"
	"github.com/pkg/errors"

	"github.com/m1nuz/vulkan-renderer/internal/journal"
)

// resourceSeed is the well-known seed all resource identifiers are derived
// with. Changing it invalidates every persisted or hard-computed id.
const resourceSeed = 123

// ResourceID derives the stable identifier for a named resource. Identifiers
// are namespaced by kind, so a shader and an image sharing a filename get
// distinct ids. Hash collisions are not detected.
func ResourceID(kind ResourceKind, name string) uint64 {
	return xxhash.Checksum64S([]byte(kind.String()+":"+name), resourceSeed)
}

// Storage is the process-wide resource store. It is built for single-threaded
// use; the lazy cache mutation in the getters is not locked.
type Storage struct {
	Assets []*Asset

	// readFile is swappable so tests can count or fail reads.
	readFile func(string) ([]byte, error)
	reads    int
}

func New() *Storage {
	return &Storage{readFile: os.ReadFile}
}

// Reads reports how many payload reads hit the filesystem.
func (s *Storage) Reads() int {
	return s.reads
}

// Open scans each root recursively and registers a lazy descriptor per
// recognized file. A missing root is logged and skipped. Open fails only
// when no resources at all were found.
func (s *Storage) Open(roots ...string) error {
	anyRead := false

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			journal.Warning(journal.Storage, "%s doesn't exist", root)
			continue
		}
		if info.IsDir() {
			entries, err := os.ReadDir(root)
			if err != nil {
				journal.Warning(journal.Storage, "couldn't list %s: %v", root, err)
				continue
			}
			for _, e := range entries {
				if filepath.Ext(e.Name()) == ".asset" {
					anyRead = anyRead || s.readManifest(filepath.Join(root, e.Name()))
				}
			}
		}
	}

	// Loose files not claimed by a manifest.
	files := make(map[string]string)
	for _, root := range roots {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			name := d.Name()
			if s.isRegistered(name) {
				return nil
			}
			files[name] = path
			return nil
		})
	}

	if len(files) > 0 {
		asset := &Asset{Name: "General", Version: "1.0"}
		for name, path := range files {
			if isShaderFile(name) {
				id := ResourceID(KindShader, name)
				journal.Debug(journal.Storage, "%d - '%s'", id, name)
				asset.Resources = append(asset.Resources, &ResourceDesc{
					ID:   id,
					Name: name,
					Path: path,
					kind: KindShader,
				})
			}
		}
		if len(asset.Resources) > 0 {
			s.Assets = append(s.Assets, asset)
		}
	}

	if !anyRead && len(s.Assets) == 0 {
		return errors.New("storage: no assets found")
	}
	return nil
}

// Close releases the store. Payloads live for the process, so there is
// nothing to tear down yet.
func (s *Storage) Close() error {
	return nil
}

// readManifest will load a packaged .asset description. Archives are not
// produced by the toolchain yet, so the hook only marks the manifest seen.
func (s *Storage) readManifest(string) bool {
	return true
}

func (s *Storage) isRegistered(name string) bool {
	for _, a := range s.Assets {
		for _, r := range a.Resources {
			if r.Name == name {
				return true
			}
		}
	}
	return false
}

func isShaderFile(name string) bool {
	return filepath.Ext(name) == ".spv"
}

func (s *Storage) lookup(id uint64) *ResourceDesc {
	for _, a := range s.Assets {
		for _, r := range a.Resources {
			if r.ID == id {
				return r
			}
		}
	}
	return nil
}

// GetShader returns the shader payload registered under id, reading and
// decoding the file on first access. A second call returns the cached
// payload without touching the filesystem.
func (s *Storage) GetShader(id uint64) (*ShaderProgramInfo, bool) {
	r := s.lookup(id)
	if r == nil {
		journal.Debug(journal.Storage, "unknown resource %d", id)
		return nil, false
	}
	if !r.InMemory {
		data, err := s.readFile(r.Path)
		if err != nil {
			journal.Warning(journal.Storage, "couldn't read %s: %v", r.Path, err)
			return nil, false
		}
		s.reads++
		r.shader = loadShader(r.Name, data)
		r.kind = KindShader
		r.InMemory = true
	}
	if r.kind != KindShader || r.shader == nil {
		return nil, false
	}
	return r.shader, true
}

// GetImage mirrors GetShader for image payloads. No image decoder is wired
// up yet, so lookups miss until one is.
func (s *Storage) GetImage(id uint64) (*ImageInfo, bool) {
	r := s.lookup(id)
	if r == nil {
		journal.Debug(journal.Storage, "unknown resource %d", id)
		return nil, false
	}
	if !r.InMemory {
		if img := loadImage(r.Path); img != nil {
			s.reads++
			r.image = img
			r.kind = KindImage
			r.InMemory = true
		}
	}
	if r.kind != KindImage || r.image == nil {
		return nil, false
	}
	return r.image, true
}

// GetModel mirrors GetShader for model payloads.
func (s *Storage) GetModel(id uint64) (*ModelInfo, bool) {
	r := s.lookup(id)
	if r == nil {
		journal.Debug(journal.Storage, "unknown resource %d", id)
		return nil, false
	}
	if !r.InMemory {
		if m := loadModel(r.Path); m != nil {
			s.reads++
			r.model = m
			r.kind = KindModel
			r.InMemory = true
		}
	}
	if r.kind != KindModel || r.model == nil {
		return nil, false
	}
	return r.model, true
}
