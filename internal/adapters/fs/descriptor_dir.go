package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bft-labs/scenevisor/internal/domain"
)

const (
	descriptorExt = ".json"
	contentsDir   = "contents"
)

// DescriptorDir implements ports.DescriptorFetcher and ports.Preloader over
// a directory holding one <sceneId>.json per scene and the mapped content
// files under contents/<hash>.
type DescriptorDir struct {
	dir string
}

// NewDescriptorDir creates a DescriptorDir rooted at dir.
func NewDescriptorDir(dir string) *DescriptorDir {
	return &DescriptorDir{dir: dir}
}

// Dir returns the root directory.
func (d *DescriptorDir) Dir() string {
	return d.dir
}

// Path returns the descriptor file path of sceneID.
func (d *DescriptorDir) Path(sceneID string) string {
	return filepath.Join(d.dir, sceneID+descriptorExt)
}

// SceneIDFromPath returns the scene id a descriptor file path belongs to.
// ok is false for files that are not descriptors.
func SceneIDFromPath(path string) (sceneID string, ok bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, descriptorExt) || strings.HasSuffix(base, ".tmp"+descriptorExt) {
		return "", false
	}
	sceneID = strings.TrimSuffix(base, descriptorExt)
	return sceneID, sceneID != ""
}

// Fetch reads the descriptor of sceneID from disk.
func (d *DescriptorDir) Fetch(ctx context.Context, sceneID string) (domain.Descriptor, error) {
	if !validID(sceneID) {
		return domain.Descriptor{}, fmt.Errorf("%w: %q", domain.ErrSceneNotFound, sceneID)
	}

	data, err := os.ReadFile(d.Path(sceneID))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Descriptor{}, fmt.Errorf("%w: %s", domain.ErrSceneNotFound, sceneID)
		}
		return domain.Descriptor{}, err
	}

	var desc domain.Descriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return domain.Descriptor{}, fmt.Errorf("parse %s: %w", d.Path(sceneID), err)
	}
	desc.SceneID = sceneID
	return desc, nil
}

// Save writes desc atomically.
// Uses atomic write (write to temp file, then rename) to prevent torn reads.
func (d *DescriptorDir) Save(ctx context.Context, desc domain.Descriptor) error {
	if !validID(desc.SceneID) {
		return fmt.Errorf("invalid scene id %q", desc.SceneID)
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return err
	}

	path := d.Path(desc.SceneID)
	tmp := filepath.Join(d.dir, desc.SceneID+".tmp"+descriptorExt)

	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Preload checks that every mapped content file of desc is present.
func (d *DescriptorDir) Preload(ctx context.Context, desc domain.Descriptor) error {
	for _, m := range desc.Mappings {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !validID(m.Hash) {
			return fmt.Errorf("preload %s: invalid hash %q", m.File, m.Hash)
		}
		if _, err := os.Stat(filepath.Join(d.dir, contentsDir, m.Hash)); err != nil {
			return fmt.Errorf("preload %s: %w", m.File, err)
		}
	}
	return nil
}

// validID rejects ids that would escape the directory.
func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}
