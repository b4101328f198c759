// Package manifest builds sha256 inventories of gate inputs and artifacts.
// A manifest records what was validated and what the gate produced; paired
// with a detached signature it becomes portable conformance evidence.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"example.com/edidgate/internal/common"
)

// Item is one manifested file.
type Item struct {
	Path   string `json:"path"`
	Kind   string `json:"kind"`
	Size   int64  `json:"size"`
	Sha256 string `json:"sha256"`
}

// Signature records how a manifest was signed. The JWS itself travels as a
// detached sidecar file.
type Signature struct {
	Algorithm string    `json:"algorithm"`
	Signer    string    `json:"signer,omitempty"`
	SignedAt  time.Time `json:"signedAt"`
}

// Manifest inventories a set of files with their digests.
type Manifest struct {
	CreatedAt time.Time  `json:"createdAt"`
	ShaAlgo   string     `json:"shaAlgo"`
	Items     []Item     `json:"items"`
	Signature *Signature `json:"signature,omitempty"`
}

// KindForPath classifies a manifested file by extension.
func KindForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bin", ".edid":
		return "edid"
	case ".hex":
		return "hex"
	case ".json":
		return "report"
	case ".ndjson":
		return "findings"
	case ".pdf":
		return "pdf"
	case ".png":
		return "image"
	}
	return "other"
}

// Build hashes every path into a manifest. Items keep the caller's order and
// store paths with forward slashes.
func Build(paths []string) (Manifest, error) {
	m := Manifest{CreatedAt: time.Now().UTC(), ShaAlgo: "sha256"}
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			return Manifest{}, errors.New("empty manifest path")
		}
		hash, size, err := common.Sha256OfFile(p)
		if err != nil {
			return Manifest{}, fmt.Errorf("hash %s: %w", p, err)
		}
		m.Items = append(m.Items, Item{
			Path:   filepath.ToSlash(p),
			Kind:   KindForPath(p),
			Size:   size,
			Sha256: hash,
		})
	}
	return m, nil
}

// BuildDir manifests every regular file under root, sorted by path.
func BuildDir(root string) (Manifest, error) {
	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return Manifest{}, err
	}
	sort.Strings(paths)
	return Build(paths)
}

// Digest is a stable digest over the item hashes and paths, independent of
// timestamps and signature metadata.
func (m Manifest) Digest() string {
	h := common.NewHasher()
	for _, it := range m.Items {
		fmt.Fprintf(h, "%s  %s\n", it.Sha256, it.Path)
	}
	return h.Sum()
}

// Save writes the manifest as indented JSON.
func Save(m Manifest, out string) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

// Load reads back a manifest written by Save.
func Load(path string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}

// Verify rehashes every item, resolving relative paths against baseDir, and
// reports the first mismatch.
func Verify(m Manifest, baseDir string) error {
	if !strings.EqualFold(m.ShaAlgo, "sha256") {
		return fmt.Errorf("unsupported digest algorithm %q", m.ShaAlgo)
	}
	if len(m.Items) == 0 {
		return errors.New("manifest has no items")
	}
	for _, it := range m.Items {
		p := filepath.FromSlash(it.Path)
		if !filepath.IsAbs(p) && baseDir != "" {
			p = filepath.Join(baseDir, p)
		}
		hash, size, err := common.Sha256OfFile(p)
		if err != nil {
			return fmt.Errorf("manifest item %s: %w", it.Path, err)
		}
		if hash != it.Sha256 {
			return fmt.Errorf("digest mismatch for %s", it.Path)
		}
		if size != it.Size {
			return fmt.Errorf("size mismatch for %s", it.Path)
		}
	}
	return nil
}
