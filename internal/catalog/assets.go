package catalog

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// AssetRoots are the directories searched for images, sounds and reference data
type AssetRoots struct {
	dirs []string
}

// NewAssetRoots keeps the candidates that are existing directories, in order and without duplicates
func NewAssetRoots(candidates ...string) AssetRoots {
	dirs := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		candidate = filepath.Clean(candidate)
		info, err := os.Stat(candidate)
		if err != nil || !info.IsDir() {
			continue
		}
		if slices.Contains(dirs, candidate) {
			continue
		}
		dirs = append(dirs, candidate)
	}
	return AssetRoots{dirs: dirs}
}

// DetectAssetRoots searches the override, then the working directory and the executable directory
func DetectAssetRoots(override string) AssetRoots {
	candidates := []string{override}
	for _, base := range searchBases() {
		candidates = append(candidates, filepath.Join(base, "assets"))
		candidates = append(candidates, filepath.Join(base, "..", "assets"))
		candidates = append(candidates, filepath.Join(base, "_internal", "assets"))
	}
	return NewAssetRoots(candidates...)
}

func (r AssetRoots) Dirs() []string {
	return slices.Clone(r.dirs)
}

func (r AssetRoots) Len() int {
	return len(r.dirs)
}

// Resolve finds an asset by its configured name. Names are relative to a root
// or to one of its Images, Crosshair or Sounds directories.
func (r AssetRoots) Resolve(filename string) (string, bool) {
	clean := strings.TrimLeft(strings.TrimSpace(filename), `/\`)
	if clean == "" {
		return "", false
	}
	rel := filepath.FromSlash(strings.ReplaceAll(clean, `\`, "/"))
	for _, root := range r.dirs {
		for _, candidate := range []string{
			filepath.Join(root, rel),
			filepath.Join(root, "Images", rel),
			filepath.Join(root, "Crosshair", rel),
			filepath.Join(root, "Sounds", rel),
		} {
			if isFile(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

// Locate finds a file placed directly in one of the roots
func (r AssetRoots) Locate(name string) (string, bool) {
	for _, root := range r.dirs {
		candidate := filepath.Join(root, name)
		if isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// ImageSize reads the pixel dimensions of an image asset
func (r AssetRoots) ImageSize(filename string) (float64, float64, bool) {
	path, ok := r.Resolve(filename)
	if !ok {
		return 0, 0, false
	}
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, false
	}
	defer file.Close()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, false
	}
	return float64(config.Width), float64(config.Height), true
}

// LocateConfigFile finds the overlay config.json, preferring the override
func LocateConfigFile(override string) (string, bool) {
	if override != "" {
		return override, isFile(override)
	}
	for _, base := range searchBases() {
		for _, candidate := range []string{
			filepath.Join(base, "config.json"),
			filepath.Join(base, "..", "config.json"),
			filepath.Join(base, "_internal", "config.json"),
		} {
			if isFile(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

func searchBases() []string {
	bases := []string{}
	if cwd, err := os.Getwd(); err == nil {
		bases = append(bases, cwd)
	}
	if exe, err := os.Executable(); err == nil {
		bases = append(bases, filepath.Dir(exe))
	}
	return bases
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
