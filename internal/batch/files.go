package batch

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxImageBytes bounds a single image read from disk.
const MaxImageBytes = 20 << 20

// LoadDir reads every image file directly inside dir, in name order.
// Non-image files and subdirectories are ignored.
func LoadDir(dir string) ([]Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return LoadFiles(paths)
}

// LoadFiles reads the given paths, keeping only images.
func LoadFiles(paths []string) ([]Item, error) {
	items := make([]Item, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.Size() > MaxImageBytes {
			return nil, fmt.Errorf("%s: %d bytes exceeds limit of %d", p, info.Size(), MaxImageBytes)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		mt := DetectMimeType(p, data)
		if !strings.HasPrefix(mt, "image/") {
			continue
		}
		items = append(items, Item{Filename: filepath.Base(p), Data: data, MimeType: mt})
	}
	return items, nil
}

// DetectMimeType uses the file extension, falling back to content sniffing.
func DetectMimeType(name string, data []byte) string {
	if mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); mt != "" {
		if i := strings.IndexByte(mt, ';'); i >= 0 {
			mt = mt[:i]
		}
		return mt
	}
	return http.DetectContentType(data)
}
