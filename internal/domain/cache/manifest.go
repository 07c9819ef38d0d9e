// Package cache holds the plugin cache's on-disk data shapes.
package cache

// UrlCacheEntry associates a plugin source URL with the file name its
// compiled artifact is stored under in the cache directory.
type UrlCacheEntry struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

// Manifest is the ordered, JSON-persisted record of every plugin the cache
// has ever resolved. It is the source of truth: a file in the cache
// directory that no entry references is ignored, never read.
type Manifest struct {
	URLs []UrlCacheEntry `json:"urls"`
}

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{URLs: []UrlCacheEntry{}}
}

// Find returns the entry for url, if any.
func (m *Manifest) Find(url string) (UrlCacheEntry, bool) {
	for _, e := range m.URLs {
		if e.URL == url {
			return e, true
		}
	}
	return UrlCacheEntry{}, false
}

// HasFileName reports whether fileName is already used by some entry.
func (m *Manifest) HasFileName(fileName string) bool {
	for _, e := range m.URLs {
		if e.FileName == fileName {
			return true
		}
	}
	return false
}

// Push appends a new entry.
func (m *Manifest) Push(entry UrlCacheEntry) {
	m.URLs = append(m.URLs, entry)
}

// Remove deletes the entry for url, if present, and reports whether it was
// removed along with the removed entry.
func (m *Manifest) Remove(url string) (UrlCacheEntry, bool) {
	for i, e := range m.URLs {
		if e.URL == url {
			m.URLs = append(m.URLs[:i], m.URLs[i+1:]...)
			return e, true
		}
	}
	return UrlCacheEntry{}, false
}
