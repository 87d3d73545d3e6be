package cache

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const indexName = "cache.index"

// Disk stores clips as files in a directory, compressed with zstd, and
// evicts the least recently used file when over capacity.
type Disk struct {
	dir      string
	capacity int64
	size     int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	// Index for fast lookups
	index map[string]*diskEntry

	mu    sync.Mutex
	stats Stats
}

// diskEntry is persisted in the gob index.
type diskEntry struct {
	File       string
	Size       int64 // Size on disk
	Compressed bool
	LastAccess time.Time
}

// NewDisk opens or creates a disk cache in dir. A level of 0 disables
// compression.
func NewDisk(dir string, capacity int64, level int) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	d := &Disk{
		dir:      dir,
		capacity: capacity,
		index:    make(map[string]*diskEntry),
	}

	if level > 0 {
		var err error
		d.encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
	}
	// Entries written at another level are still readable.
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	d.decoder = dec

	if err := d.loadIndex(); err != nil {
		// Non-fatal: start with an empty index
		d.index = make(map[string]*diskEntry)
	}
	for _, e := range d.index {
		d.size += e.Size
	}
	return d, nil
}

// Get reads and decompresses a clip.
func (d *Disk) Get(key string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.index[key]
	if !ok {
		d.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(filepath.Join(d.dir, entry.File))
	if err == nil && entry.Compressed {
		data, err = d.decoder.DecodeAll(data, nil)
	}
	if err != nil {
		d.removeLocked(key)
		d.stats.Misses++
		return nil, false
	}

	entry.LastAccess = time.Now()
	d.stats.DiskHits++
	return data, true
}

// Put compresses and writes a clip.
func (d *Disk) Put(key string, value []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	data := value
	compressed := false
	if d.encoder != nil {
		if enc := d.encoder.EncodeAll(value, nil); len(enc) < len(value) {
			data, compressed = enc, true
		}
	}

	n := int64(len(data))
	if n > d.capacity {
		return ErrItemTooLarge
	}
	if _, ok := d.index[key]; ok {
		d.removeLocked(key)
	}
	for d.size+n > d.capacity && len(d.index) > 0 {
		d.evictOldestLocked()
	}

	file := key + ".pcm"
	if compressed {
		file += ".zst"
	}
	if err := writeFileAtomic(filepath.Join(d.dir, file), data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	d.index[key] = &diskEntry{File: file, Size: n, Compressed: compressed, LastAccess: time.Now()}
	d.size += n
	return nil
}

// Clear removes every file and the index.
func (d *Disk) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key := range d.index {
		d.removeLocked(key)
	}
	return d.saveIndex()
}

// Stats returns hit counters and the bytes on disk.
func (d *Disk) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.stats
	s.DiskSize = d.size
	return s
}

// Close saves the index.
func (d *Disk) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.saveIndex()
}

func (d *Disk) removeLocked(key string) {
	entry, ok := d.index[key]
	if !ok {
		return
	}
	os.Remove(filepath.Join(d.dir, entry.File))
	d.size -= entry.Size
	delete(d.index, key)
}

func (d *Disk) evictOldestLocked() {
	var oldest string
	var when time.Time
	for key, e := range d.index {
		if oldest == "" || e.LastAccess.Before(when) {
			oldest, when = key, e.LastAccess
		}
	}
	if oldest != "" {
		d.removeLocked(oldest)
		d.stats.Evictions++
	}
}

func (d *Disk) loadIndex() error {
	f, err := os.Open(filepath.Join(d.dir, indexName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	return gob.NewDecoder(f).Decode(&d.index)
}

func (d *Disk) saveIndex() error {
	path := filepath.Join(d.dir, indexName)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	err = gob.NewEncoder(f).Encode(d.index)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// writeFileAtomic writes to a temp file, then renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
