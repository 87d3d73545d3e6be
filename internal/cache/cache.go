// Package cache keeps synthesized PCM so re-reading a sentence, or restarting
// a session after a parameter change, does not pay for synthesis twice.
// Clips live in a memory LRU backed by a zstd-compressed directory.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"
)

// ErrItemTooLarge is returned when an item exceeds the cache capacity.
var ErrItemTooLarge = errors.New("item too large for cache")

// Config holds cache limits.
type Config struct {
	MemoryCapacity   int64  // Bytes kept in memory
	DiskCapacity     int64  // Bytes kept on disk, 0 disables the disk tier
	Dir              string // Directory for cache files
	CompressionLevel int    // zstd level (1-22), 0 stores raw PCM
}

// DefaultConfig returns a 32MB memory tier and a 256MB disk tier in dir.
func DefaultConfig(dir string) Config {
	return Config{
		MemoryCapacity:   32 << 20,
		DiskCapacity:     256 << 20,
		Dir:              dir,
		CompressionLevel: 3,
	}
}

// Stats holds hit counters for both tiers.
type Stats struct {
	MemoryHits int64
	DiskHits   int64
	Misses     int64
	Evictions  int64
	Size       int64 // Bytes held in memory
	DiskSize   int64 // Bytes held on disk
}

// Cache is a memory LRU in front of an optional disk store.
type Cache struct {
	memory *Memory
	disk   *Disk
}

// New creates a cache. The disk tier is skipped when Dir is empty or
// DiskCapacity is zero.
func New(config Config) (*Cache, error) {
	c := &Cache{memory: NewMemory(config.MemoryCapacity)}
	if config.Dir == "" || config.DiskCapacity <= 0 {
		return c, nil
	}

	disk, err := NewDisk(config.Dir, config.DiskCapacity, config.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("open disk cache: %w", err)
	}
	c.disk = disk
	return c, nil
}

// Get looks a clip up in memory, then on disk. Disk hits are promoted.
func (c *Cache) Get(key string) ([]byte, bool) {
	if data, ok := c.memory.Get(key); ok {
		return data, true
	}
	if c.disk == nil {
		return nil, false
	}
	data, ok := c.disk.Get(key)
	if !ok {
		return nil, false
	}
	_ = c.memory.Put(key, data)
	return data, true
}

// Put stores a clip in both tiers. A clip too large for memory still goes to
// disk.
func (c *Cache) Put(key string, data []byte) error {
	merr := c.memory.Put(key, data)
	if c.disk == nil {
		return merr
	}
	if err := c.disk.Put(key, data); err != nil {
		log.Debug("disk cache write failed", "key", key, "err", err)
		return err
	}
	return nil
}

// Stats returns combined counters.
func (c *Cache) Stats() Stats {
	s := c.memory.Stats()
	if c.disk != nil {
		d := c.disk.Stats()
		s.DiskHits = d.DiskHits
		s.Misses = d.Misses
		s.Evictions += d.Evictions
		s.DiskSize = d.DiskSize
	}
	return s
}

// Clear empties both tiers.
func (c *Cache) Clear() error {
	c.memory.Clear()
	if c.disk != nil {
		return c.disk.Clear()
	}
	return nil
}

// Close persists the disk index.
func (c *Cache) Close() error {
	if c.disk != nil {
		return c.disk.Close()
	}
	return nil
}

// Key identifies a clip by everything that changes the synthesized audio.
func Key(engine, voice string, rate, pitch float64, text string) string {
	h := sha256.New()
	for _, part := range []string{
		engine,
		voice,
		strconv.FormatFloat(rate, 'f', 2, 64),
		strconv.FormatFloat(pitch, 'f', 2, 64),
		text,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
