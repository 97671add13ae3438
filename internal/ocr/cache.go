package ocr

import (
	"bytes"
	"context"
	"crypto/md5"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/corona10/goimagehash"
)

type frame struct {
	sum  [md5.Size]byte
	hash *goimagehash.ImageHash
	text string
}

// Cache reuses recognized text for regions whose image has not changed.
// Frames are tracked per key, typically a channel id.
type Cache struct {
	next        Recognizer
	maxDistance int

	mu     sync.Mutex
	frames map[int]*frame

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCache wraps next. Frames within maxDistance bits of the previous frame
// for the same key reuse its text; a negative maxDistance only reuses exact
// byte-identical frames.
func NewCache(next Recognizer, maxDistance int) *Cache {
	return &Cache{next: next, maxDistance: maxDistance, frames: make(map[int]*frame)}
}

// For returns a Recognizer bound to key.
func (c *Cache) For(key int) Recognizer {
	return RecognizerFunc(func(ctx context.Context, img []byte, langs []string) (string, error) {
		return c.recognize(ctx, key, img, langs)
	})
}

// Forget drops the frame remembered for key.
func (c *Cache) Forget(key int) {
	c.mu.Lock()
	delete(c.frames, key)
	c.mu.Unlock()
}

// Stats reports cache hits and misses.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *Cache) recognize(ctx context.Context, key int, img []byte, langs []string) (string, error) {
	sum := md5.Sum(img)
	hash := c.hash(img)

	c.mu.Lock()
	prev := c.frames[key]
	c.mu.Unlock()

	if prev != nil && c.similar(prev, sum, hash) {
		c.hits.Add(1)
		return prev.text, nil
	}
	c.misses.Add(1)

	text, err := c.next.Recognize(ctx, img, langs)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.frames[key] = &frame{sum: sum, hash: hash, text: text}
	c.mu.Unlock()
	return text, nil
}

func (c *Cache) similar(prev *frame, sum [md5.Size]byte, hash *goimagehash.ImageHash) bool {
	if prev.sum == sum {
		return true
	}
	if c.maxDistance < 0 || prev.hash == nil || hash == nil {
		return false
	}
	dist, err := prev.hash.Distance(hash)
	if err != nil {
		return false
	}
	if dist <= c.maxDistance {
		slog.Debug("reusing OCR text for similar frame", "distance", dist)
		return true
	}
	return false
}

func (c *Cache) hash(img []byte) *goimagehash.ImageHash {
	if c.maxDistance < 0 {
		return nil
	}
	decoded, _, err := image.Decode(bytes.NewReader(img))
	if err != nil {
		return nil
	}
	h, err := goimagehash.PerceptionHash(decoded)
	if err != nil {
		return nil
	}
	return h
}
