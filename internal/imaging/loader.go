package imaging

import (
	"container/list"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheCapacity is the number of decoded captures an ImageCache keeps
// when no capacity is given.
const DefaultCacheCapacity = 32

// ImageCache keeps recently decoded captures keyed by file path, so repeated
// detect and extract calls on the same capture skip disk I/O and decoding.
//
// The cache holds at most its capacity; the least recently used capture is
// dropped first. Concurrent loads of the same path decode the file once.
// Cached images and buffers are shared between callers and must not be
// modified.
type ImageCache struct {
	capacity int
	loads    singleflight.Group

	mu      sync.Mutex
	order   *list.List // of *capture, most recently used first
	entries map[string]*list.Element
}

// capture is one decoded file.
type capture struct {
	path   string
	img    image.Image
	format string
	size   int64

	// buf is the RGBA conversion, filled on first use.
	buf PixelBuffer
}

// NewImageCache returns an empty cache holding up to capacity captures. A
// capacity below 1 uses DefaultCacheCapacity.
func NewImageCache(capacity int) *ImageCache {
	if capacity < 1 {
		capacity = DefaultCacheCapacity
	}
	return &ImageCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Load returns the decoded image at path, reading it from disk on a miss.
// Supported formats are PNG, JPEG and GIF.
//
// The path string is the key: a relative and an absolute path to the same
// file are cached separately.
func (c *ImageCache) Load(path string) (image.Image, error) {
	e, err := c.capture(path)
	if err != nil {
		return nil, err
	}
	return e.img, nil
}

// LoadBuffer returns the capture at path as an RGBA PixelBuffer. The
// conversion is done once per cached capture.
func (c *ImageCache) LoadBuffer(path string) (PixelBuffer, error) {
	e, err := c.capture(path)
	if err != nil {
		return PixelBuffer{}, err
	}

	c.mu.Lock()
	buf := e.buf
	c.mu.Unlock()
	if buf.Valid() {
		return buf, nil
	}

	buf = FromImage(e.img)
	if !buf.Valid() {
		return PixelBuffer{}, fmt.Errorf("%s: %w", path, ErrInvalidInput)
	}
	c.mu.Lock()
	e.buf = buf
	c.mu.Unlock()
	return buf, nil
}

// Len returns the number of cached captures.
func (c *ImageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear removes every capture.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
	c.mu.Unlock()
}

// Evict removes the capture at path and reports whether it was cached.
func (c *ImageCache) Evict(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[path]
	if !ok {
		return false
	}
	c.order.Remove(el)
	delete(c.entries, path)
	return true
}

func (c *ImageCache) capture(path string) (*capture, error) {
	if e := c.lookup(path); e != nil {
		return e, nil
	}
	v, err, _ := c.loads.Do(path, func() (interface{}, error) {
		if e := c.lookup(path); e != nil {
			return e, nil
		}
		e, err := readCapture(path)
		if err != nil {
			return nil, err
		}
		c.insert(e)
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*capture), nil
}

func (c *ImageCache) lookup(path string) *capture {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[path]
	if !ok {
		return nil
	}
	c.order.MoveToFront(el)
	return el.Value.(*capture)
}

func (c *ImageCache) insert(e *capture) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[e.path]; ok {
		el.Value = e
		c.order.MoveToFront(el)
		return
	}
	c.entries[e.path] = c.order.PushFront(e)
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*capture).path)
	}
}

func readCapture(path string) (*capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &capture{path: path, img: img, format: format, size: stat.Size()}, nil
}

// ImageInfo describes a loaded capture.
type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is the decoder that read the file: "png", "jpeg" or "gif".
	Format string `json:"format"`

	// ColorDepth is "8-bit" or "16-bit" per channel.
	ColorDepth string `json:"color_depth"`

	HasAlpha  bool `json:"has_alpha"`
	Grayscale bool `json:"grayscale"`

	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads the capture at path into cache and describes it.
// Color depth and channels follow the decoded Go image type.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	e, err := cache.capture(path)
	if err != nil {
		return nil, err
	}

	info := &ImageInfo{
		Width:         e.img.Bounds().Dx(),
		Height:        e.img.Bounds().Dy(),
		Format:        e.format,
		ColorDepth:    "8-bit",
		FileSizeBytes: e.size,
	}
	switch e.img.(type) {
	case *image.RGBA, *image.NRGBA:
		info.HasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		info.HasAlpha = true
		info.ColorDepth = "16-bit"
	case *image.Gray:
		info.Grayscale = true
	case *image.Gray16:
		info.Grayscale = true
		info.ColorDepth = "16-bit"
	}
	return info, nil
}
