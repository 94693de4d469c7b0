package canvas

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"strings"
	"sync"

	_ "golang.org/x/image/webp"
)

// imageCache decodes image sources once per canvas.
type imageCache struct {
	mu     sync.Mutex
	images map[string]image.Image
}

func newImageCache() *imageCache {
	return &imageCache{images: make(map[string]image.Image)}
}

func (c *imageCache) load(src string) (image.Image, error) {
	c.mu.Lock()
	img, ok := c.images[src]
	c.mu.Unlock()
	if ok {
		return img, nil
	}

	data, err := DecodeDataURL(src)
	if err != nil {
		return nil, err
	}
	img, _, err = image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	c.mu.Lock()
	c.images[src] = img
	c.mu.Unlock()
	return img, nil
}

// DecodeDataURL returns the payload of a data: URL.
func DecodeDataURL(src string) ([]byte, error) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return nil, fmt.Errorf("%w: %.32q", ErrUnsupportedImageSource, src)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing payload", ErrUnsupportedImageSource)
	}
	if strings.HasSuffix(meta, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}
