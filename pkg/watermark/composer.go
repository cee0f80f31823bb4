package watermark

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Composer renders badges for one logo and caches the results.
type Composer struct {
	logo       image.Image
	logoSource string
	cache      *Cache
}

// NewComposer loads the logo image from disk. cacheSize bounds the
// number of distinct usernames whose badges are kept in memory.
func NewComposer(logoPath string, cacheSize int) (*Composer, error) {
	logo, err := imaging.Open(logoPath, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("watermark: open logo %s: %w", logoPath, err)
	}
	return &Composer{
		logo:       logo,
		logoSource: logoPath,
		cache:      NewCache(cacheSize),
	}, nil
}

// NewComposerFromImage builds a composer around an already-decoded
// logo. logoSource only feeds the cache key.
func NewComposerFromImage(logo image.Image, logoSource string, cacheSize int) *Composer {
	return &Composer{
		logo:       logo,
		logoSource: logoSource,
		cache:      NewCache(cacheSize),
	}
}

// For returns the watermark PNG for a username, rendering it on first
// use.
func (c *Composer) For(username string) ([]byte, error) {
	key := Key(c.logoSource, username)
	if png, ok := c.cache.Get(key); ok {
		return png, nil
	}

	png, err := Compose(c.logo, username)
	if err != nil {
		return nil, err
	}
	c.cache.Put(key, png)
	return png, nil
}
