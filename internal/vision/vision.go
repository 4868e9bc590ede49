// Package vision extracts vendor names from event images.
//
// Some sources publish an event with only a logo. An Analyzer turns the image
// URL into a business name; Cache remembers successful answers so repeated
// images are analyzed once, and Lookup is the best-effort entry point parsers
// use, which never fails the surrounding parse.
package vision

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/pfrederiksen/around-the-grounds/internal/logger"
)

// ErrNoName is returned when the image shows no identifiable business name.
var ErrNoName = errors.New("no vendor name found in image")

// Analyzer extracts a vendor name from an image URL.
type Analyzer interface {
	Analyze(ctx context.Context, imageURL string) (string, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(ctx context.Context, imageURL string) (string, error)

func (f AnalyzerFunc) Analyze(ctx context.Context, imageURL string) (string, error) {
	return f(ctx, imageURL)
}

var imageIndicators = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp",
	"s3.amazonaws.com", "images.", "img.", "media.",
}

// IsImageURL reports whether url looks like a fetchable image.
func IsImageURL(url string) bool {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return false
	}
	lower := strings.ToLower(url)
	for _, ind := range imageIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

var vendorSuffixes = []string{
	"Food Truck", "Kitchen", "Catering", "Restaurant", "Cafe", "Bar",
	"LLC", "Inc", "Co", "Company", "&amp;", "and Co",
}

// CleanVendorName strips generic business suffixes from an extracted name.
func CleanVendorName(name string) string {
	name = strings.TrimSpace(name)
	for _, suffix := range vendorSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSpace(strings.TrimSuffix(name, suffix))
		}
	}
	return name
}

// Cache wraps an Analyzer and remembers successful results by URL.
// Failures are not cached so a later call can retry.
type Cache struct {
	next Analyzer

	mu    sync.Mutex
	names map[string]string
}

// NewCache creates a Cache in front of next.
func NewCache(next Analyzer) *Cache {
	return &Cache{
		next:  next,
		names: make(map[string]string),
	}
}

// Analyze returns the cached name for imageURL or asks the wrapped Analyzer.
func (c *Cache) Analyze(ctx context.Context, imageURL string) (string, error) {
	c.mu.Lock()
	name, ok := c.names[imageURL]
	c.mu.Unlock()
	if ok {
		return name, nil
	}

	name, err := c.next.Analyze(ctx, imageURL)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.names[imageURL] = name
	c.mu.Unlock()
	return name, nil
}

// Len returns the number of cached names.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.names)
}

// Lookup asks a for a vendor name and reports whether one was found.
// A nil Analyzer, a non-image URL, and any analysis error all yield ok=false.
func Lookup(ctx context.Context, a Analyzer, imageURL string, log *logger.Logger) (string, bool) {
	if a == nil || !IsImageURL(imageURL) {
		return "", false
	}
	name, err := a.Analyze(ctx, imageURL)
	if err != nil {
		if log != nil && !errors.Is(err, ErrNoName) {
			log.Warn("Vision analysis failed", logger.Fields{"image_url": imageURL, "error": err.Error()})
		}
		return "", false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	return name, true
}
