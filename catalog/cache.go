package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"cfmods/fsutil"

	"go.uber.org/zap"
)

// Source opens the remote catalog. The response body must not have been
// read yet; Cache decides whether to consume it.
type Source interface {
	ProbeCatalog(ctx context.Context) (*http.Response, error)
}

// Cache keeps a single local copy of the remote catalog document.
type Cache struct {
	path   string
	source Source
	log    *zap.SugaredLogger
	now    func() time.Time
}

// Info describes the cached file on disk.
type Info struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// NewCache creates a cache stored at path.
func NewCache(path string, source Source, log *zap.SugaredLogger) *Cache {
	return &Cache{
		path:   path,
		source: source,
		log:    log,
		now:    time.Now,
	}
}

// Path is the location of the cached document.
func (c *Cache) Path() string {
	return c.path
}

// EnsureFresh returns the catalog, fetching it when there is no local copy
// and refetching when the remote Last-Modified lies in the future relative
// to now. A failed refetch falls back to the local copy.
func (c *Cache) EnsureFresh(ctx context.Context) (Document, error) {
	resp, probeErr := c.source.ProbeCatalog(ctx)
	if resp != nil {
		defer resp.Body.Close()
	}
	c.log.Debug("Polled the catalog, body not downloaded yet")

	if !c.exists() {
		if probeErr != nil {
			return Document{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, probeErr)
		}
		if !isSuccess(resp) {
			return Document{}, fmt.Errorf("%w: remote returned status %d", ErrCatalogUnavailable, resp.StatusCode)
		}
		if err := c.persist(resp); err != nil {
			return Document{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
		}
		return c.load()
	}

	if probeErr != nil {
		if ctx.Err() != nil {
			return Document{}, ctx.Err()
		}
		c.log.Warnw("Could not reach the catalog, using the cached copy", zap.Error(probeErr))
		return c.load()
	}

	if c.isStale(resp.Header) {
		c.log.Infow("Catalog needs an update", "now", c.now().UTC())
		if !isSuccess(resp) {
			c.log.Errorw("Failed to get catalog data, continuing with the cached copy", "status", resp.StatusCode)
		} else if err := c.persist(resp); err != nil {
			if ctx.Err() != nil {
				return Document{}, ctx.Err()
			}
			c.log.Errorw("Failed to save catalog data, continuing with the cached copy", zap.Error(err))
		}
	} else {
		c.log.Debug("Catalog cache is fresh")
	}
	return c.load()
}

// Refresh fetches and stores the remote catalog unconditionally.
func (c *Cache) Refresh(ctx context.Context) (Document, error) {
	resp, err := c.source.ProbeCatalog(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp) {
		return Document{}, fmt.Errorf("%w: remote returned status %d", ErrCatalogUnavailable, resp.StatusCode)
	}
	if err := c.persist(resp); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	return c.load()
}

// Info stats the cached file.
func (c *Cache) Info() (Info, error) {
	st, err := os.Stat(c.path)
	if err != nil {
		return Info{}, err
	}
	return Info{Path: c.path, Size: st.Size(), ModTime: st.ModTime()}, nil
}

// Load decodes the cached file without contacting the remote.
func (c *Cache) Load() (Document, error) {
	return c.load()
}

// isStale compares the remote timestamp with now, not with the cached
// file's age. A missing or unparsable header counts as fresh.
func (c *Cache) isStale(h http.Header) bool {
	raw := h.Get("Last-Modified")
	if raw == "" {
		c.log.Debug("Catalog response has no Last-Modified header")
		return false
	}
	remote, err := http.ParseTime(raw)
	if err != nil {
		c.log.Warnw("Unparsable Last-Modified header", "value", raw, zap.Error(err))
		return false
	}
	return remote.UTC().After(c.now().UTC())
}

func (c *Cache) exists() bool {
	st, err := os.Stat(c.path)
	return err == nil && st.Mode().IsRegular()
}

// persist replaces the cached file with the response body, but only once
// the body decodes. An undecodable body leaves the existing copy in place.
func (c *Cache) persist(resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading catalog: %w", err)
	}
	if _, err := Decode(data); err != nil {
		return fmt.Errorf("refusing to save catalog: %w", err)
	}

	c.log.Infow("Saving catalog data...", "path", c.path)
	n, err := fsutil.WriteAtomic(c.path, bytes.NewReader(data), 0644)
	if err != nil {
		return fmt.Errorf("saving catalog: %w", err)
	}
	c.log.Debugw("Catalog saved", "bytes", n)
	return nil
}

func (c *Cache) load() (Document, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return Document{}, fmt.Errorf("%w: reading cache: %w", ErrCatalogUnavailable, err)
	}
	doc, err := Decode(data)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	if doc.Dropped > 0 {
		c.log.Warnw("Dropped invalid catalog records", "count", doc.Dropped)
	}
	c.log.Debugw("Catalog loaded", "mods", len(doc.Mods))
	return doc, nil
}

func isSuccess(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
