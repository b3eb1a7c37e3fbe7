package memory

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrNoSuchFile is returned by StaticLineLoader for unknown names.
var ErrNoSuchFile = errors.New("no such quote file")

// LineLoader fetches the lines of a named quote file from a backing store.
type LineLoader interface {
	LoadLines(ctx context.Context, name string) ([]string, error)
}

// Versioner is implemented by loaders that can tell whether a quote file
// changed without reading it, e.g. from its modification time.
type Versioner interface {
	Version(ctx context.Context, name string) (time.Time, error)
}

// LineRepository caches quote files. Once an entry's TTL runs out the file is
// revalidated: a loader implementing Versioner only triggers a reload when the
// version moved, others are reloaded unconditionally.
type LineRepository struct {
	loader LineLoader
	ttl    time.Duration
	now    func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	files map[string]quoteFile
}

type quoteFile struct {
	lines     []string
	version   time.Time
	versioned bool
	freshTill time.Time
}

func NewLineRepository(loader LineLoader, ttl time.Duration) *LineRepository {
	return &LineRepository{
		loader: loader,
		ttl:    ttl,
		now:    time.Now,
		files:  make(map[string]quoteFile),
	}
}

func (r *LineRepository) Lines(ctx context.Context, name string) ([]string, error) {
	if f, ok := r.fresh(name, r.now()); ok {
		return f.lines, nil
	}

	result, err, _ := r.sf.Do(name, func() (any, error) {
		now := r.now()
		cached, ok := r.fresh(name, now)
		if ok {
			return cached.lines, nil
		}

		next := quoteFile{}
		if v, isVersioner := r.loader.(Versioner); isVersioner {
			version, err := v.Version(ctx, name)
			if err != nil {
				return nil, err
			}
			if cached.versioned && cached.version.Equal(version) {
				cached.freshTill = now.Add(r.ttlWithJitter())
				r.store(name, cached)
				return cached.lines, nil
			}
			next.version, next.versioned = version, true
		}

		lines, err := r.loader.LoadLines(ctx, name)
		if err != nil {
			return nil, err
		}
		next.lines = lines
		next.freshTill = now.Add(r.ttlWithJitter())
		r.store(name, next)
		return lines, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

// fresh returns the cached entry for name, reporting whether it is still
// within its TTL. A stale entry is returned for revalidation.
func (r *LineRepository) fresh(name string, now time.Time) (quoteFile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.files[name]
	return f, ok && f.freshTill.After(now)
}

func (r *LineRepository) store(name string, f quoteFile) {
	r.mu.Lock()
	r.files[name] = f
	r.mu.Unlock()
}

// up to 10% jitter so quote files are not all revalidated at once
func (r *LineRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	return r.ttl + time.Duration(rand.Int64N(int64(r.ttl)/10+1))
}

// StaticLineLoader serves fixed lines.
type StaticLineLoader struct {
	files map[string][]string
}

func NewStaticLineLoader(files map[string][]string) *StaticLineLoader {
	return &StaticLineLoader{files: files}
}

func (l *StaticLineLoader) LoadLines(_ context.Context, name string) ([]string, error) {
	if lines, ok := l.files[name]; ok {
		return lines, nil
	}
	return nil, ErrNoSuchFile
}
