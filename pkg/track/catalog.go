package track

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/lapracer/log"
	"github.com/mpapenbr/lapracer/pkg/model"
)

// File is the layout of a track definition file.
type File struct {
	Tracks []model.TrackConfig `yaml:"tracks"`
}

// Load reads and validates all track definitions in path.
func Load(path string) ([]*Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	ret := make([]*Track, 0, len(f.Tracks))
	for i := range f.Tracks {
		t, err := Build(&f.Tracks[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		ret = append(ret, t)
	}
	return ret, nil
}

// Catalog holds the tracks available for new sessions.
// Running sessions keep the *Track they were created with.
type Catalog struct {
	mu     sync.RWMutex
	tracks map[string]*Track
	log    *log.Logger
}

type CatalogOption func(c *Catalog)

func WithLogger(l *log.Logger) CatalogOption {
	return func(c *Catalog) {
		c.log = l
	}
}

// WithoutBuiltins starts with an empty catalog.
func WithoutBuiltins() CatalogOption {
	return func(c *Catalog) {
		c.tracks = make(map[string]*Track)
	}
}

func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{
		tracks: make(map[string]*Track),
		log:    log.Default().Named("track"),
	}
	for _, cfg := range Builtin() {
		t, err := Build(&cfg)
		if err != nil {
			// builtins are covered by tests
			panic(err)
		}
		c.tracks[t.Name] = t
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Catalog) Get(name string) (*Track, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if t, ok := c.tracks[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, name)
}

// Names returns the sorted track names.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := lo.Keys(c.tracks)
	slices.Sort(names)
	return names
}

// Add registers t, replacing a track of the same name.
func (c *Catalog) Add(t *Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tracks[t.Name] = t
}

// LoadFile adds all tracks of path. Nothing is added if any track is invalid.
func (c *Catalog) LoadFile(path string) error {
	tracks, err := Load(path)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range tracks {
		c.tracks[t.Name] = t
	}
	c.log.Info("tracks loaded",
		log.String("file", path),
		log.Strings("tracks", lo.Map(tracks, func(t *Track, _ int) string { return t.Name })))
	return nil
}

// Watch reloads path whenever it changes until ctx is done.
// The directory is watched since editors often replace files on save.
//
//nolint:gocognit // event loop
func (c *Catalog) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}
	target := filepath.Clean(path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				c.log.Debug("context done, stopping track reload")
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					c.log.Info("track file changed, reloading", log.String("file", event.Name))
					if err := c.LoadFile(path); err != nil {
						c.log.Error("could not reload tracks", log.ErrorField(err))
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.log.Error("watcher error", log.ErrorField(err))
			}
		}
	}()
	return nil
}
