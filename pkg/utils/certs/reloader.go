// Package certs serves a TLS key pair that is reloaded when the files change,
// e.g. after a certificate renewal.
package certs

import (
	"context"
	"crypto/tls"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mpapenbr/lapracer/log"
)

type Reloader struct {
	certFile string
	keyFile  string
	log      *log.Logger
	mu       sync.RWMutex
	cert     *tls.Certificate
}

type Option func(r *Reloader)

func WithLogger(l *log.Logger) Option {
	return func(r *Reloader) {
		r.log = l
	}
}

// NewReloader loads the key pair once. An error is returned if that fails.
func NewReloader(certFile, keyFile string, opts ...Option) (*Reloader, error) {
	r := &Reloader{
		certFile: certFile,
		keyFile:  keyFile,
		log:      log.Default().Named("certs"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// TLSConfig returns a server config always presenting the latest key pair.
func (r *Reloader) TLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
			return r.Certificate(), nil
		},
		MinVersion: tls.VersionTLS12,
	}
}

func (r *Reloader) Certificate() *tls.Certificate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert
}

// Watch reloads the key pair on changes until ctx is done. A broken pair is
// logged and the previous one is kept.
//
//nolint:gocognit // event loop
func (r *Reloader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	files := map[string]bool{
		filepath.Clean(r.certFile): true,
		filepath.Clean(r.keyFile):  true,
	}
	for f := range files {
		if err := watcher.Add(filepath.Dir(f)); err != nil {
			watcher.Close()
			return err
		}
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				r.log.Debug("context done, stopping cert reload")
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !files[filepath.Clean(event.Name)] {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Chmod) {

					r.log.Info("cert file changed, reloading cert",
						log.String("file", event.Name))
					if err := r.load(); err != nil {
						r.log.Error("could not load TLS key pair", log.ErrorField(err))
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.log.Error("watcher error", log.ErrorField(err))
			}
		}
	}()
	return nil
}

func (r *Reloader) load() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cert = &cert
	return nil
}
