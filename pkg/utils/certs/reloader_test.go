package certs

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/poll"

	"github.com/mpapenbr/lapracer/log"
)

// writeKeyPair writes a self signed certificate with the given serial.
func writeKeyPair(t *testing.T, dir string, serial int64) (certFile, keyFile string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	assert.NilError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		Subject:      pkix.Name{CommonName: "localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		DNSNames:     []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	assert.NilError(t, err)
	keyDer, err := x509.MarshalECPrivateKey(key)
	assert.NilError(t, err)

	certFile = filepath.Join(dir, "tls.crt")
	keyFile = filepath.Join(dir, "tls.key")
	assert.NilError(t, os.WriteFile(keyFile,
		pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDer}), 0o600))
	assert.NilError(t, os.WriteFile(certFile,
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	return certFile, keyFile
}

func serial(t *testing.T, r *Reloader) int64 {
	t.Helper()
	leaf, err := x509.ParseCertificate(r.Certificate().Certificate[0])
	assert.NilError(t, err)
	return leaf.SerialNumber.Int64()
}

func TestReloader(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir, 1)

	r, err := NewReloader(certFile, keyFile, WithLogger(log.New(os.Stderr, log.WarnLevel)))
	assert.NilError(t, err)
	assert.Equal(t, serial(t, r), int64(1))

	got, err := r.TLSConfig().GetCertificate(nil)
	assert.NilError(t, err)
	assert.Equal(t, got, r.Certificate())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.NilError(t, r.Watch(ctx))

	writeKeyPair(t, dir, 2)
	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if serial(t, r) != 2 {
			return poll.Continue("cert not reloaded yet")
		}
		return poll.Success()
	}, poll.WithTimeout(5*time.Second), poll.WithDelay(20*time.Millisecond))
}

func TestReloader_Missing(t *testing.T) {
	dir := t.TempDir()
	_, err := NewReloader(filepath.Join(dir, "a.crt"), filepath.Join(dir, "a.key"))
	assert.Assert(t, err != nil)
}
