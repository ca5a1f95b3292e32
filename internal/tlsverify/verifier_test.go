package tlsverify

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func selfSignedCert(t *testing.T, commonName string) *x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: commonName},
		DNSNames:     []string{commonName},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func TestFingerprintLengthIs43(t *testing.T) {
	cert := selfSignedCert(t, "api.github.com")
	bundle := Fingerprint(cert)
	require.Len(t, bundle.SpkiSha256, 43)
	require.Len(t, bundle.CertSha256, 43)
	require.Equal(t, SpkiSourceExact, bundle.SpkiSource)
}

func TestVerifierAcceptsWhitelistedPinnedCert(t *testing.T) {
	cert := selfSignedCert(t, "api.github.com")
	bundle := Fingerprint(cert)

	v, err := NewVerifier(SanWhitelist{"*.github.com"}, SpkiPinSet{bundle.SpkiSha256})
	require.NoError(t, err)

	got, err := v.Verify(cert, "api.github.com")
	require.NoError(t, err)
	require.Equal(t, bundle.SpkiSha256, got.SpkiSha256)
}

func TestVerifierRejectsHostOutsideWhitelist(t *testing.T) {
	cert := selfSignedCert(t, "api.github.com")
	v, err := NewVerifier(SanWhitelist{"*.gitlab.com"}, nil)
	require.NoError(t, err)

	_, err = v.Verify(cert, "api.github.com")
	require.Error(t, err)
}

func TestVerifierRejectsPinMismatch(t *testing.T) {
	cert := selfSignedCert(t, "api.github.com")
	other := selfSignedCert(t, "other.github.com")
	otherBundle := Fingerprint(other)

	v, err := NewVerifier(SanWhitelist{"*.github.com"}, SpkiPinSet{otherBundle.SpkiSha256})
	require.NoError(t, err)

	_, err = v.Verify(cert, "api.github.com")
	require.Error(t, err)
}
