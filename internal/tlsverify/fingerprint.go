package tlsverify

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
)

// SpkiSource records whether the SPKI hash was extracted precisely or
// whether the verifier fell back to hashing the whole certificate DER.
type SpkiSource string

const (
	SpkiSourceExact            SpkiSource = "Exact"
	SpkiSourceWholeCertFallback SpkiSource = "WholeCertFallback"
)

// FingerprintBundle is the recorded identity of a verified certificate
// (spec.md §3). Hashes are base64url-nopad of a 32-byte SHA-256 digest, 43
// characters long.
type FingerprintBundle struct {
	SpkiSha256 string
	CertSha256 string
	SpkiSource SpkiSource
}

var b64 = base64.RawURLEncoding

func sha256B64(data []byte) string {
	sum := sha256.Sum256(data)
	return b64.EncodeToString(sum[:])
}

// Fingerprint computes the bundle for a parsed certificate. The SPKI hash
// uses the certificate's parsed RawSubjectPublicKeyInfo (Exact); if the
// certificate cannot be parsed at all, callers should use
// FingerprintFromDER instead, which marks the source as WholeCertFallback.
func Fingerprint(cert *x509.Certificate) FingerprintBundle {
	return FingerprintBundle{
		SpkiSha256: sha256B64(cert.RawSubjectPublicKeyInfo),
		CertSha256: sha256B64(cert.Raw),
		SpkiSource: SpkiSourceExact,
	}
}

// FingerprintFromDER hashes a raw, possibly-unparseable certificate DER as
// both the cert hash and a whole-cert-fallback SPKI hash. This path is used
// when ASN.1 parsing of the SPKI section fails.
func FingerprintFromDER(der []byte) FingerprintBundle {
	hash := sha256B64(der)
	return FingerprintBundle{
		SpkiSha256: hash,
		CertSha256: hash,
		SpkiSource: SpkiSourceWholeCertFallback,
	}
}
