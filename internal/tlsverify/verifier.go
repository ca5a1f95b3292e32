package tlsverify

import (
	"crypto/x509"
	"fmt"

	gerrors "github.com/fireworks/gitengine/internal/errors"
)

// Verifier wraps certificate verification with SAN-whitelist and SPKI-pin
// checks on top of whatever TLS stack supplied the leaf certificate.
type Verifier struct {
	Whitelist        SanWhitelist
	Pins             SpkiPinSet
	CertFpLogEnabled bool
}

// NewVerifier constructs a Verifier, validating the pin set eagerly.
func NewVerifier(whitelist SanWhitelist, pins SpkiPinSet) (*Verifier, error) {
	if err := pins.Validate(); err != nil {
		return nil, err
	}
	return &Verifier{Whitelist: whitelist, Pins: pins}, nil
}

// Verify checks leaf against the SAN whitelist (matched against realHost,
// not the SNI that was actually sent — this is the "real-host
// verification" spec.md §4.4 requires when a fake SNI is in play) and the
// SPKI pin set, returning the fingerprint bundle when verification
// succeeds.
func (v *Verifier) Verify(leaf *x509.Certificate, realHost string) (FingerprintBundle, error) {
	if !v.Whitelist.Matches(realHost) {
		return FingerprintBundle{}, gerrors.VerifyError(
			fmt.Sprintf("certificate host %q not present in SAN whitelist", realHost)).
			WithCode("san_whitelist_rejected").Build()
	}

	bundle := Fingerprint(leaf)
	if !v.Pins.Contains(bundle.SpkiSha256) {
		return bundle, gerrors.VerifyError("certificate SPKI does not match any configured pin").
			WithCode("spki_pin_mismatch").Build()
	}
	return bundle, nil
}
