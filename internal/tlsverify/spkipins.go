package tlsverify

import (
	"encoding/base64"
	"fmt"
)

// SpkiPinSet is a configured set of acceptable SPKI fingerprints. Max 10
// pins; each must be exactly 43 characters of valid base64url (spec.md
// §4.4).
type SpkiPinSet []string

// Validate checks the pin-set shape constraints.
func (s SpkiPinSet) Validate() error {
	if len(s) > 10 {
		return fmt.Errorf("tlsverify: too many SPKI pins (%d), max 10", len(s))
	}
	for _, pin := range s {
		if len(pin) != 43 {
			return fmt.Errorf("tlsverify: SPKI pin %q must be exactly 43 characters", pin)
		}
		if _, err := base64.RawURLEncoding.DecodeString(pin); err != nil {
			return fmt.Errorf("tlsverify: SPKI pin %q is not valid base64url: %w", pin, err)
		}
	}
	return nil
}

// Contains reports whether fingerprint is in the pin set. An empty pin set
// means pinning is disabled, so Contains returns true (no constraint).
func (s SpkiPinSet) Contains(fingerprint string) bool {
	if len(s) == 0 {
		return true
	}
	for _, pin := range s {
		if pin == fingerprint {
			return true
		}
	}
	return false
}
