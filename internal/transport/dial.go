package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"

	"github.com/fireworks/gitengine/internal/tlsverify"
)

type sniOverrideKeyType struct{}
type realHostKeyType struct{}

var sniOverrideKey = sniOverrideKeyType{}
var realHostKey = realHostKeyType{}

func withSNIOverride(ctx context.Context, sni string) context.Context {
	return context.WithValue(ctx, sniOverrideKey, sni)
}

func withRealHost(ctx context.Context, host string) context.Context {
	return context.WithValue(ctx, realHostKey, host)
}

func sniFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sniOverrideKey).(string)
	return v, ok
}

func realHostFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(realHostKey).(string)
	return v, ok
}

// dialTLSContext performs the actual TLS connection for one attempt. It
// dials the literal address the HTTP transport resolved (fake SNI never
// changes *where* we connect, only what ClientHello.ServerName says) and
// hands verification entirely to our own callback via
// InsecureSkipVerify+VerifyPeerCertificate — the standard Go idiom for
// "verify against a host other than the one named in ServerName", which is
// exactly what spec.md §4.4's real-host verification requires.
func (t *AdaptiveTransport) dialTLSContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	sni := host
	if override, ok := sniFromContext(ctx); ok && override != "" {
		sni = override
	}
	realHost := host
	if rh, ok := realHostFromContext(ctx); ok && rh != "" {
		realHost = rh
	}

	rawConn, err := (&net.Dialer{}).DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsCfg := &tls.Config{
		ServerName:         sni,
		InsecureSkipVerify: true,
		VerifyPeerCertificate: func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			return t.verifyRawCerts(rawCerts, realHost)
		},
	}
	conn := tls.Client(rawConn, tlsCfg)
	if err := conn.HandshakeContext(ctx); err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	return conn, nil
}

func (t *AdaptiveTransport) verifyRawCerts(rawCerts [][]byte, realHost string) error {
	if t.verifier == nil || len(rawCerts) == 0 {
		return nil
	}
	leaf, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return fmt.Errorf("parse leaf certificate: %w", err)
	}
	bundle, verifyErr := t.verifier.Verify(leaf, realHost)
	if t.onFingerprint != nil {
		t.onFingerprint(realHost, bundle)
	}
	return verifyErr
}
