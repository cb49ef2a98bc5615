package security

import (
	"crypto/tls"
	"testing"

	"github.com/kbukum/asrkit/errors"
	"github.com/kbukum/asrkit/security/tlstest"
)

func TestBuildDisabled(t *testing.T) {
	for _, cfg := range []*TLSConfig{nil, {}, {KeyFile: "ignored.pem"}} {
		got, err := cfg.Build()
		if err != nil || got != nil {
			t.Errorf("expected no client config for %+v, got %v, %v", cfg, got, err)
		}
		got, err = cfg.BuildServer()
		if err != nil || got != nil {
			t.Errorf("expected no server config for %+v, got %v, %v", cfg, got, err)
		}
	}
}

func TestBuildClient(t *testing.T) {
	certs := tlstest.Generate(t)
	tests := []struct {
		name  string
		cfg   TLSConfig
		check func(t *testing.T, c *tls.Config)
	}{
		{"skip verify", TLSConfig{SkipVerify: true}, func(t *testing.T, c *tls.Config) {
			if !c.InsecureSkipVerify || c.MinVersion != tls.VersionTLS12 {
				t.Errorf("unexpected config %+v", c)
			}
		}},
		{"custom CA", TLSConfig{CAFile: certs.CAFile, ServerName: "localhost"}, func(t *testing.T, c *tls.Config) {
			if c.RootCAs == nil || c.ServerName != "localhost" {
				t.Error("expected the CA pool and server name")
			}
		}},
		{"client certificate", TLSConfig{CAFile: certs.CAFile, CertFile: certs.CertFile, KeyFile: certs.KeyFile}, func(t *testing.T, c *tls.Config) {
			if len(c.Certificates) != 1 {
				t.Errorf("expected one client certificate, got %d", len(c.Certificates))
			}
		}},
		{"min version", TLSConfig{SkipVerify: true, MinVersion: tls.VersionTLS13}, func(t *testing.T, c *tls.Config) {
			if c.MinVersion != tls.VersionTLS13 {
				t.Errorf("expected TLS 1.3, got %x", c.MinVersion)
			}
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := tc.cfg.Build()
			if err != nil {
				t.Fatal(err)
			}
			tc.check(t, c)
		})
	}
}

func TestBuildServer(t *testing.T) {
	certs := tlstest.Generate(t)

	cfg := TLSConfig{CertFile: certs.CertFile, KeyFile: certs.KeyFile}
	c, err := cfg.BuildServer()
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Certificates) != 1 || c.ClientAuth != tls.NoClientCert {
		t.Errorf("unexpected server config %+v", c)
	}
	if c.NextProtos[0] != "h2" {
		t.Errorf("expected h2 first, got %v", c.NextProtos)
	}

	cfg.CAFile = certs.CAFile
	c, err = cfg.BuildServer()
	if err != nil {
		t.Fatal(err)
	}
	if c.ClientAuth != tls.RequireAndVerifyClientCert || c.ClientCAs == nil {
		t.Error("a CA file on a server requires client certificates")
	}
}

func TestBuildErrors(t *testing.T) {
	certs := tlstest.Generate(t)
	tests := []struct {
		name string
		cfg  TLSConfig
		code errors.ErrorCode
	}{
		{"missing CA", TLSConfig{CAFile: "/nonexistent/ca.pem"}, errors.ErrCodeIO},
		{"invalid CA", TLSConfig{CAFile: tlstest.WriteInvalidPEM(t)}, errors.ErrCodeInvalidFormat},
		{"cert without key", TLSConfig{CertFile: certs.CertFile}, errors.ErrCodeInvalidInput},
		{"unreadable key pair", TLSConfig{CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"}, errors.ErrCodeIO},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.cfg.Build()
			if !errors.HasCode(err, tc.code) {
				t.Errorf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestServesTLS(t *testing.T) {
	var nilCfg *TLSConfig
	if nilCfg.ServesTLS() || (&TLSConfig{CAFile: "ca.pem"}).ServesTLS() {
		t.Error("a server needs a certificate to serve TLS")
	}
	if !(&TLSConfig{CertFile: "c", KeyFile: "k"}).ServesTLS() {
		t.Error("expected TLS with a certificate")
	}
}
