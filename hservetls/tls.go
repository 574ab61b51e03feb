// Package hservetls holds the unmarshalable TLS configuration used by server
// listener factories.  A nil *Config means plaintext; a non-nil one produces
// a *tls.Config that listener factories wrap around the accept listener.
package hservetls

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"os"
)

var (
	// ErrCertificateRequired indicates a certificate entry missing either
	// its certificate file or its key file.
	ErrCertificateRequired = errors.New("both a certificateFile and keyFile are required")

	// ErrUnableToAddClientCACertificate indicates a client CA file that did
	// not contain a usable PEM certificate.
	ErrUnableToAddClientCACertificate = errors.New("unable to add client CA certificate")
)

// ExternalCertificate points at a certificate and key file on disk.
type ExternalCertificate struct {
	CertificateFile string
	KeyFile         string
}

// Load reads the certificate and key files from the file system.
func (ec ExternalCertificate) Load() (tls.Certificate, error) {
	if len(ec.CertificateFile) > 0 && len(ec.KeyFile) > 0 {
		return tls.LoadX509KeyPair(ec.CertificateFile, ec.KeyFile)
	}

	return tls.Certificate{}, ErrCertificateRequired
}

// ExternalCertificates is a sequence of certificates to present to clients.
type ExternalCertificates []ExternalCertificate

// Len returns the count of externally available certificates in this slice.
func (ecs ExternalCertificates) Len() int {
	return len(ecs)
}

// AppendTo loads and appends each certificate in this slice.  Any error
// short circuits and returns that error together with the certificates
// loaded so far.
func (ecs ExternalCertificates) AppendTo(certs []tls.Certificate) ([]tls.Certificate, error) {
	for _, ec := range ecs {
		cert, err := ec.Load()
		if err != nil {
			return certs, err
		}

		certs = append(certs, cert)
	}

	return certs, nil
}

// ExternalCertPool is a sequence of file names containing PEM-encoded
// certificates or bundles to be added to an x509.CertPool.
type ExternalCertPool []string

// Len returns the number of external files in this pool.
func (ecp ExternalCertPool) Len() int {
	return len(ecp)
}

// AppendTo adds each PEM-encoded file from this external pool to the given
// x509.CertPool.  The number of certs added is returned, and any error short
// circuits subsequent loading.
func (ecp ExternalCertPool) AppendTo(pool *x509.CertPool) (int, error) {
	var loaded int
	for _, file := range ecp {
		pemCert, err := os.ReadFile(file)
		if err != nil {
			return loaded, err
		}

		if !pool.AppendCertsFromPEM(pemCert) {
			return loaded, ErrUnableToAddClientCACertificate
		}

		loaded++
	}

	return loaded, nil
}

// Config represents the unmarshaled TLS options for a server.
type Config struct {
	// Certificates is the set of certificates to present to clients.
	// Required for servers.
	Certificates ExternalCertificates

	// ClientCAs is the optional certificate pool for certificates expected
	// from a client.  Configure this as part of mTLS; when set, client
	// certificates are required and verified.
	ClientCAs ExternalCertPool

	// ServerName is the host name announced in the handshake.  Optional.
	ServerName string

	// NextProtos is the list of supported application protocols.
	// Defaults to "http/1.0" if unset.
	NextProtos []string

	// MinVersion is the minimum accepted TLS version.  If unset, TLS 1.3
	// is enforced, which is stricter than the crypto/tls default.
	MinVersion uint16

	// MaxVersion is the maximum accepted TLS version.  If unset, the
	// crypto/tls default is used.
	MaxVersion uint16
}

// nextProtos returns the application protocols for the handshake.
func (c *Config) nextProtos() []string {
	nextProtos := append([]string{}, c.NextProtos...)
	if len(nextProtos) == 0 {
		nextProtos = append(nextProtos, "http/1.0")
	}

	return nextProtos
}

// enforceVersions ensures certain constraints on the TLS version are met.
func (c *Config) enforceVersions(tc *tls.Config) {
	if tc.MinVersion == 0 {
		tc.MinVersion = tls.VersionTLS13
	}

	if tc.MaxVersion != 0 && tc.MaxVersion < tc.MinVersion {
		tc.MaxVersion = tc.MinVersion
	}
}

// certificates loads the certificate material defined in this configuration.
func (c *Config) certificates(tc *tls.Config) error {
	certs, err := c.Certificates.AppendTo(nil)
	if err != nil {
		return err
	}

	tc.Certificates = certs

	if c.ClientCAs.Len() > 0 {
		clientCAs := x509.NewCertPool()
		count, err := c.ClientCAs.AppendTo(clientCAs)
		if err != nil {
			return err
		}

		if count > 0 {
			tc.ClientCAs = clientCAs
			tc.ClientAuth = tls.RequireAndVerifyClientCert
		}
	}

	return nil
}

// New constructs a *tls.Config from this Config instance, usually unmarshaled
// from some external source.  If this instance is nil, it returns nil with no
// error, and the server stays plaintext.
func (c *Config) New() (*tls.Config, error) {
	if c == nil {
		return nil, nil
	}

	tc := &tls.Config{
		MinVersion: c.MinVersion,
		MaxVersion: c.MaxVersion,
		NextProtos: c.nextProtos(),
		ServerName: c.ServerName,
	}

	c.enforceVersions(tc)
	if err := c.certificates(tc); err != nil {
		return nil, err
	}

	return tc, nil
}
