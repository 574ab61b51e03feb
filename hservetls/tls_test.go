package hservetls

import (
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	certificateFile string
	keyFile         string
)

func TestMain(m *testing.M) {
	certificate, err := CreateTestCertificate(&x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName: "hservetls test",
		},
		DNSNames:  []string{"localhost"},
		NotBefore: time.Now().Add(-time.Hour),
		NotAfter:  time.Now().Add(24 * time.Hour),
	})

	if err != nil {
		os.Exit(1)
	}

	certificateFile, keyFile, err = CreateTestServerFiles(certificate)
	if err != nil {
		os.Exit(1)
	}

	code := m.Run()
	os.Remove(certificateFile)
	os.Remove(keyFile)
	os.Exit(code)
}

func testConfigNil(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		c *Config
	)

	tc, err := c.New()
	require.NoError(err)
	assert.Nil(tc)
}

func testConfigBasic(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		c = Config{
			Certificates: ExternalCertificates{
				{
					CertificateFile: certificateFile,
					KeyFile:         keyFile,
				},
			},
		}
	)

	tc, err := c.New()
	require.NoError(err)
	require.NotNil(tc)
	assert.Len(tc.Certificates, 1)
	assert.Equal([]string{"http/1.0"}, tc.NextProtos)
	assert.Equal(uint16(tls.VersionTLS13), tc.MinVersion)
}

func testConfigVersionClamp(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		c = Config{
			Certificates: ExternalCertificates{
				{
					CertificateFile: certificateFile,
					KeyFile:         keyFile,
				},
			},
			MinVersion: tls.VersionTLS12,
			MaxVersion: tls.VersionTLS11,
		}
	)

	tc, err := c.New()
	require.NoError(err)
	assert.Equal(uint16(tls.VersionTLS12), tc.MinVersion)
	assert.Equal(uint16(tls.VersionTLS12), tc.MaxVersion)
}

func testConfigMissingKeyFile(t *testing.T) {
	assert := assert.New(t)

	c := Config{
		Certificates: ExternalCertificates{
			{
				CertificateFile: certificateFile,
			},
		},
	}

	tc, err := c.New()
	assert.Nil(tc)
	assert.ErrorIs(err, ErrCertificateRequired)
}

func testConfigClientCAs(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		c = Config{
			Certificates: ExternalCertificates{
				{
					CertificateFile: certificateFile,
					KeyFile:         keyFile,
				},
			},
			ClientCAs: ExternalCertPool{certificateFile},
		}
	)

	tc, err := c.New()
	require.NoError(err)
	require.NotNil(tc.ClientCAs)
	assert.Equal(tls.RequireAndVerifyClientCert, tc.ClientAuth)
}

func testConfigBadClientCAFile(t *testing.T) {
	assert := assert.New(t)

	c := Config{
		Certificates: ExternalCertificates{
			{
				CertificateFile: certificateFile,
				KeyFile:         keyFile,
			},
		},
		// the key file is a valid PEM file but not a certificate
		ClientCAs: ExternalCertPool{keyFile},
	}

	tc, err := c.New()
	assert.Nil(tc)
	assert.ErrorIs(err, ErrUnableToAddClientCACertificate)
}

func TestConfig(t *testing.T) {
	t.Run("Nil", testConfigNil)
	t.Run("Basic", testConfigBasic)
	t.Run("VersionClamp", testConfigVersionClamp)
	t.Run("MissingKeyFile", testConfigMissingKeyFile)
	t.Run("ClientCAs", testConfigClientCAs)
	t.Run("BadClientCAFile", testConfigBadClientCAFile)
}
