package hservehttp

import (
	"context"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hserve-org/hserve/hservetls"
)

func testServerConfigBasic(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		serverConfig = ServerConfig{
			Address:        ":0",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxHeaderBytes: 4096,
		}
	)

	server, err := serverConfig.NewServer(helloHandler())
	require.NoError(err)
	require.NotNil(server)
	assert.Equal(":0", server.Addr)
	assert.Equal(15*time.Second, server.readTimeout)
	assert.Equal(30*time.Second, server.writeTimeout)
	assert.Equal(4096, server.maxHeaderBytes)
	assert.Nil(server.TLSConfig)
	assert.Nil(server.pool)
}

func testServerConfigPool(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		serverConfig = ServerConfig{
			Concurrency: ConcurrencyPool,
			PoolWorkers: 2,
			PoolQueue:   4,
		}
	)

	server, err := serverConfig.NewServer(helloHandler())
	require.NoError(err)
	require.NotNil(server)
	assert.NotNil(server.pool)
	server.pool.Close()
}

func testServerConfigBadConcurrency(t *testing.T) {
	assert := assert.New(t)

	serverConfig := ServerConfig{
		Concurrency: "this is not a concurrency mode",
	}

	server, err := serverConfig.NewServer(helloHandler())
	assert.Nil(server)
	assert.Error(err)
}

func testServerConfigTLS(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	certificate, err := hservetls.CreateTestCertificate(&x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "config test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	})
	require.NoError(err)

	certificateFile, keyFile, err := hservetls.CreateTestServerFiles(certificate)
	require.NoError(err)
	defer os.Remove(certificateFile)
	defer os.Remove(keyFile)

	serverConfig := ServerConfig{
		Address: ":0",
		TLS: &hservetls.Config{
			Certificates: hservetls.ExternalCertificates{
				{
					CertificateFile: certificateFile,
					KeyFile:         keyFile,
				},
			},
		},
	}

	server, err := serverConfig.NewServer(helloHandler())
	require.NoError(err)
	require.NotNil(server)
	assert.NotNil(server.TLSConfig)
}

func testServerConfigBadTLS(t *testing.T) {
	assert := assert.New(t)

	serverConfig := ServerConfig{
		TLS: &hservetls.Config{
			Certificates: hservetls.ExternalCertificates{
				{
					CertificateFile: "nosuch.cert",
					KeyFile:         "nosuch.key",
				},
			},
		},
	}

	server, err := serverConfig.NewServer(helloHandler())
	assert.Nil(server)
	assert.Error(err)
}

func testServerConfigListen(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		serverConfig = ServerConfig{
			Address:   ":0",
			KeepAlive: time.Minute,
		}
	)

	server, err := serverConfig.NewServer(helloHandler())
	require.NoError(err)

	listener, err := serverConfig.Listen(context.Background(), server)
	require.NoError(err)
	require.NotNil(listener)
	assert.NotNil(listener.Addr())
	listener.Close()
}

func TestServerConfig(t *testing.T) {
	t.Run("Basic", testServerConfigBasic)
	t.Run("Pool", testServerConfigPool)
	t.Run("BadConcurrency", testServerConfigBadConcurrency)
	t.Run("TLS", testServerConfigTLS)
	t.Run("BadTLS", testServerConfigBadTLS)
	t.Run("Listen", testServerConfigListen)
}
