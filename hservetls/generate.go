package hservetls

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
)

// CreateTestCertificate creates a self-signed x509 certificate for use in
// testing TLS code.  An RSA key pair is used, and otherwise all defaults are
// taken from the template.
func CreateTestCertificate(template *x509.Certificate) (*tls.Certificate, error) {
	var (
		key      *rsa.PrivateKey
		derBytes []byte
		err      error
	)

	key, err = rsa.GenerateKey(rand.Reader, 2048)
	if err == nil {
		derBytes, err = x509.CreateCertificate(
			rand.Reader,
			template,
			template,
			&key.PublicKey,
			key,
		)
	}

	return &tls.Certificate{
		Certificate: [][]byte{derBytes},
		PrivateKey:  key,
	}, err
}

// CreateTestServerFiles writes the certificate and key to temporary PEM
// files, returning their names.  Callers are responsible for removing the
// files when done.
//
// The supplied certificate must have at least (1) []byte in its Certificate
// chain.  If it has more than (1) entry in its chain, only the first entry
// is written to the certificate file.
func CreateTestServerFiles(certificate *tls.Certificate) (certificateFileName, keyFileName string, err error) {
	var (
		certificateFile *os.File
		keyFile         *os.File
		keyBytes        []byte
	)

	certificateFile, err = os.CreateTemp("", "test-cert-*.pem")
	if err == nil {
		defer certificateFile.Close()
		keyFile, err = os.CreateTemp("", "test-key-*.pem")
	}

	if err == nil {
		defer keyFile.Close()
		err = pem.Encode(certificateFile, &pem.Block{
			Type:  "CERTIFICATE",
			Bytes: certificate.Certificate[0],
		})
	}

	if err == nil {
		keyBytes, err = x509.MarshalPKCS8PrivateKey(certificate.PrivateKey)
	}

	if err == nil {
		err = pem.Encode(keyFile, &pem.Block{
			Type:  "PRIVATE KEY",
			Bytes: keyBytes,
		})
	}

	if err == nil {
		certificateFileName = certificateFile.Name()
		keyFileName = keyFile.Name()
	}

	return
}
