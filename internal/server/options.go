package server

import (
	"errors"
	"fmt"
	"os"

	"example.com/edidgate/internal/crypto"
)

// SigningOptions names the RSA key pair used to sign generated manifests.
// Both paths must be set for signing to be available.
type SigningOptions struct {
	PrivateKeyPath  string
	CertificatePath string
}

// Enabled reports whether a complete key pair has been configured.
func (o SigningOptions) Enabled() bool {
	return o.PrivateKeyPath != "" && o.CertificatePath != ""
}

// Options configures server creation.
type Options struct {
	// StorageDir roots the per-instance workspace. Defaults to the
	// system temp directory.
	StorageDir string

	// VendorDict points at an optional JSON file extending the built-in
	// PNP and OUI vendor tables.
	VendorDict string

	// Language selects the default report language for responses that
	// do not request one.
	Language string

	Signing SigningOptions

	// Concurrency bounds how many inputs a single validate request
	// decodes in parallel. Defaults to the CPU count.
	Concurrency int

	// MaxUploadMB caps multipart request bodies. Defaults to 64.
	MaxUploadMB int
}

const defaultMaxUploadMB = 64

func (o Options) maxUploadBytes() int64 {
	mb := o.MaxUploadMB
	if mb <= 0 {
		mb = defaultMaxUploadMB
	}
	return int64(mb) << 20
}

// resolveSigner validates the configured key pair and returns the
// certificate subject stamped into signed manifests. An empty pair is
// fine; a half-configured one is not.
func resolveSigner(opts SigningOptions) (string, error) {
	if !opts.Enabled() {
		if opts.PrivateKeyPath != "" || opts.CertificatePath != "" {
			return "", errors.New("manifest signing needs both a private key and a certificate")
		}
		return "", nil
	}
	if _, err := os.Stat(opts.PrivateKeyPath); err != nil {
		return "", fmt.Errorf("signing key: %w", err)
	}
	certPEM, err := os.ReadFile(opts.CertificatePath)
	if err != nil {
		return "", fmt.Errorf("signing certificate: %w", err)
	}
	name, err := crypto.SignerName(certPEM)
	if err != nil {
		return "", fmt.Errorf("signing certificate %s: %w", opts.CertificatePath, err)
	}
	return name, nil
}
