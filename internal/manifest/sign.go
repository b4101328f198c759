package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"example.com/edidgate/internal/crypto"
)

// SignFile signs the exact bytes of a saved manifest with a PEM private key
// and writes the detached JWS to out. Signing the file rather than the
// in-memory struct keeps the signature valid for the artifact a recipient
// actually downloads.
func SignFile(manifestPath, keyPath, out string) error {
	payload, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}
	jws, err := crypto.SignDetachedJWS(payload, key)
	if err != nil {
		return fmt.Errorf("sign manifest: %w", err)
	}
	b, err := json.MarshalIndent(jws, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

// VerifyFile checks a detached JWS against the manifest bytes and the signer
// certificate.
func VerifyFile(manifestPath, jwsPath, certPath string) error {
	payload, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	sig, err := os.ReadFile(jwsPath)
	if err != nil {
		return fmt.Errorf("read signature: %w", err)
	}
	cert, err := os.ReadFile(certPath)
	if err != nil {
		return fmt.Errorf("read certificate: %w", err)
	}
	jws, err := crypto.ParseDetachedJWS(sig)
	if err != nil {
		return fmt.Errorf("parse signature: %w", err)
	}
	if err := crypto.VerifyDetachedJWS(payload, jws, cert); err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}
	return nil
}
