// Package crypto signs and verifies detached JWS envelopes over manifest
// bytes. RS256 only; the verifier takes the signer's certificate, not a bare
// public key, so deployments can distribute one trusted PEM.
package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
)

// JWS is the JSON serialization of one signature.
type JWS struct {
	Protected string `json:"protected"`
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

// SignDetachedJWS signs the payload with an RSA private key in PKCS#1 PEM
// form. The payload is embedded, so the result verifies standalone or
// against the original bytes.
func SignDetachedJWS(payload []byte, privateKeyPEM []byte) (JWS, error) {
	hdr := map[string]any{
		"alg": "RS256",
		"typ": "JWT",
	}
	hb, _ := json.Marshal(hdr)
	protected := base64.RawURLEncoding.EncodeToString(hb)
	pl := base64.RawURLEncoding.EncodeToString(payload)

	priv, err := parseRSAPrivateKey(privateKeyPEM)
	if err != nil {
		return JWS{}, err
	}

	signingInput := protected + "." + pl
	h := sha256.Sum256([]byte(signingInput))
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, h[:])
	if err != nil {
		return JWS{}, err
	}

	return JWS{
		Protected: protected,
		Payload:   pl,
		Signature: base64.RawURLEncoding.EncodeToString(sig),
	}, nil
}

// ParseDetachedJWS decodes the JSON serialization of a JWS.
func ParseDetachedJWS(data []byte) (JWS, error) {
	var jws JWS
	if err := json.Unmarshal(data, &jws); err != nil {
		return JWS{}, err
	}
	if jws.Protected == "" || jws.Signature == "" {
		return JWS{}, errors.New("incomplete jws")
	}
	return jws, nil
}

// VerifyDetachedJWS checks the signature over payload against the signer
// certificate. When the JWS embeds a payload it must match the given bytes.
func VerifyDetachedJWS(payload []byte, jws JWS, certPEM []byte) error {
	pl := base64.RawURLEncoding.EncodeToString(payload)
	if jws.Payload != "" && jws.Payload != pl {
		return errors.New("jws payload does not match the given bytes")
	}
	hb, err := base64.RawURLEncoding.DecodeString(jws.Protected)
	if err != nil {
		return fmt.Errorf("protected header: %w", err)
	}
	var hdr struct {
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(hb, &hdr); err != nil {
		return fmt.Errorf("protected header: %w", err)
	}
	if hdr.Alg != "RS256" {
		return fmt.Errorf("unsupported algorithm %q", hdr.Alg)
	}
	sig, err := base64.RawURLEncoding.DecodeString(jws.Signature)
	if err != nil {
		return fmt.Errorf("signature: %w", err)
	}
	pub, err := certificateKey(certPEM)
	if err != nil {
		return err
	}
	signingInput := jws.Protected + "." + pl
	h := sha256.Sum256([]byte(signingInput))
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, h[:], sig); err != nil {
		return errors.New("signature mismatch")
	}
	return nil
}

// SignerName returns the certificate subject's common name.
func SignerName(certPEM []byte) (string, error) {
	cert, err := parseCertificate(certPEM)
	if err != nil {
		return "", err
	}
	return cert.Subject.CommonName, nil
}

func parseRSAPrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no pem block")
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	return key, nil
}

func parseCertificate(pemBytes []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no pem block")
	}
	return x509.ParseCertificate(block.Bytes)
}

func certificateKey(certPEM []byte) (*rsa.PublicKey, error) {
	cert, err := parseCertificate(certPEM)
	if err != nil {
		return nil, err
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("certificate key is not RSA")
	}
	return pub, nil
}
