package manifest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestBuildAndVerify(t *testing.T) {
	dir := t.TempDir()
	edid := writeFile(t, dir, "monitor.bin", []byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00})
	rep := writeFile(t, dir, "report.json", []byte(`{"ok":true}`))

	m, err := Build([]string{edid, rep})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(m.Items))
	}
	if m.Items[0].Kind != "edid" || m.Items[1].Kind != "report" {
		t.Fatalf("kinds = %s, %s", m.Items[0].Kind, m.Items[1].Kind)
	}
	if m.Items[0].Size != 8 {
		t.Fatalf("size = %d, want 8", m.Items[0].Size)
	}
	if m.ShaAlgo != "sha256" {
		t.Fatalf("shaAlgo = %q, want sha256", m.ShaAlgo)
	}
	if err := Verify(m, ""); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if err := os.WriteFile(edid, []byte{0x01}, 0644); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	if err := Verify(m, ""); err == nil || !strings.Contains(err.Error(), "mismatch") {
		t.Fatalf("Verify after tamper = %v, want mismatch", err)
	}
}

func TestKindForPath(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"a/b/c.edid", "edid"},
		{"capture.BIN", "edid"},
		{"dump.hex", "hex"},
		{"report.json", "report"},
		{"findings.ndjson", "findings"},
		{"report.pdf", "pdf"},
		{"digest.png", "image"},
		{"notes.txt", "other"},
	}
	for _, c := range cases {
		if got := KindForPath(c.path); got != c.want {
			t.Fatalf("KindForPath(%s) = %s, want %s", c.path, got, c.want)
		}
	}
}

func TestSaveLoadDigest(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "input.edid", make([]byte, 128))
	m, err := Build([]string{in})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	out := filepath.Join(dir, "manifest.json")
	if err := Save(m, out); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Sha256 != m.Items[0].Sha256 {
		t.Fatalf("round trip lost items: %+v", got.Items)
	}
	if got.Digest() != m.Digest() {
		t.Fatalf("digest = %s, want %s", got.Digest(), m.Digest())
	}
}

func TestBuildDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.bin", []byte{1})
	writeFile(t, dir, "a.json", []byte{2})
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, sub, "c.pdf", []byte{3})

	m, err := BuildDir(dir)
	if err != nil {
		t.Fatalf("BuildDir: %v", err)
	}
	if len(m.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(m.Items))
	}
	if !strings.HasSuffix(m.Items[0].Path, "a.json") {
		t.Fatalf("items not sorted: %+v", m.Items)
	}
	if m.Items[0].Kind != "report" || m.Items[1].Kind != "edid" || m.Items[2].Kind != "pdf" {
		t.Fatalf("kinds = %s, %s, %s", m.Items[0].Kind, m.Items[1].Kind, m.Items[2].Kind)
	}
}

func TestSignAndVerifyFile(t *testing.T) {
	dir := t.TempDir()
	keyPEM, certPEM := testSigner(t)
	keyPath := writeFile(t, dir, "signer.key", keyPEM)
	certPath := writeFile(t, dir, "signer.pem", certPEM)
	input := writeFile(t, dir, "input.edid", []byte("edid bytes"))

	m, err := Build([]string{input})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	manifestPath := filepath.Join(dir, "manifest.json")
	if err := Save(m, manifestPath); err != nil {
		t.Fatalf("Save: %v", err)
	}
	jwsPath := filepath.Join(dir, "manifest.jws")
	if err := SignFile(manifestPath, keyPath, jwsPath); err != nil {
		t.Fatalf("SignFile: %v", err)
	}
	if err := VerifyFile(manifestPath, jwsPath, certPath); err != nil {
		t.Fatalf("VerifyFile: %v", err)
	}

	if err := os.WriteFile(manifestPath, []byte(`{"shaAlgo":"sha256"}`), 0644); err != nil {
		t.Fatalf("rewrite manifest: %v", err)
	}
	if err := VerifyFile(manifestPath, jwsPath, certPath); err == nil {
		t.Fatalf("VerifyFile accepted an altered manifest")
	}
}

func testSigner(t *testing.T) ([]byte, []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	now := time.Now().UTC()
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Test Manifest Signer"},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	return keyPEM, certPEM
}
