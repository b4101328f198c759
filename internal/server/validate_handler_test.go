package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// sampleEDID is a conformant single block 1.4 image: Dell vendor code,
// 1080p preferred DTD, display name and a serial string.
func sampleEDID(t *testing.T) []byte {
	t.Helper()
	b := make([]byte, 128)
	copy(b, []byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00})
	b[8], b[9] = 0x10, 0xac
	b[10], b[11] = 0x34, 0x12
	b[12], b[13], b[14], b[15] = 0x78, 0x56, 0x34, 0x12
	b[16], b[17] = 2, 30
	b[18], b[19] = 1, 4
	b[20] = 0xb5
	b[21], b[22] = 0x3c, 0x22
	b[23] = 0x78
	b[24] = 0x0a
	b[35] = 0x20
	for i := 38; i < 54; i += 2 {
		b[i], b[i+1] = 0x01, 0x01
	}
	dtd := []byte{
		0x02, 0x3a, 0x80, 0x18, 0x71, 0x38, 0x2d, 0x40, 0x58, 0x2c,
		0x45, 0x00, 0xfe, 0x1f, 0x11, 0x00, 0x00, 0x1e,
	}
	copy(b[54:72], dtd)
	name := make([]byte, 18)
	name[3] = 0xfc
	copy(name[5:], "PANEL 27")
	name[13] = 0x0a
	for i := 14; i < 18; i++ {
		name[i] = 0x20
	}
	copy(b[72:90], name)
	limits := make([]byte, 18)
	limits[3] = 0xfd
	limits[5], limits[6] = 50, 75
	limits[7], limits[8] = 30, 85
	limits[9] = 25
	limits[10] = 0x01
	limits[11] = 0x0a
	for i := 12; i < 18; i++ {
		limits[i] = 0x20
	}
	copy(b[90:108], limits)
	serial := make([]byte, 18)
	serial[3] = 0xff
	copy(serial[5:], "SN5678")
	serial[11] = 0x0a
	for i := 12; i < 18; i++ {
		serial[i] = 0x20
	}
	copy(b[108:126], serial)
	var sum byte
	for _, v := range b[:127] {
		sum += v
	}
	b[127] = -sum
	return b
}

func writeSampleEDID(t *testing.T, path string, conformant bool) {
	t.Helper()
	b := sampleEDID(t)
	if !conformant {
		b[127]++
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := NewServer(Options{StorageDir: filepath.Join(t.TempDir(), "storage")})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { srv.Close() })
	ts := httptest.NewServer(NewRouter(srv))
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestHandleValidateJSON(t *testing.T) {
	tmp := t.TempDir()
	goodPath := filepath.Join(tmp, "good.bin")
	badPath := filepath.Join(tmp, "bad.bin")
	writeSampleEDID(t, goodPath, true)
	writeSampleEDID(t, badPath, false)

	_, ts := newTestServer(t)

	payload, _ := json.Marshal(map[string]any{"inputs": []string{goodPath, badPath}})
	resp, err := http.Post(ts.URL+"/validate", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /validate: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("/validate status %d: %s", resp.StatusCode, string(body))
	}
	var out ValidateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(out.Results))
	}
	if out.Conformant {
		t.Fatalf("aggregate conformant despite bad input")
	}
	if out.Failures == 0 {
		t.Fatalf("expected failure count from bad input")
	}
	good, bad := out.Results[0], out.Results[1]
	if good.Source != "good.bin" || bad.Source != "bad.bin" {
		t.Fatalf("result order mismatch: %q, %q", good.Source, bad.Source)
	}
	if !good.Conformant {
		t.Fatalf("good image not conformant: %+v", good.Report)
	}
	if bad.Conformant {
		t.Fatalf("bad image reported conformant")
	}
	if len(good.Artifacts) != 4 {
		t.Fatalf("artifacts = %d, want 4", len(good.Artifacts))
	}

	var pdfID, findingsID string
	for _, art := range good.Artifacts {
		switch {
		case strings.HasSuffix(art.Name, ".report.pdf"):
			pdfID = art.ID
		case strings.HasSuffix(art.Name, ".findings.ndjson"):
			findingsID = art.ID
		}
	}
	if pdfID == "" || findingsID == "" {
		t.Fatalf("missing expected artifacts: %+v", good.Artifacts)
	}
	pdfResp, err := http.Get(ts.URL + "/artifacts/" + pdfID)
	if err != nil {
		t.Fatalf("download pdf: %v", err)
	}
	defer pdfResp.Body.Close()
	pdfBytes, err := io.ReadAll(pdfResp.Body)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		t.Fatalf("pdf artifact does not start with %%PDF")
	}

	var badFindingsID string
	for _, art := range bad.Artifacts {
		if strings.HasSuffix(art.Name, ".findings.ndjson") {
			badFindingsID = art.ID
		}
	}
	if badFindingsID == "" {
		t.Fatalf("missing findings artifact: %+v", bad.Artifacts)
	}
	fResp, err := http.Get(ts.URL + "/artifacts/" + badFindingsID)
	if err != nil {
		t.Fatalf("download findings: %v", err)
	}
	defer fResp.Body.Close()
	fBytes, err := io.ReadAll(fResp.Body)
	if err != nil {
		t.Fatalf("read findings: %v", err)
	}
	if !bytes.Contains(fBytes, []byte("checksum")) {
		t.Fatalf("findings artifact missing checksum finding: %s", fBytes)
	}
}

func TestHandleValidateStream(t *testing.T) {
	tmp := t.TempDir()
	badPath := filepath.Join(tmp, "bad.bin")
	writeSampleEDID(t, badPath, false)

	_, ts := newTestServer(t)

	payload, _ := json.Marshal(map[string]any{"inputs": []string{badPath}})
	resp, err := http.Post(ts.URL+"/validate?stream=true", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /validate?stream=true: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("stream status %d: %s", resp.StatusCode, string(body))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/x-ndjson" {
		t.Fatalf("content type = %q, want application/x-ndjson", ct)
	}

	var lines []map[string]any
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			t.Fatalf("line %q: %v", line, err)
		}
		lines = append(lines, obj)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan stream: %v", err)
	}
	if len(lines) < 3 {
		t.Fatalf("expected findings, result and summary records, got %d lines", len(lines))
	}

	var sawFinding, sawResult bool
	for _, obj := range lines[:len(lines)-1] {
		switch obj["type"] {
		case "result":
			sawResult = true
			if obj["source"] != "bad.bin" {
				t.Fatalf("result source = %v", obj["source"])
			}
			if obj["conformant"] != false {
				t.Fatalf("result conformant = %v", obj["conformant"])
			}
		case nil:
			if obj["severity"] == "FAIL" {
				sawFinding = true
			}
		}
	}
	if !sawFinding {
		t.Fatalf("no FAIL finding records in stream")
	}
	if !sawResult {
		t.Fatalf("no result record in stream")
	}
	last := lines[len(lines)-1]
	if last["type"] != "summary" {
		t.Fatalf("last record type = %v, want summary", last["type"])
	}
	if last["conformant"] != false {
		t.Fatalf("summary conformant = %v, want false", last["conformant"])
	}
}

func TestHandleValidateMultipart(t *testing.T) {
	_, ts := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "panel.bin")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(sampleEDID(t)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.WriteField("language", "tr"); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	resp, err := http.Post(ts.URL+"/validate", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST /validate multipart: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("multipart status %d: %s", resp.StatusCode, string(raw))
	}
	var out ValidateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out.Results) != 1 {
		t.Fatalf("results = %d, want 1", len(out.Results))
	}
	res := out.Results[0]
	if res.Source != "panel.bin" {
		t.Fatalf("source = %q, want panel.bin", res.Source)
	}
	if !res.Conformant {
		t.Fatalf("uploaded image not conformant: %+v", res.Report)
	}

	var textID string
	for _, art := range res.Artifacts {
		if art.Name == "panel.report.txt" {
			textID = art.ID
		}
	}
	if textID == "" {
		t.Fatalf("missing text artifact: %+v", res.Artifacts)
	}
	tResp, err := http.Get(ts.URL + "/artifacts/" + textID)
	if err != nil {
		t.Fatalf("download text report: %v", err)
	}
	defer tResp.Body.Close()
	text, err := io.ReadAll(tResp.Body)
	if err != nil {
		t.Fatalf("read text report: %v", err)
	}
	if !strings.Contains(string(text), "UYGUN") {
		t.Fatalf("text report not rendered in requested language:\n%s", text)
	}
}

func TestHandleValidateBadRequest(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/validate", "application/json", strings.NewReader(`{"inputs":[]}`))
	if err != nil {
		t.Fatalf("POST /validate: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty inputs status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	resp, err = http.Post(ts.URL+"/validate", "application/json", strings.NewReader(`{"inputs":["/nonexistent/panel.bin"]}`))
	if err != nil {
		t.Fatalf("POST /validate: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing input status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	resp, err = http.Get(ts.URL + "/validate")
	if err != nil {
		t.Fatalf("GET /validate: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestHandleUploadThenValidateByID(t *testing.T) {
	_, ts := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "monitor.edid")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(sampleEDID(t)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	resp, err := http.Post(ts.URL+"/upload", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST /upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("upload status %d: %s", resp.StatusCode, string(raw))
	}
	var uploaded struct {
		Files []ArtifactRef `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if len(uploaded.Files) != 1 {
		t.Fatalf("uploaded files = %d, want 1", len(uploaded.Files))
	}
	ref := uploaded.Files[0]
	if ref.Name != "monitor.edid" || ref.Kind != "upload" {
		t.Fatalf("unexpected upload ref: %+v", ref)
	}

	payload, _ := json.Marshal(map[string]any{"inputs": []string{ref.ID}})
	vResp, err := http.Post(ts.URL+"/validate", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /validate: %v", err)
	}
	defer vResp.Body.Close()
	if vResp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(vResp.Body)
		t.Fatalf("validate status %d: %s", vResp.StatusCode, string(raw))
	}
	var out ValidateResponse
	if err := json.NewDecoder(vResp.Body).Decode(&out); err != nil {
		t.Fatalf("decode validate response: %v", err)
	}
	if len(out.Results) != 1 || out.Results[0].Source != "monitor.edid" {
		t.Fatalf("unexpected results: %+v", out.Results)
	}
	if !out.Conformant {
		t.Fatalf("uploaded image not conformant")
	}
}

func TestHandleHealthz(t *testing.T) {
	tmp := t.TempDir()
	goodPath := filepath.Join(tmp, "good.bin")
	writeSampleEDID(t, goodPath, true)

	_, ts := newTestServer(t)

	payload, _ := json.Marshal(map[string]any{"inputs": []string{goodPath}})
	resp, err := http.Post(ts.URL+"/validate", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /validate: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	hResp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer hResp.Body.Close()
	if hResp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", hResp.StatusCode)
	}
	var health struct {
		Status    string `json:"status"`
		Files     int64  `json:"files"`
		Blocks    int64  `json:"blocks"`
		Artifacts int    `json:"artifacts"`
	}
	if err := json.NewDecoder(hResp.Body).Decode(&health); err != nil {
		t.Fatalf("decode healthz: %v", err)
	}
	if health.Status != "ok" {
		t.Fatalf("status = %q, want ok", health.Status)
	}
	if health.Files != 1 || health.Blocks != 1 {
		t.Fatalf("counters files=%d blocks=%d, want 1/1", health.Files, health.Blocks)
	}
	if health.Artifacts != 4 {
		t.Fatalf("artifacts = %d, want 4", health.Artifacts)
	}
}

func TestHandleOpenAPI(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/openapi.yaml")
	if err != nil {
		t.Fatalf("GET /openapi.yaml: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("openapi status = %d", resp.StatusCode)
	}
	doc, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read openapi: %v", err)
	}
	for _, want := range []string{"openapi:", "/validate", "/manifest", "/healthz"} {
		if !strings.Contains(string(doc), want) {
			t.Fatalf("openapi document missing %q", want)
		}
	}
}
