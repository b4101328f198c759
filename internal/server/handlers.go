package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"example.com/edidgate/internal/common"
	"example.com/edidgate/internal/dict"
	"example.com/edidgate/internal/edid"
	"example.com/edidgate/internal/ledger"
	"example.com/edidgate/internal/manifest"
	"example.com/edidgate/internal/report"
)

// Server coordinates HTTP handlers and manages temporary artifacts produced by
// validation requests.
type Server struct {
	artifacts   *ArtifactStore
	workDir     string
	uploadsDir  string
	vendors     *dict.Store
	lang        report.Language
	signing     SigningOptions
	signerName  string
	concurrency int
	maxUpload   int64
	metrics     *common.Metrics
	started     time.Time
}

// Artifact represents a file generated or stored by the daemon.
type Artifact struct {
	ID          string
	Path        string
	Name        string
	ContentType string
	Size        int64
	Kind        string
}

// ArtifactRef is the public representation returned in API responses.
type ArtifactRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size,omitempty"`
	Kind        string `json:"kind,omitempty"`
}

// ArtifactStore keeps track of generated artifacts for later download.
type ArtifactStore struct {
	mu      sync.RWMutex
	entries map[string]Artifact
}

// validateInput pairs a resolved filesystem path with the display name
// findings and artifacts are labeled with. Uploads keep their original
// filename instead of the temp path they landed in.
type validateInput struct {
	path string
	name string
}

// ValidateResult is the outcome for a single validated input.
type ValidateResult struct {
	Source     string         `json:"source"`
	Conformant bool           `json:"conformant"`
	Report     *ledger.Report `json:"report,omitempty"`
	Artifacts  []ArtifactRef  `json:"artifacts,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// ValidateResponse aggregates the per-input results of one request.
type ValidateResponse struct {
	Results    []ValidateResult `json:"results"`
	Conformant bool             `json:"conformant"`
	Failures   int              `json:"failures"`
	Warnings   int              `json:"warnings"`
	Errors     int              `json:"errors"`
}

// NewServer constructs a Server rooted at a temporary workspace directory.
func NewServer(opts Options) (*Server, error) {
	storageDir := opts.StorageDir
	if storageDir == "" {
		storageDir = os.TempDir()
	}
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, err
	}
	workDir, err := os.MkdirTemp(storageDir, "edidd-")
	if err != nil {
		return nil, err
	}
	uploadsDir := filepath.Join(workDir, "uploads")
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		os.RemoveAll(workDir)
		return nil, err
	}
	vendors, err := dict.WithOverrides(opts.VendorDict)
	if err != nil {
		os.RemoveAll(workDir)
		return nil, fmt.Errorf("vendor dictionary: %w", err)
	}
	lang, err := report.ParseLanguage(opts.Language)
	if err != nil {
		os.RemoveAll(workDir)
		return nil, err
	}
	signerName, err := resolveSigner(opts.Signing)
	if err != nil {
		os.RemoveAll(workDir)
		return nil, err
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	metrics := common.NewMetrics()
	metrics.Start()
	s := &Server{
		artifacts:   &ArtifactStore{entries: make(map[string]Artifact)},
		workDir:     workDir,
		uploadsDir:  uploadsDir,
		vendors:     vendors,
		lang:        lang,
		signing:     opts.Signing,
		signerName:  signerName,
		concurrency: concurrency,
		maxUpload:   opts.maxUploadBytes(),
		metrics:     metrics,
		started:     time.Now(),
	}
	return s, nil
}

// Close removes any temporary state associated with the server.
func (s *Server) Close() error {
	if s == nil || s.workDir == "" {
		return nil
	}
	return os.RemoveAll(s.workDir)
}

func (s *Server) tempPath(pattern string) (string, error) {
	f, err := os.CreateTemp(s.workDir, pattern)
	if err != nil {
		return "", err
	}
	name := f.Name()
	f.Close()
	return name, nil
}

func (s *Server) addArtifact(path, displayName, contentType, kind string) (Artifact, error) {
	if path == "" {
		return Artifact{}, errors.New("empty path")
	}
	info, err := os.Stat(path)
	if err != nil {
		return Artifact{}, err
	}
	id := randomID()
	art := Artifact{
		ID:          id,
		Path:        path,
		Name:        displayName,
		ContentType: contentType,
		Size:        info.Size(),
		Kind:        kind,
	}
	if art.Name == "" {
		art.Name = filepath.Base(path)
	}
	if art.ContentType == "" {
		art.ContentType = guessContentType(art.Name)
	}
	s.artifacts.mu.Lock()
	s.artifacts.entries[id] = art
	s.artifacts.mu.Unlock()
	return art, nil
}

func (s *Server) getArtifact(id string) (Artifact, bool) {
	s.artifacts.mu.RLock()
	art, ok := s.artifacts.entries[id]
	s.artifacts.mu.RUnlock()
	return art, ok
}

func (s *Server) resolvePath(token string) (string, error) {
	if token == "" {
		return "", errors.New("empty input path")
	}
	if art, ok := s.getArtifact(token); ok {
		return art.Path, nil
	}
	abs := token
	if !filepath.IsAbs(token) {
		abs = filepath.Clean(token)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// resolveInput resolves a token the way resolvePath does and pairs the
// result with a display name: the artifact's original filename, or the
// base of the path.
func (s *Server) resolveInput(token string) (validateInput, error) {
	if art, ok := s.getArtifact(token); ok {
		return validateInput{path: art.Path, name: art.Name}, nil
	}
	path, err := s.resolvePath(token)
	if err != nil {
		return validateInput{}, err
	}
	return validateInput{path: path, name: filepath.Base(path)}, nil
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	stream := r.URL.Query().Get("stream") == "true"
	inputs, lang, err := s.validateInputs(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	tr := report.NewTranslator(lang)

	if stream {
		s.streamValidate(w, inputs, tr)
		return
	}

	results := make([]ValidateResult, len(inputs))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		go func(i int, in validateInput) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = s.validateOne(in, tr)
		}(i, in)
	}
	wg.Wait()
	writeJSON(w, http.StatusOK, summarize(results))
}

// validateInputs extracts resolved inputs and the requested report language
// from either a JSON body or a multipart upload.
func (s *Server) validateInputs(r *http.Request) ([]validateInput, report.Language, error) {
	lang := s.lang
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(s.maxUpload); err != nil {
			return nil, lang, fmt.Errorf("parse multipart: %v", err)
		}
		if v := r.FormValue("language"); v != "" {
			parsed, err := report.ParseLanguage(v)
			if err != nil {
				return nil, lang, err
			}
			lang = parsed
		}
		var inputs []validateInput
		if r.MultipartForm != nil {
			for _, files := range r.MultipartForm.File {
				for _, fh := range files {
					art, err := s.saveUploadedFile(fh)
					if err != nil {
						return nil, lang, fmt.Errorf("save upload %s: %v", fh.Filename, err)
					}
					inputs = append(inputs, validateInput{path: art.Path, name: art.Name})
				}
			}
		}
		if len(inputs) == 0 {
			return nil, lang, errors.New("no files provided")
		}
		return inputs, lang, nil
	}
	var req struct {
		Inputs   []string `json:"inputs"`
		Language string   `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, lang, fmt.Errorf("invalid json: %v", err)
	}
	if len(req.Inputs) == 0 {
		return nil, lang, errors.New("inputs required")
	}
	if req.Language != "" {
		parsed, err := report.ParseLanguage(req.Language)
		if err != nil {
			return nil, lang, err
		}
		lang = parsed
	}
	inputs := make([]validateInput, 0, len(req.Inputs))
	for _, in := range req.Inputs {
		resolved, err := s.resolveInput(in)
		if err != nil {
			return nil, lang, fmt.Errorf("input resolve %s: %v", in, err)
		}
		inputs = append(inputs, resolved)
	}
	return inputs, lang, nil
}

// validateOne decodes a single input and registers its report artifacts.
// Decode and render errors are reported in the result rather than failing
// the whole request.
func (s *Server) validateOne(in validateInput, tr report.Translator) ValidateResult {
	res := ValidateResult{Source: in.name}
	data, err := edid.LoadFile(in.path)
	if err != nil {
		common.Logf("validate %s: %v", in.name, err)
		res.Error = err.Error()
		return res
	}
	e, err := edid.DecodeNamed(data, in.name)
	if err != nil {
		common.Logf("validate %s: %v", in.name, err)
		res.Error = err.Error()
		return res
	}
	s.metrics.AddFile(int64(len(e.Raw)), len(e.Blocks))
	s.metrics.AddFindings(e.Report.Summary.Failures, e.Report.Summary.Warnings)
	res.Conformant = e.Conformant
	res.Report = &e.Report
	arts, err := s.reportArtifacts(e, res.Source, tr)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Artifacts = arts
	return res
}

// reportArtifacts renders the decoded image into the downloadable report
// formats and registers each one.
func (s *Server) reportArtifacts(e *edid.EDID, source string, tr report.Translator) ([]ArtifactRef, error) {
	stem := strings.TrimSuffix(source, filepath.Ext(source))
	if stem == "" {
		stem = "edid"
	}

	findingsPath, err := s.tempPath("findings-*.ndjson")
	if err != nil {
		return nil, err
	}
	ff, err := os.Create(findingsPath)
	if err != nil {
		return nil, err
	}
	err = report.WriteFindingsNDJSON(ff, e.Report.Findings)
	if cerr := ff.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("write findings: %v", err)
	}

	jsonPath, err := s.tempPath("conformance-*.json")
	if err != nil {
		return nil, err
	}
	if err := report.SaveConformanceJSON(e, jsonPath); err != nil {
		return nil, fmt.Errorf("write conformance: %v", err)
	}

	textPath, err := s.tempPath("report-*.txt")
	if err != nil {
		return nil, err
	}
	tf, err := os.Create(textPath)
	if err != nil {
		return nil, err
	}
	err = report.WriteText(tf, e, s.vendors, tr)
	if cerr := tf.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("write text report: %v", err)
	}

	pdfPath, err := s.tempPath("report-*.pdf")
	if err != nil {
		return nil, err
	}
	if err := report.SaveConformancePDF(e, pdfPath, s.vendors, tr); err != nil {
		return nil, fmt.Errorf("write pdf report: %v", err)
	}

	files := []struct {
		path        string
		name        string
		contentType string
		kind        string
	}{
		{findingsPath, stem + ".findings.ndjson", "application/x-ndjson", "findings"},
		{jsonPath, stem + ".conformance.json", "application/json", "conformance"},
		{textPath, stem + ".report.txt", "text/plain", "report"},
		{pdfPath, stem + ".report.pdf", "application/pdf", "report"},
	}
	refs := make([]ArtifactRef, 0, len(files))
	for _, spec := range files {
		art, err := s.addArtifact(spec.path, spec.name, spec.contentType, spec.kind)
		if err != nil {
			return nil, fmt.Errorf("register %s: %v", spec.name, err)
		}
		refs = append(refs, toRef(art))
	}
	return refs, nil
}

// streamValidate processes inputs in order, emitting each finding as its own
// NDJSON record followed by a result object per input and a closing summary.
func (s *Server) streamValidate(w http.ResponseWriter, inputs []validateInput, tr report.Translator) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	writer := NewNDJSONWriter(w)
	results := make([]ValidateResult, 0, len(inputs))
	for _, in := range inputs {
		res := s.validateOne(in, tr)
		if res.Report != nil {
			for _, f := range res.Report.Findings {
				if err := writer.WriteFinding(f); err != nil {
					return
				}
			}
		}
		line := struct {
			Type string `json:"type"`
			ValidateResult
		}{Type: "result", ValidateResult: res}
		if line.Report != nil {
			// Findings were already streamed above.
			trimmed := *line.Report
			trimmed.Findings = nil
			line.Report = &trimmed
		}
		if err := writer.WriteObject(line); err != nil {
			return
		}
		results = append(results, res)
	}
	agg := summarize(results)
	_ = writer.WriteObject(struct {
		Type       string `json:"type"`
		Inputs     int    `json:"inputs"`
		Conformant bool   `json:"conformant"`
		Failures   int    `json:"failures"`
		Warnings   int    `json:"warnings"`
		Errors     int    `json:"errors"`
	}{
		Type:       "summary",
		Inputs:     len(results),
		Conformant: agg.Conformant,
		Failures:   agg.Failures,
		Warnings:   agg.Warnings,
		Errors:     agg.Errors,
	})
}

func summarize(results []ValidateResult) ValidateResponse {
	resp := ValidateResponse{Results: results, Conformant: true}
	for _, res := range results {
		if res.Error != "" {
			resp.Errors++
			resp.Conformant = false
			continue
		}
		if !res.Conformant {
			resp.Conformant = false
		}
		if res.Report != nil {
			resp.Failures += res.Report.Summary.Failures
			resp.Warnings += res.Report.Summary.Warnings
		}
	}
	return resp
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Inputs  []string `json:"inputs"`
		ShaAlgo string   `json:"shaAlgo"`
		Sign    bool     `json:"sign"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Inputs) == 0 {
		http.Error(w, "inputs required", http.StatusBadRequest)
		return
	}
	if req.ShaAlgo == "" {
		req.ShaAlgo = "sha256"
	}
	if !strings.EqualFold(req.ShaAlgo, "sha256") {
		http.Error(w, "only sha256 supported", http.StatusBadRequest)
		return
	}
	if req.Sign && !s.signing.Enabled() {
		http.Error(w, "manifest signing is not configured", http.StatusBadRequest)
		return
	}
	var paths []string
	for _, in := range req.Inputs {
		resolved, err := s.resolvePath(in)
		if err != nil {
			http.Error(w, fmt.Sprintf("resolve %s: %v", in, err), http.StatusBadRequest)
			return
		}
		paths = append(paths, resolved)
	}
	m, err := manifest.Build(paths)
	if err != nil {
		http.Error(w, fmt.Sprintf("build manifest: %v", err), http.StatusInternalServerError)
		return
	}
	if req.Sign {
		m.Signature = &manifest.Signature{
			Algorithm: "RS256",
			Signer:    s.signerName,
			SignedAt:  time.Now().UTC(),
		}
	}
	outPath, err := s.tempPath("manifest-*.json")
	if err != nil {
		http.Error(w, fmt.Sprintf("manifest temp: %v", err), http.StatusInternalServerError)
		return
	}
	if err := manifest.Save(m, outPath); err != nil {
		http.Error(w, fmt.Sprintf("write manifest: %v", err), http.StatusInternalServerError)
		return
	}
	art, err := s.addArtifact(outPath, "manifest.json", "application/json", "manifest")
	if err != nil {
		http.Error(w, fmt.Sprintf("register manifest: %v", err), http.StatusInternalServerError)
		return
	}
	resp := struct {
		Manifest          manifest.Manifest `json:"manifest"`
		ManifestArtifact  ArtifactRef       `json:"manifestArtifact"`
		SignatureArtifact *ArtifactRef      `json:"signatureArtifact,omitempty"`
	}{
		Manifest:         m,
		ManifestArtifact: toRef(art),
	}
	if req.Sign {
		jwsPath, err := s.tempPath("manifest-*.jws")
		if err != nil {
			http.Error(w, fmt.Sprintf("signature temp: %v", err), http.StatusInternalServerError)
			return
		}
		if err := manifest.SignFile(outPath, s.signing.PrivateKeyPath, jwsPath); err != nil {
			http.Error(w, fmt.Sprintf("sign manifest: %v", err), http.StatusInternalServerError)
			return
		}
		sigArt, err := s.addArtifact(jwsPath, "manifest.jws", "application/json", "signature")
		if err != nil {
			http.Error(w, fmt.Sprintf("register signature: %v", err), http.StatusInternalServerError)
			return
		}
		ref := toRef(sigArt)
		resp.SignatureArtifact = &ref
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap := s.metrics.Snapshot()
	writeJSON(w, http.StatusOK, struct {
		Status    string `json:"status"`
		Uptime    string `json:"uptime"`
		Files     int64  `json:"files"`
		Blocks    int64  `json:"blocks"`
		Failures  int64  `json:"failures"`
		Warnings  int64  `json:"warnings"`
		Artifacts int    `json:"artifacts"`
	}{
		Status:    "ok",
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Files:     snap.Files,
		Blocks:    snap.Blocks,
		Failures:  snap.Failures,
		Warnings:  snap.Warnings,
		Artifacts: len(s.listArtifacts()),
	})
}

// handleArtifacts serves the artifact listing at the bare prefix and
// downloads at /artifacts/{id}.
func (s *Server) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/artifacts/")
	if id == "" {
		writeJSON(w, http.StatusOK, struct {
			Artifacts []ArtifactRef `json:"artifacts"`
		}{Artifacts: s.listArtifacts()})
		return
	}
	art, ok := s.getArtifact(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	f, err := os.Open(art.Path)
	if err != nil {
		http.Error(w, fmt.Sprintf("open artifact: %v", err), http.StatusInternalServerError)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		http.Error(w, fmt.Sprintf("stat artifact: %v", err), http.StatusInternalServerError)
		return
	}
	if art.ContentType != "" {
		w.Header().Set("Content-Type", art.ContentType)
	}
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	disposition := fmt.Sprintf("attachment; filename=\"%s\"", art.Name)
	w.Header().Set("Content-Disposition", disposition)
	io.Copy(w, f)
}

func toRef(art Artifact) ArtifactRef {
	return ArtifactRef{
		ID:          art.ID,
		Name:        art.Name,
		ContentType: art.ContentType,
		Size:        art.Size,
		Kind:        art.Kind,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func guessContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".json":
		return "application/json"
	case ".yaml", ".yml":
		return "application/yaml"
	case ".ndjson":
		return "application/x-ndjson"
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".hex", ".txt":
		return "text/plain"
	case ".bin", ".edid":
		return "application/octet-stream"
	default:
		return "application/octet-stream"
	}
}

func randomID() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		now := time.Now().UTC()
		return fmt.Sprintf("%d%06d", now.UnixNano(), os.Getpid())
	}
	return hex.EncodeToString(b[:])
}

func (s *Server) listArtifacts() []ArtifactRef {
	s.artifacts.mu.RLock()
	refs := make([]ArtifactRef, 0, len(s.artifacts.entries))
	for _, art := range s.artifacts.entries {
		refs = append(refs, toRef(art))
	}
	s.artifacts.mu.RUnlock()
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs
}
