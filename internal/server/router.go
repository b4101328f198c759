package server

import "net/http"

// NewRouter wires HTTP routes to the server's handlers.
func NewRouter(s *Server) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/validate", s.handleValidate)
	mux.HandleFunc("/manifest", s.handleManifest)
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/artifacts/", s.handleArtifacts)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/openapi.yaml", s.handleOpenAPI)
	return mux
}
