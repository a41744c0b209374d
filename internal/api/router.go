package api

import "net/http"

func NewRouter(handler *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/sessions", handler.StartSession)
	mux.HandleFunc("GET /v1/sessions", handler.ListSessions)
	mux.HandleFunc("GET /v1/sessions/{id}", handler.GetSession)
	mux.HandleFunc("POST /v1/sessions/{id}/turns", handler.SubmitTurn)
	mux.HandleFunc("POST /v1/sessions/{id}/frames", handler.AnalyzeFrame)
	mux.HandleFunc("POST /v1/sessions/{id}/recording", handler.AttachRecording)
	mux.HandleFunc("GET /healthz", handler.Health)

	return mux
}
