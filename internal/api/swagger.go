package api

import (
	_ "embed"
	"net/http"
)

// swaggerDoc is the OpenAPI description of the /api/v1 routes. It is kept in
// step with the godoc annotations on the handlers.
//
//go:embed swagger.json
var swaggerDoc []byte

func serveSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(swaggerDoc)
}
