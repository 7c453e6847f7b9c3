package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter creates and configures a new chi router with all the application's routes.
func NewRouter(chatHandler *ChatHandler, exportHandler *ExportHandler, hub *Hub) *chi.Mux {
	r := chi.NewRouter()

	// --- Global Middleware ---
	r.Use(middleware.RequestID) // Injects a unique request ID into the context.
	r.Use(middleware.RealIP)    // Sets the remote address to the real IP from proxy headers.
	r.Use(middleware.Logger)    // Logs the start and end of each request with useful info.
	r.Use(middleware.Recoverer) // Recovers from panics and returns a 500 error.

	// Serves the Swagger UI over the embedded API description.
	r.Get("/api/swagger/doc.json", serveSwaggerDoc)
	r.Get("/api/swagger/*", httpSwagger.Handler(httpSwagger.URL("/api/swagger/doc.json")))

	// A simple health check endpoint.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// --- API Version 1 Routes ---
	r.Route("/api/v1", func(r chi.Router) {

		// Standard JSON routes get a request timeout so a stuck backend call
		// cannot hold the connection forever.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			// --- Sessions ---
			r.Get("/sessions", chatHandler.GetSessions)
			r.Post("/sessions", chatHandler.CreateSession)
			r.Post("/sessions/{sessionID}/select", chatHandler.SelectSession)
			r.Put("/sessions/{sessionID}/title", chatHandler.UpdateSessionTitle)
			r.Post("/sessions/{sessionID}/clear", chatHandler.ClearSession)

			// --- Turns ---
			r.Post("/turns", chatHandler.HandleSendMessage)
			r.Get("/sessions/{sessionID}/turn", chatHandler.GetActiveTurn)
			r.Delete("/sessions/{sessionID}/turn", chatHandler.HandleAbortTurn)

			// --- One-shot drafting ---
			r.Post("/generate", chatHandler.HandleGenerate)
			r.Get("/generate", chatHandler.GetDraftTurn)
			r.Delete("/generate", chatHandler.HandleAbortDraft)

			// --- Conversation & export ---
			r.Get("/conversation", chatHandler.GetConversation)
			r.Get("/document", chatHandler.GetDocument)
			r.Post("/document/copy", exportHandler.HandleCopy)
			r.Post("/document/download", exportHandler.HandleDownload)
			r.Get("/downloads", exportHandler.GetDownloads)
		})

		// The event stream holds its connection open and must NOT have a timeout.
		r.Get("/events", hub.ServeHTTP)
	})

	return r
}
