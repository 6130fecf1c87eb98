package server

import (
	"crypto/tls"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/negroni"
	"golang.org/x/crypto/acme/autocert"

	"github.com/serisow/knowbase/config"
	"github.com/serisow/knowbase/handlers"
	"github.com/serisow/knowbase/knowledge"
	"github.com/serisow/knowbase/services/chat_service"
	"github.com/serisow/knowbase/services/upload_service"
)

func SetupRoutes(
	state *knowledge.AppState,
	settings *config.Settings,
	processor *upload_service.Processor,
	chat *chat_service.ChatService,
	logger *slog.Logger,
) *mux.Router {
	r := mux.NewRouter()

	uploadHandler := handlers.NewUploadHandler(processor, logger)
	r.Handle("/api/v1/upload", uploadHandler).Methods("POST")

	documentsHandler := handlers.NewDocumentsHandler(state, logger)
	r.HandleFunc("/api/v1/documents", documentsHandler.List).Methods("GET")

	chatHandler := handlers.NewChatHandler(chat, state, logger)
	r.HandleFunc("/api/v1/chat", chatHandler.Ask).Methods("POST")
	r.HandleFunc("/api/v1/chat", chatHandler.History).Methods("GET")

	settingsHandler := handlers.NewSettingsHandler(settings, logger)
	r.HandleFunc("/api/v1/settings", settingsHandler.Get).Methods("GET")
	r.HandleFunc("/api/v1/settings", settingsHandler.Put).Methods("PUT")

	statusHandler := handlers.NewStatusHandler(state, settings, logger)
	r.HandleFunc("/api/v1/status", statusHandler.Status).Methods("GET")
	r.HandleFunc("/api/v1/error", statusHandler.DismissError).Methods("DELETE")

	r.Handle("/api/v1/schema", handlers.NewSchemaHandler()).Methods("GET")

	return r
}

// ServeProduction builds the server when we operate in a production environment.
func ServeProduction(n *negroni.Negroni, cfg config.Config) {
	autocertManager := autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(cfg.Domains...),
		Cache:      autocert.DirCache(cfg.CertCacheDir),
	}

	// Listen for HTTP requests on port 80 in a new goroutine. Use
	// autocertManager.HTTPHandler(nil) as the handler. This will send ACME
	// "http-01" challenge responses as necessary, and 302 redirect all other
	// requests to HTTPS.
	go func() {
		srv := &http.Server{
			Addr:         ":" + cfg.HTTPPort,
			Handler:      autocertManager.HTTPHandler(nil),
			IdleTimeout:  time.Minute,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}

		err := srv.ListenAndServe()
		log.Fatal(err)
	}()

	tlsConfig := &tls.Config{
		GetCertificate:           autocertManager.GetCertificate,
		PreferServerCipherSuites: true,
		CurvePreferences:         []tls.CurveID{tls.X25519, tls.CurveP256},
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPSPort,
		Handler:      n,
		TLSConfig:    tlsConfig,
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		// Upload and chat both wait on a language-model call.
		WriteTimeout: 3 * time.Minute,
	}

	err := srv.ListenAndServeTLS("", "") // Key and cert provided automatically by autocert.
	log.Fatal(err)
}

// ServeDevelopment starts the server when we operate in a dev environment.
func ServeDevelopment(s *http.Server) {
	log.Fatal(s.ListenAndServe())
}
