package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orientavida/assess-cli/internal/authoring"
	"github.com/orientavida/assess-cli/internal/fault"
	"github.com/orientavida/assess-cli/internal/match"
	"github.com/orientavida/assess-cli/internal/store"
	"github.com/orientavida/assess-cli/pkg/matchsvc"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP authoring API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		var matcher matchsvc.Client
		if cfg.Matching.BaseURL != "" {
			if matcher, err = initMatchClient(); err != nil {
				return err
			}
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		}))

		h := &apiHandler{store: st, matcher: matcher}
		h.routes(r)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

type apiHandler struct {
	store   store.Store
	matcher matchsvc.Client
}

func (h *apiHandler) routes(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/tests", func(r chi.Router) {
		r.Get("/", h.listTests)
		r.Post("/", h.createTest)

		r.Route("/{testID}", func(r chi.Router) {
			r.Get("/structure", h.getStructure)
			r.Post("/factors", h.createFactor)
			r.Delete("/factors/{id}", h.deleteFactor)
			r.Post("/subfactors", h.createSubfactor)
			r.Delete("/subfactors/{id}", h.deleteSubfactor)
			r.Post("/questions", h.createQuestion)
			r.Delete("/questions/{id}", h.deleteQuestion)
			r.Post("/questions/{id}/answers", h.createAnswer)
			r.Delete("/answers/{id}", h.deleteAnswer)
		})
	})

	r.Get("/takers/{takerID}/recommendations", h.recommendations)
}

// session opens a per-request authoring session so every mutation goes
// out through the same instrument as the CLI and comes back through a
// full reload.
func (h *apiHandler) session(r *http.Request) (*authoring.Session, error) {
	testID := chi.URLParam(r, "testID")
	sess := authoring.NewSession(h.store, testID)
	if err := sess.Refresh(r.Context()); err != nil {
		return nil, err
	}
	return sess, nil
}

func (h *apiHandler) listTests(w http.ResponseWriter, r *http.Request) {
	tests, err := h.store.ListTests(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tests": tests})
}

func (h *apiHandler) createTest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code        string `json:"code"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Code == "" || req.Title == "" {
		http.Error(w, `{"error":"code and title are required"}`, http.StatusBadRequest)
		return
	}
	test, err := h.store.CreateTest(r.Context(), store.TestInput{
		Code: req.Code, Title: req.Title, Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, test)
}

func (h *apiHandler) getStructure(w http.ResponseWriter, r *http.Request) {
	tree, err := h.store.FetchStructure(r.Context(), chi.URLParam(r, "testID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (h *apiHandler) createFactor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code        string `json:"code"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.CreateFactor(r.Context(), authoring.FactorDraft{
		Code: req.Code, Name: req.Name, Description: req.Description,
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

func (h *apiHandler) deleteFactor(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.DeleteFactor(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *apiHandler) createSubfactor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code        string  `json:"code"`
		Name        string  `json:"name"`
		Description string  `json:"description"`
		FactorID    *string `json:"factor_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.CreateSubfactor(r.Context(), authoring.SubfactorDraft{
		Code: req.Code, Name: req.Name, Description: req.Description, FactorID: req.FactorID,
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

func (h *apiHandler) deleteSubfactor(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.DeleteSubfactor(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *apiHandler) createQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text        string  `json:"text"`
		SubfactorID *string `json:"subfactor_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	q, err := sess.CreateQuestion(r.Context(), req.Text, req.SubfactorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *apiHandler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.DeleteQuestion(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *apiHandler) createAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text  string `json:"text"`
		Value int    `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.CreateAnswer(r.Context(), chi.URLParam(r, "id"), req.Text, req.Value); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

func (h *apiHandler) deleteAnswer(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.DeleteAnswer(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *apiHandler) recommendations(w http.ResponseWriter, r *http.Request) {
	if h.matcher == nil {
		http.Error(w, `{"error":"matching service is not configured"}`, http.StatusServiceUnavailable)
		return
	}
	candidates, err := h.matcher.Candidates(r.Context(), chi.URLParam(r, "takerID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": match.Rank(candidates)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// writeError maps failure kinds to HTTP statuses: invalid input 400,
// missing rows 404, rejected mutations 409, transient upstream trouble 502.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case fault.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case fault.IsRejection(err):
		status = http.StatusConflict
	case fault.IsTransient(err):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
