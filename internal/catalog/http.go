package catalog

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ProductCatalog/pkg/kit"
)

const (
	maxBodyBytes = 1 << 20
	readyTimeout = 1 * time.Second

	indexMessage = "Success. Use endpoints to interact."

	// Non-standard status recorded when the client hung up before the store answered.
	statusClientClosedRequest = 499
)

type Server struct {
	Store Store
	Log   *zap.Logger

	// WriteLimiter, when set, throttles create, update and delete per client IP.
	WriteLimiter *kit.IPRateLimiter
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.NotFound(kit.NotFound)
	r.MethodNotAllowed(kit.NotFound)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.ready)

	s.productRoutes(r)
	r.Route("/api", func(ar chi.Router) {
		ar.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			kit.WriteText(w, http.StatusOK, indexMessage)
		})
		s.productRoutes(ar)
	})

	return r
}

func (s *Server) productRoutes(r chi.Router) {
	r.Get("/products", s.list)
	r.Get("/products/", s.missingID)
	r.Get("/products/{id}", s.get)

	r.Group(func(wr chi.Router) {
		if s.WriteLimiter != nil {
			wr.Use(s.WriteLimiter.Middleware)
		}
		wr.Post("/products", s.create)
		wr.Patch("/products", s.update)
		wr.Delete("/products/{id}", s.delete)
	})
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		s.logger().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	products, err := s.Store.List(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) missingID(w http.ResponseWriter, r *http.Request) {
	kit.WriteError(w, r, http.StatusBadRequest, "id required", nil)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err, id)
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	in, err := ParseInput(body)
	if err != nil {
		writeParseError(w, r, err)
		return
	}

	p, err := s.Store.Create(r.Context(), in)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}

	s.logger().Debug("product created", zap.String("id", p.ID))
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	id, in, err := ParseUpdate(body)
	if err != nil {
		writeParseError(w, r, err)
		return
	}

	p, err := s.Store.Update(r.Context(), id, in)
	if err != nil {
		s.writeStoreError(w, r, err, id)
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := s.Store.Delete(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err, id)
		return
	}

	s.logger().Debug("product deleted", zap.String("id", id))
	kit.WriteJSON(w, http.StatusOK, p)
}

func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "id required", nil)
		return "", false
	}
	if !ValidID(id) {
		kit.WriteError(w, r, http.StatusBadRequest, "malformed id", map[string]any{"id": id})
		return "", false
	}
	return id, true
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			kit.WriteError(w, r, http.StatusRequestEntityTooLarge, "body too large", map[string]any{"max_bytes": tooLarge.Limit})
			return nil, false
		}
		kit.WriteError(w, r, http.StatusBadRequest, "unreadable body", nil)
		return nil, false
	}
	return body, true
}

func writeParseError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		kit.WriteError(w, r, http.StatusBadRequest, "validation failed", ve.Fields)
		return
	}
	kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error, id string) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		kit.WriteError(w, r, http.StatusBadRequest, "validation failed", ve.Fields)
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, http.StatusText(http.StatusNotFound), map[string]any{"id": id})
	case errors.Is(err, context.DeadlineExceeded):
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
	case errors.Is(err, context.Canceled):
		s.logger().Debug("client went away",
			zap.String("method", r.Method),
			zap.String("id", id),
		)
		w.WriteHeader(statusClientClosedRequest)
	default:
		s.logger().Error("store operation failed",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("id", id),
		)
		kit.WriteStatusError(w, r, http.StatusInternalServerError)
	}
}
