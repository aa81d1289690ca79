package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Original provider payloads run large; the provider batches generously.
const maxBodyBytes = 20 << 20

// BatchHandler consumes an accepted webhook batch. Processing happens
// after the HTTP response; the handler owns all per-element error
// handling.
type BatchHandler interface {
	ProcessBatch(ctx context.Context, batch []HeliusTransaction)
}

// Server is the inbound event feed: an HTTP endpoint accepting arrays
// of provider transactions. It acknowledges with 200 once a batch is
// queued; workers process batches asynchronously and in parallel, since
// each batch's classification is independent.
type Server struct {
	addr    string
	workers int
	queue   chan []HeliusTransaction
	handler BatchHandler
	logger  *zap.Logger
	srv     *http.Server
}

func NewServer(addr string, workers int, handler BatchHandler, logger *zap.Logger) *Server {
	if workers <= 0 {
		workers = 1
	}
	s := &Server{
		addr:    addr,
		workers: workers,
		queue:   make(chan []HeliusTransaction, 256),
		handler: handler,
		logger:  logger.Named("webhook_server"),
	}

	router := mux.NewRouter()
	router.HandleFunc("/rug-alert", s.handleRugAlert).Methods(http.MethodPost)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start runs the listener and the batch workers until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < s.workers; i++ {
		id := i + 1
		g.Go(func() error {
			s.worker(ctx, id)
			return nil
		})
	}

	g.Go(func() error {
		s.logger.Info("Webhook server listening", zap.String("addr", s.addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) worker(ctx context.Context, id int) {
	logger := s.logger.With(zap.Int("worker_id", id))
	logger.Debug("Batch worker started")
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Batch worker shutting down")
			return
		case batch, ok := <-s.queue:
			if !ok {
				return
			}
			s.handler.ProcessBatch(ctx, batch)
		}
	}
}

func (s *Server) handleRugAlert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var batch []HeliusTransaction
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		s.logger.Warn("Rejecting malformed webhook body", zap.Error(err))
		http.Error(w, "malformed batch", http.StatusBadRequest)
		return
	}

	if len(batch) > 0 {
		select {
		case s.queue <- batch:
		case <-r.Context().Done():
			http.Error(w, "canceled", http.StatusServiceUnavailable)
			return
		}
	}

	// The provider only needs the ack; processing is asynchronous.
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
