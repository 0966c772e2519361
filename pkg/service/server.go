// Copyright 2023 LiveKit, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package service

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/frostbyte73/core"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/urfave/negroni/v3"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/recording-gateway/pkg/auth"
	"github.com/livekit/recording-gateway/pkg/config"
	"github.com/livekit/recording-gateway/pkg/telemetry/prometheus"
	"github.com/livekit/recording-gateway/version"
)

const (
	requestIDHeader = "X-Request-ID"
	shutdownTimeout = 5 * time.Second
)

type GatewayServer struct {
	config         *config.Config
	httpServer     *http.Server
	promServer     *http.Server
	recordingStore SessionStore
	running        atomic.Bool
	shutdown       core.Fuse
	closed         core.Fuse
}

func NewGatewayServer(
	conf *config.Config,
	tokenService *TokenService,
	recordingService *RecordingService,
	store SessionStore,
	keyProvider auth.KeyProvider,
) *GatewayServer {
	s := &GatewayServer{
		config:         conf,
		recordingStore: store,
	}

	middlewares := []negroni.Handler{
		// always first
		negroni.NewRecovery(),
		negroni.HandlerFunc(RequestLogger),
		cors.New(cors.Options{
			AllowedOrigins: conf.CORS.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"*"},
			ExposedHeaders: []string{requestIDHeader},
		}),
	}
	if keyProvider != nil {
		middlewares = append(middlewares, NewAPIKeyAuthMiddleware(keyProvider))
	}

	mux := http.NewServeMux()
	mux.Handle("/api/token", tokenService)
	mux.Handle("/api/recording", recordingService)
	mux.HandleFunc("/api/recordings", recordingService.ServeList)
	mux.HandleFunc("/healthz", s.healthCheck)

	s.httpServer = &http.Server{
		Handler:           configureMiddlewares(mux, middlewares...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if conf.PrometheusPort > 0 {
		s.promServer = &http.Server{
			Handler: promhttp.Handler(),
		}
	}

	return s
}

func (s *GatewayServer) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *GatewayServer) IsRunning() bool {
	return s.running.Load()
}

func (s *GatewayServer) Start() error {
	if s.running.Swap(true) {
		return errors.New("already running")
	}
	defer s.closed.Break()

	addresses := s.config.BindAddresses
	if len(addresses) == 0 {
		addresses = []string{""}
	}

	listeners := make([]net.Listener, 0, len(addresses)+1)
	closeListeners := func() {
		for _, ln := range listeners {
			_ = ln.Close()
		}
	}
	// ensure we could listen
	for _, addr := range addresses {
		ln, err := net.Listen("tcp", net.JoinHostPort(addr, fmt.Sprint(s.config.Port)))
		if err != nil {
			closeListeners()
			s.running.Store(false)
			return err
		}
		listeners = append(listeners, ln)
	}

	var promListener net.Listener
	if s.promServer != nil {
		prometheus.Init()
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.PrometheusPort))
		if err != nil {
			closeListeners()
			s.running.Store(false)
			return err
		}
		promListener = ln
	}

	values := []interface{}{
		"portHttp", s.config.Port,
		"bindAddresses", addresses,
		"version", version.Version,
		"recordingConfigured", s.config.RecordingConfigured() == nil,
		"signingConfigured", s.config.SigningConfigured() == nil,
	}
	if s.promServer != nil {
		values = append(values, "portPrometheus", s.config.PrometheusPort)
	}
	logger.Infow("starting recording gateway", values...)

	g, ctx := errgroup.WithContext(context.Background())
	for _, ln := range listeners {
		ln := ln
		g.Go(func() error {
			return s.httpServer.Serve(ln)
		})
	}
	if promListener != nil {
		g.Go(func() error {
			return s.promServer.Serve(promListener)
		})
	}
	g.Go(func() error {
		// a listener failing takes the others down with it
		select {
		case <-s.shutdown.Watch():
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
		if s.promServer != nil {
			_ = s.promServer.Shutdown(shutdownCtx)
		}
		return nil
	})

	err := g.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}

	stats := prometheus.GetRecordingStats()
	if sessions, listErr := s.recordingStore.ListSessions(context.Background()); listErr == nil && len(sessions) > 0 {
		logger.Infow("recordings still active at shutdown", "count", len(sessions))
	}
	logger.Infow("server shutdown",
		"recordingsStarted", stats.Started,
		"recordingsStopped", stats.Stopped,
		"tokensIssued", prometheus.TokensIssued(),
	)
	s.running.Store(false)
	return err
}

func (s *GatewayServer) Stop(force bool) {
	if !s.running.Load() {
		return
	}
	if !force {
		logger.Infow("stopping server")
	}
	s.shutdown.Break()
	<-s.closed.Watch()
}

func (s *GatewayServer) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// RequestLogger tags each request with an id and logs its outcome.
func RequestLogger(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	requestID := r.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(requestIDHeader, requestID)

	start := time.Now()
	next(w, r)

	var status int
	if res, ok := w.(negroni.ResponseWriter); ok {
		status = res.Status()
	}
	logger.Debugw("request",
		"requestID", requestID,
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"duration", time.Since(start),
	)
}

func configureMiddlewares(handler http.Handler, middlewares ...negroni.Handler) *negroni.Negroni {
	n := negroni.New()
	for _, m := range middlewares {
		n.Use(m)
	}
	n.UseHandler(handler)
	return n
}
