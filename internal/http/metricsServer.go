package http

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves /metrics for the client process.
type MetricsServer struct {
	server *http.Server
	wg     sync.WaitGroup
}

func NewMetricsServer(gatherer prometheus.Gatherer, addr string) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	if addr == "" {
		addr = "localhost:9090"
	}

	return &MetricsServer{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

func (s *MetricsServer) Start() error {
	log.Printf("Metrics server started on %s", s.server.Addr)
	return serve(s.server, &s.wg, nil)
}

func (s *MetricsServer) Shutdown(ctx context.Context) error {
	defer s.wg.Wait()
	return s.server.Shutdown(ctx)
}
