package http

import (
	"context"
	"log"
	"net"
	"net/http"
	"sync"

	"skillconnect/internal/devserver"
)

// APIServer exposes the stub backend over HTTP.
type APIServer struct {
	server *http.Server
	wg     sync.WaitGroup
}

func NewAPIServer(backend *devserver.Server, addr string) *APIServer {
	if addr == "" {
		addr = "localhost:8000"
	}

	return &APIServer{
		server: &http.Server{
			Addr:    addr,
			Handler: backend.Handler(),
		},
	}
}

func (s *APIServer) Start() error {
	log.Printf("Dev backend started on %s", s.server.Addr)
	return serve(s.server, &s.wg, nil)
}

// Serve runs the server on an already bound listener.
func (s *APIServer) Serve(l net.Listener) error {
	log.Printf("Dev backend started on %s", l.Addr())
	return serve(s.server, &s.wg, l)
}

func (s *APIServer) Shutdown(ctx context.Context) error {
	defer s.wg.Wait()
	return s.server.Shutdown(ctx)
}

func serve(srv *http.Server, wg *sync.WaitGroup, l net.Listener) error {
	wg.Add(1)
	defer wg.Done()

	var err error
	if l != nil {
		err = srv.Serve(l)
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
