// Package fixture serves a canned two-step sign-in page on a loopback port,
// so the browser harness can be exercised end-to-end without a live
// application or a Clerk instance.
package fixture

import (
	"context"
	_ "embed"
	"fmt"
	"net"
	"net/http"
)

//go:embed signin.html
var signinPage []byte

// SessionValue is the session cookie value the fixture page sets once the
// magic code is accepted.
const SessionValue = "fixture.session.token"

// Server serves the fixture sign-in page over HTTP.
type Server struct {
	listener net.Listener
	server   *http.Server
}

// Start picks a free loopback port and starts serving the sign-in page.
func Start() (*Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to find port: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /sign-in", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(signinPage)
	})

	srv := &Server{
		listener: listener,
		server:   &http.Server{Handler: mux},
	}

	go srv.server.Serve(listener) //nolint:errcheck // closed via Stop

	return srv, nil
}

// URL returns the sign-in page URL.
func (s *Server) URL() string {
	return fmt.Sprintf("http://%s/sign-in", s.listener.Addr().String())
}

// Stop shuts down the server.
func (s *Server) Stop() {
	_ = s.server.Shutdown(context.Background())
}
