package sso

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// LoopbackNavigator is a Navigator for command line tools. It serves the
// redirect URI on a loopback listener; redirects are printed and opened in
// the system browser, and a request carrying OAuth callback parameters
// becomes the current location.
type LoopbackNavigator struct {
	listener net.Listener
	server   *http.Server
	out      io.Writer
	open     func(string) error
	logger   *logrus.Logger

	mu        sync.Mutex
	location  *url.URL
	callbacks chan *url.URL
}

// LoopbackOption configures a LoopbackNavigator
type LoopbackOption func(*LoopbackNavigator)

// WithOutput sets where redirect URLs are printed (default stderr)
func WithOutput(w io.Writer) LoopbackOption {
	return func(n *LoopbackNavigator) {
		n.out = w
	}
}

// WithBrowser sets the function opening a URL (default OpenBrowser).
// A nil function only prints the URL.
func WithBrowser(open func(string) error) LoopbackOption {
	return func(n *LoopbackNavigator) {
		n.open = open
	}
}

// WithNavigatorLogger sets the logger (default logrus.New())
func WithNavigatorLogger(logger *logrus.Logger) LoopbackOption {
	return func(n *LoopbackNavigator) {
		n.logger = logger
	}
}

// NewLoopbackNavigator listens on addr ("127.0.0.1:0" picks a free port)
// and starts serving callbacks. Callers must Close it.
func NewLoopbackNavigator(addr string, opts ...LoopbackOption) (*LoopbackNavigator, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	n := &LoopbackNavigator{
		listener:  listener,
		out:       os.Stderr,
		open:      OpenBrowser,
		location:  &url.URL{Scheme: "http", Host: listener.Addr().String(), Path: "/"},
		callbacks: make(chan *url.URL, 1),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.logger == nil {
		n.logger = logrus.New()
	}

	n.server = &http.Server{
		Handler:           n.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := n.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			n.logger.WithError(err).Error("Callback server failed")
		}
	}()

	return n, nil
}

func (n *LoopbackNavigator) router() http.Handler {
	r := mux.NewRouter()
	r.MatcherFunc(isCallback).HandlerFunc(n.handleCallback)
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "You can close this window.")
	})
	return r
}

func isCallback(r *http.Request, _ *mux.RouteMatch) bool {
	q := r.URL.Query()
	return q.Has("state") && (q.Has("code") || q.Has("error"))
}

func (n *LoopbackNavigator) handleCallback(w http.ResponseWriter, r *http.Request) {
	u := *r.URL
	u.Scheme = "http"
	u.Host = n.listener.Addr().String()

	select {
	case n.callbacks <- &u:
	default:
		n.logger.Warn("Dropping callback, another one is pending")
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if r.URL.Query().Has("error") {
		fmt.Fprintln(w, "Login failed. You can close this window.")
		return
	}
	fmt.Fprintln(w, "Login complete. You can close this window.")
}

func (n *LoopbackNavigator) Location() *url.URL {
	n.mu.Lock()
	defer n.mu.Unlock()
	u := *n.location
	return &u
}

func (n *LoopbackNavigator) Origin() string {
	return Origin(n.Location())
}

// Redirect prints target and opens it in the browser. A browser that fails
// to open is logged; the printed URL remains usable.
func (n *LoopbackNavigator) Redirect(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fmt.Fprintf(n.out, "Open the following URL in your browser:\n\n  %s\n\n", target)
	if n.open != nil {
		if err := n.open(target); err != nil {
			n.logger.WithError(err).Warn("Failed to open browser")
		}
	}
	return nil
}

func (n *LoopbackNavigator) Replace(u *url.URL) {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := *u
	n.location = &c
}

// WaitForCallback blocks until the identity provider redirects back, then
// makes the callback URL the current location
func (n *LoopbackNavigator) WaitForCallback(ctx context.Context) error {
	select {
	case u := <-n.callbacks:
		n.Replace(u)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for login callback: %w", ctx.Err())
	}
}

// Close stops the callback server
func (n *LoopbackNavigator) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return n.server.Shutdown(ctx)
}

// OpenBrowser opens rawURL in the default browser
func OpenBrowser(rawURL string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		cmd = exec.Command("xdg-open", rawURL)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	go cmd.Wait()
	return nil
}
