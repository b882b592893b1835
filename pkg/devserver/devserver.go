// Package devserver is a foreground static file server for local development. Pages that include
// /__atmos/reload.js are reloaded whenever a file under the served root changes.
package devserver

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	ReloadPath       = "/__atmos/reload"
	ReloadScriptPath = "/__atmos/reload.js"

	reloadMessage = "reload"
)

const reloadScript = `(function () {
  var scheme = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(scheme + location.host + "` + ReloadPath + `");
  ws.onmessage = function (e) { if (e.data === "` + reloadMessage + `") { location.reload(); } };
})();
`

// Options configures a development server.
type Options struct {
	// Addr is the listen address, for example ":8080".
	Addr string
	// Root is the directory served.
	Root string
	// Reload enables the file watcher and the reload socket.
	Reload bool
	// Ignore holds doublestar patterns of paths that never trigger a reload.
	Ignore []string
	// Logger may be nil.
	Logger *logrus.Entry
}

// Server serves Root and broadcasts reloads to connected pages.
type Server struct {
	opts    Options
	log     *logrus.Entry
	handler http.Handler

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local development only
	},
}

// New builds a server without starting it.
func New(opts Options) *Server {
	if opts.Root == "" {
		opts.Root = "."
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = logrus.NewEntry(l)
	}
	s := &Server{
		opts:  opts,
		log:   log.WithField("component", "devserver"),
		conns: make(map[*websocket.Conn]struct{}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc(ReloadScriptPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = io.WriteString(w, reloadScript)
	})
	mux.HandleFunc(ReloadPath, s.serveReload)
	mux.Handle("/", http.FileServer(http.Dir(opts.Root)))
	s.handler = mux
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) serveReload(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
	s.log.WithField("remote", conn.RemoteAddr().String()).Debug("reload client connected")

	// Clients never send anything; reading only detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

// Clients returns the number of connected reload clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Reload asks every connected page to reload.
func (s *Server) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(reloadMessage)); err != nil {
			s.log.WithError(err).Debug("dropping reload client")
			conn.Close()
			delete(s.conns, conn)
		}
	}
}

// Run serves until ctx is done. When ready is not nil it receives the bound address once the
// listener is open.
func Run(ctx context.Context, opts Options, ready func(addr net.Addr)) error {
	s := New(opts)
	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return err
	}
	if opts.Reload {
		w, err := newWatcher(opts.Root, opts.Ignore, s.log, s.Reload)
		if err != nil {
			ln.Close()
			return err
		}
		defer w.Close()
		go w.run(ctx)
	}

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.WithFields(logrus.Fields{"addr": ln.Addr().String(), "root": opts.Root}).Info("development server started")
	if ready != nil {
		ready(ln.Addr())
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
