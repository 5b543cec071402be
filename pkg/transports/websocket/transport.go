package websocket

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Baishnab1708/MyChatBot/pkg/errorsx"
	"github.com/Baishnab1708/MyChatBot/pkg/logging"
	"github.com/Baishnab1708/MyChatBot/pkg/transports"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

//go:embed index.html
var indexPage []byte

type Config struct {
	ServerAddr     string   `mapstructure:"server_addr"`
	WebsocketPath  string   `mapstructure:"ws_path"`
	ServePage      bool     `mapstructure:"serve_page"`
	AllowAnyOrigin bool     `mapstructure:"allow_any_origin"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (c Config) withDefaults() Config {
	if c.ServerAddr == "" {
		c.ServerAddr = ":8080"
	}
	if c.WebsocketPath == "" {
		c.WebsocketPath = "/ws"
	}
	if !c.AllowAnyOrigin && len(c.AllowedOrigins) == 0 {
		c.AllowAnyOrigin = true
	}
	return c
}

// clientMessage is what the browser sends. Only {"type":"activate"} is acted on.
type clientMessage struct {
	Type string `json:"type"`
}

// Transport serves the browser surface. Every connected client receives every
// update; a tap from any client is an activation.
type Transport struct {
	cfg      Config
	server   *http.Server
	listener net.Listener
	upgrader websocket.Upgrader
	gestures chan transports.Gesture
	log      *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
	latest   map[transports.UpdateType]transports.Update

	gmu     sync.Mutex
	gclosed bool

	draining atomic.Bool
	stopOnce sync.Once
}

func New(cfg Config, logger *slog.Logger) *Transport {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	t := &Transport{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		gestures: make(chan transports.Gesture, 16),
		log:      logging.NewComponentLogger(logger, "transport_websocket"),
		sessions: make(map[string]*session),
		latest:   make(map[transports.UpdateType]transports.Update),
	}
	t.upgrader.CheckOrigin = t.checkOrigin
	return t
}

func (t *Transport) Name() string { return "websocket" }

func (t *Transport) Gestures() <-chan transports.Gesture { return t.gestures }

func (t *Transport) ReadyFields() map[string]any {
	addr := t.Addr()
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	fields := map[string]any{"ws_url": "ws://" + addr + t.cfg.WebsocketPath}
	if t.cfg.ServePage {
		fields["page_url"] = "http://" + addr + "/"
	}
	return fields
}

// Addr returns the bound listen address once started, or the configured one.
func (t *Transport) Addr() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener != nil {
		return t.listener.Addr().String()
	}
	return t.cfg.ServerAddr
}

// Handler returns the HTTP routes served by the transport.
func (t *Transport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(t.cfg.WebsocketPath, t)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if t.draining.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	if t.cfg.ServePage {
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write(indexPage)
		})
	}
	return mux
}

func (t *Transport) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ln, err := net.Listen("tcp", t.cfg.ServerAddr)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTransportListen)
	}
	t.mu.Lock()
	t.listener = ln
	t.server = &http.Server{
		ReadHeaderTimeout: 5 * time.Second,
		Handler:           t.Handler(),
	}
	server := t.server
	t.mu.Unlock()
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.log.Error("websocket_transport_server_error", "error", err.Error())
		}
	}()
	return nil
}

func (t *Transport) Stop() error {
	t.stopOnce.Do(func() {
		t.draining.Store(true)
		t.mu.Lock()
		server := t.server
		sessions := t.sessions
		t.sessions = make(map[string]*session)
		t.mu.Unlock()
		if server != nil {
			_ = server.Close()
		}
		for _, sess := range sessions {
			_ = sess.close()
		}
		t.gmu.Lock()
		t.gclosed = true
		close(t.gestures)
		t.gmu.Unlock()
	})
	return nil
}

func (t *Transport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if t.draining.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	id := uuid.NewString()
	sess := t.attach(id, conn)
	if sess == nil {
		_ = conn.Close()
		return
	}
	defer t.detach(id)
	t.log.Info("websocket_client_connected", "client_id", id)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var cm clientMessage
		if err := json.Unmarshal(msg, &cm); err != nil {
			continue
		}
		if cm.Type != transports.GestureActivate {
			continue
		}
		t.gesture(transports.Gesture{Kind: transports.GestureActivate, Client: id, At: time.Now()})
	}
	t.log.Info("websocket_client_disconnected", "client_id", id)
}

// Send broadcasts u to every client. It never blocks; a slow client loses
// updates rather than stalling the assistant.
func (t *Transport) Send(u transports.Update) error {
	if t.draining.Load() {
		return nil
	}
	b, err := json.Marshal(u)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTransportSend)
	}
	t.mu.Lock()
	switch u.Type {
	case transports.UpdateControl, transports.UpdateStatus, transports.UpdateWelcome:
		t.latest[u.Type] = u
	}
	sessions := make([]*session, 0, len(t.sessions))
	for _, s := range t.sessions {
		sessions = append(sessions, s)
	}
	t.mu.Unlock()
	for _, s := range sessions {
		s.enqueue(b)
	}
	return nil
}

func (t *Transport) gesture(g transports.Gesture) {
	t.gmu.Lock()
	defer t.gmu.Unlock()
	if t.gclosed {
		return
	}
	nonBlockingSend(t.gestures, g)
}

// attach registers a client and replays the current control, status and
// welcome so a late page starts in sync.
func (t *Transport) attach(id string, conn *websocket.Conn) *session {
	sess := &session{conn: conn, sendCh: make(chan []byte, 64)}
	t.mu.Lock()
	if t.draining.Load() {
		t.mu.Unlock()
		return nil
	}
	t.sessions[id] = sess
	var replay [][]byte
	for _, typ := range []transports.UpdateType{transports.UpdateControl, transports.UpdateStatus, transports.UpdateWelcome} {
		if u, ok := t.latest[typ]; ok {
			if b, err := json.Marshal(u); err == nil {
				replay = append(replay, b)
			}
		}
	}
	t.mu.Unlock()
	go sess.loop()
	for _, b := range replay {
		sess.enqueue(b)
	}
	return sess
}

func (t *Transport) detach(id string) {
	t.mu.Lock()
	sess := t.sessions[id]
	delete(t.sessions, id)
	t.mu.Unlock()
	if sess != nil {
		_ = sess.close()
	}
}

// Clients returns the number of connected clients.
func (t *Transport) Clients() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

func (t *Transport) checkOrigin(r *http.Request) bool {
	if t.cfg.AllowAnyOrigin {
		return true
	}
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	origin = strings.TrimRight(origin, "/")
	originHost := strings.TrimPrefix(origin, "https://")
	originHost = strings.TrimPrefix(originHost, "http://")
	for _, allowed := range t.cfg.AllowedOrigins {
		a := strings.TrimRight(strings.TrimSpace(allowed), "/")
		if a == "" {
			continue
		}
		if strings.HasPrefix(a, "http://") || strings.HasPrefix(a, "https://") {
			if strings.EqualFold(a, origin) {
				return true
			}
			continue
		}
		if strings.EqualFold(a, originHost) {
			return true
		}
	}
	return false
}

type session struct {
	conn   *websocket.Conn
	sendCh chan []byte
	mu     sync.Mutex
	closed atomic.Bool
}

func (s *session) enqueue(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return
	}
	select {
	case s.sendCh <- b:
	default:
	}
}

func (s *session) loop() {
	for msg := range s.sendCh {
		_ = s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			_ = s.conn.Close()
		}
	}
}

func (s *session) close() error {
	s.mu.Lock()
	if s.closed.CompareAndSwap(false, true) {
		close(s.sendCh)
	}
	s.mu.Unlock()
	return s.conn.Close()
}

func nonBlockingSend(ch chan transports.Gesture, g transports.Gesture) {
	select {
	case ch <- g:
	default:
	}
}

var (
	_ transports.Transport     = (*Transport)(nil)
	_ transports.ReadyReporter = (*Transport)(nil)
)
