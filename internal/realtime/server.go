// Package realtime canlı görünümleri WebSocket üzerinden sunar. Her bağlantı
// kendi livesync.Watch'ını çalıştırır, her teslimatta tam görüntü alır.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kafe-backend/internal/apperr"
	"kafe-backend/internal/auth"
	"kafe-backend/internal/catalog"
	"kafe-backend/internal/floorplan"
	"kafe-backend/internal/livesync"
	"kafe-backend/internal/logger"
	"kafe-backend/internal/notify"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4 << 10
	outBuffer      = 16
)

type FrameType string

const (
	FrameSnapshot FrameType = "snapshot"
	FrameError    FrameType = "error"
	FrameAck      FrameType = "ack"
)

// Frame istemciye giden tek mesaj biçimi.
type Frame struct {
	Type  FrameType `json:"type"`
	View  string    `json:"view"`
	Data  any       `json:"data,omitempty"`
	Error string    `json:"error,omitempty"`
	At    time.Time `json:"at"`
}

type Tables interface {
	livesync.TableLister
	livesync.TableGetter
	livesync.TableMover
}

type Orders interface {
	livesync.TodayOrderLister
	livesync.TableOrderLister
	livesync.ActiveOrderLister
}

type Menu interface {
	WatchPublicMenu(ctx context.Context) <-chan livesync.Update[[]catalog.MenuSection]
}

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Session, error)
}

type Deps struct {
	Auth      Authenticator
	Tables    Tables
	Orders    Orders
	Staff     livesync.StaffLister
	Menu      Menu
	Bus       *livesync.Bus
	Baselines livesync.BaselineStore
	Layout    floorplan.Size
	Location  *time.Location
	Log       *logger.Logger
	Now       func() time.Time
}

type Server struct {
	deps     Deps
	format   *notify.Formatter
	upgrader websocket.Upgrader
}

func New(d Deps) *Server {
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return &Server{
		deps:   d,
		format: notify.NewFormatter(d.Location),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origin kontrolü CORS katmanında, token zaten zorunlu
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /live/dashboard", s.staffOnly(s.serveDashboard))
	mux.HandleFunc("GET /live/tables", s.staffOnly(s.serveTables))
	mux.HandleFunc("GET /live/layout", s.staffOnly(s.serveLayout))
	mux.HandleFunc("GET /live/tables/{id}/orders", s.serveTracker)
	mux.HandleFunc("GET /live/menu", s.serveMenu)
	return mux
}

// ListenAndServe ctx bitene kadar çalışır, sonra dinleyiciyi kapatır.
// Açık soketler iptali istek context'inden görür.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.deps.Log.Info("", "live_listen", "Canlı görünüm sunucusu çalışıyor: "+addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// describe hatayı REST API'nin kullanacağı durum kodu ve mesaja çevirir.
func describe(err error, notFoundMsg string) (int, string) {
	var fe *fiber.Error
	if errors.As(apperr.ToFiber(err, notFoundMsg), &fe) {
		return fe.Code, fe.Message
	}
	return http.StatusInternalServerError, "Beklenmeyen sunucu hatası"
}

func bearerToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return h[7:]
	}
	return ""
}

type staffHandler func(w http.ResponseWriter, r *http.Request, sess *auth.Session)

// staffOnly upgrade'den önce kimlik doğrular. Tarayıcı WebSocket isteğine
// header koyamadığı için ?token= de kabul edilir.
func (s *Server) staffOnly(next staffHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Token eksik")
			return
		}
		sess, err := s.deps.Auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, apperr.ErrSessionClosed) {
				writeError(w, http.StatusUnauthorized, "Geçersiz veya süresi dolmuş token")
				return
			}
			code, msg := describe(err, "")
			writeError(w, code, msg)
			return
		}
		next(w, r.WithContext(auth.WithSession(r.Context(), sess)), sess)
	}
}

// pump ctx bitene kadar watch'ı sokete aktarır.
type pump func(ctx context.Context, out chan<- Frame) error

// receive istemciden gelen tek mesajı işler.
type receive func(ctx context.Context, msg []byte, out chan<- Frame) error

func send(ctx context.Context, out chan<- Frame, f Frame) bool {
	if f.At.IsZero() {
		f.At = time.Now().UTC()
	}
	select {
	case out <- f:
		return true
	case <-ctx.Done():
		return false
	}
}

func forward[T any](view, notFoundMsg string, log *logger.Logger, watch func(ctx context.Context) <-chan livesync.Update[T]) pump {
	return func(ctx context.Context, out chan<- Frame) error {
		for u := range watch(ctx) {
			f := Frame{Type: FrameSnapshot, View: view, Data: u.Value}
			if u.Err != nil {
				_, msg := describe(u.Err, notFoundMsg)
				log.Error("", "live_load", view+" yüklenemedi", u.Err)
				f = Frame{Type: FrameError, View: view, Error: msg}
			}
			if !send(ctx, out, f) {
				return nil
			}
		}
		return nil
	}
}

var errPeerClosed = errors.New("bağlantı karşı taraftan kapandı")

// serve isteği upgrade eder, biri durana kadar soketin pump, yazıcı ve
// okuyucusunu çalıştırır.
func (s *Server) serve(w http.ResponseWriter, r *http.Request, view string, p pump, onMessage receive) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.deps.Log.Warn("", "live_upgrade", view+": "+err.Error())
		return
	}
	defer ws.Close()

	out := make(chan Frame, outBuffer)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { return p(ctx, out) })
	g.Go(func() error { return s.write(ctx, ws, out) })
	g.Go(func() error { return s.read(ctx, ws, view, out, onMessage) })

	if err := g.Wait(); err != nil && !errors.Is(err, errPeerClosed) {
		s.deps.Log.Debug("", "live_closed", fmt.Sprintf("%s: %v", view, err))
	}
}

func (s *Server) write(ctx context.Context, ws *websocket.Conn, out <-chan Frame) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	// okuyucuyu da çözer
	defer ws.Close()

	for {
		select {
		case <-ctx.Done():
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return ctx.Err()
		case f := <-out:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(f); err != nil {
				return err
			}
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		}
	}
}

func (s *Server) read(ctx context.Context, ws *websocket.Conn, view string, out chan<- Frame, onMessage receive) error {
	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error { return ws.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errPeerClosed
			}
			return err
		}
		if onMessage == nil {
			continue
		}
		if err := onMessage(ctx, msg, out); err != nil {
			_, text := describe(err, "Masa bulunamadı")
			if !send(ctx, out, Frame{Type: FrameError, View: view, Error: text}) {
				return ctx.Err()
			}
		}
	}
}

func viewerKey(sess *auth.Session) string {
	return "user-" + strconv.FormatUint(uint64(sess.UserID), 10)
}

func (s *Server) dashboardFeed(sess *auth.Session) *livesync.DashboardFeed {
	baseline := livesync.NewBaseline(s.deps.Baselines, viewerKey(sess), s.deps.Location)
	return livesync.NewDashboardFeed(s.deps.Tables, s.deps.Orders, s.deps.Staff, baseline, s.format, s.deps.Now)
}

func (s *Server) serveDashboard(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	feed := s.dashboardFeed(sess)
	p := forward("dashboard", "", s.deps.Log, func(ctx context.Context) <-chan livesync.Update[livesync.Dashboard] {
		return livesync.Watch(ctx, s.deps.Bus, feed.Load, livesync.DashboardTopics...)
	})
	s.serve(w, r, "dashboard", p, nil)
}

func (s *Server) serveTables(w http.ResponseWriter, r *http.Request, _ *auth.Session) {
	load := livesync.TablesViewLoader(s.deps.Tables, s.deps.Orders)
	p := forward("tables", "", s.deps.Log, func(ctx context.Context) <-chan livesync.Update[[]livesync.TableRow] {
		return livesync.Watch(ctx, s.deps.Bus, load, livesync.TopicTables, livesync.TopicOrders)
	})
	s.serve(w, r, "tables", p, nil)
}

// MoveMessage yerleşim editörünün sürüklerken gönderdiği mesaj.
type MoveMessage struct {
	Type    string  `json:"type"`
	TableID uint    `json:"table_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

func (s *Server) serveLayout(w http.ResponseWriter, r *http.Request, _ *auth.Session) {
	view := livesync.NewLayoutView(s.deps.Tables, s.deps.Tables, s.deps.Layout)
	p := forward("layout", "", s.deps.Log, func(ctx context.Context) <-chan livesync.Update[[]livesync.LayoutEntry] {
		return livesync.Watch(ctx, s.deps.Bus, view.Load, livesync.TopicTables)
	})
	s.serve(w, r, "layout", p, s.layoutMessages(view))
}

func (s *Server) layoutMessages(view *livesync.LayoutView) receive {
	return func(ctx context.Context, msg []byte, out chan<- Frame) error {
		var m MoveMessage
		if err := json.Unmarshal(msg, &m); err != nil || m.Type != "move" || m.TableID == 0 {
			return fmt.Errorf("%w: geçersiz mesaj", apperr.ErrInvalidInput)
		}

		moveErr := view.Move(ctx, m.TableID, m.X, m.Y)
		if moveErr != nil {
			// geri alınan konum için sinyal gelmez, görünümü kendimiz gönderelim
			entries, err := view.Load(ctx)
			if err == nil {
				send(ctx, out, Frame{Type: FrameSnapshot, View: "layout", Data: entries})
			}
			return moveErr
		}

		pos, state, _ := view.Position(m.TableID)
		send(ctx, out, Frame{Type: FrameAck, View: "layout", Data: map[string]any{
			"table_id": m.TableID,
			"position": pos,
			"state":    state,
		}})
		return nil
	}
}

func (s *Server) serveTracker(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "Geçersiz masa ID")
		return
	}
	if _, err := s.deps.Tables.Get(r.Context(), uint(id)); err != nil {
		code, msg := describe(err, "Masa bulunamadı")
		writeError(w, code, msg)
		return
	}

	load := livesync.OrderTrackerLoader(s.deps.Tables, s.deps.Orders, uint(id), s.deps.Now)
	p := forward("order_tracker", "Masa bulunamadı", s.deps.Log, func(ctx context.Context) <-chan livesync.Update[livesync.OrderTracker] {
		return livesync.Watch(ctx, s.deps.Bus, load, livesync.TopicOrders, livesync.TopicTables)
	})
	s.serve(w, r, "order_tracker", p, nil)
}

func (s *Server) serveMenu(w http.ResponseWriter, r *http.Request) {
	if s.deps.Menu == nil {
		writeError(w, http.StatusNotFound, "Menü yayını kapalı")
		return
	}
	p := forward("menu", "", s.deps.Log, s.deps.Menu.WatchPublicMenu)
	s.serve(w, r, "menu", p, nil)
}
