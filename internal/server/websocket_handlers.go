package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/quadwarp/internal/geom"
	"github.com/MeKo-Tech/quadwarp/internal/imageio"
	"github.com/MeKo-Tech/quadwarp/internal/pipeline"
	"github.com/MeKo-Tech/quadwarp/internal/texmap"
	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

// Session message types.
const (
	msgSource  = "source"
	msgOptions = "options"
	msgQuad    = "quad"
	msgReady   = "ready"
	msgFrame   = "frame"
	msgError   = "error"
)

// SessionRequest is a client message of a drag session. Binary messages are
// treated as a "source" request carrying the encoded image.
type SessionRequest struct {
	Type    string       `json:"type"`
	Seq     int64        `json:"seq,omitempty"`
	Image   []byte       `json:"image,omitempty"`
	Corners [][2]float64 `json:"corners,omitempty"`
	Space   string       `json:"space,omitempty"`
	Options *warpParams  `json:"options,omitempty"`
}

// SessionResponse is a server message of a drag session. A "frame"
// response is always followed by one binary message with the destination.
type SessionResponse struct {
	Type         string  `json:"type"`
	Status       string  `json:"status"`
	Seq          int64   `json:"seq,omitempty"`
	SourceWidth  int     `json:"source_width,omitempty"`
	SourceHeight int     `json:"source_height,omitempty"`
	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
	Components   int     `json:"components,omitempty"`
	Format       string  `json:"format,omitempty"`
	Written      int     `json:"written"`
	Skipped      int     `json:"skipped"`
	DurationMs   float64 `json:"duration_ms,omitempty"`
	Error        string  `json:"error,omitempty"`
	ErrorType    string  `json:"error_type,omitempty"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// session is the state of one drag session: the decoded source and the
// options every quad message is warped with.
type session struct {
	server *Server
	conn   WebSocketConnWriter
	pl     *pipeline.Pipeline
	format imageio.Format
	img    image.Image
	src    *texmap.SourceImage
}

func (s *Server) newSession(conn WebSocketConnWriter) *session {
	return &session{server: s, conn: conn, pl: s.base, format: imageio.FormatRaw}
}

// sessionHandler upgrades the connection and runs a drag session on it.
func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("Drag session started", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(conn)
	slog.Info("Drag session ended", "remote_addr", r.RemoteAddr)
}

// handleWebSocketConnection reads session messages until the peer goes away.
func (s *Server) handleWebSocketConnection(conn *websocket.Conn) {
	// Encoded images travel base64 in JSON, which adds a third.
	conn.SetReadLimit(s.maxUploadMB * 1024 * 1024 * 4 / 3)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	sess := s.newSession(conn)
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		sess.handleMessage(messageType, data)
	}
}

// handleMessage dispatches one client message.
func (ss *session) handleMessage(messageType int, data []byte) {
	if messageType == websocket.BinaryMessage {
		ss.setSource(0, data)
		return
	}
	if messageType != websocket.TextMessage {
		return
	}

	var req SessionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		ss.sendError(0, "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}

	switch req.Type {
	case msgSource:
		if req.Options != nil && !ss.setOptions(req.Seq, *req.Options) {
			return
		}
		ss.setSource(req.Seq, req.Image)
	case msgOptions:
		if req.Options == nil {
			ss.sendError(req.Seq, "invalid_request", "options message without options")
			return
		}
		if ss.setOptions(req.Seq, *req.Options) && ss.reconvert(req.Seq) {
			ss.sendReady(req.Seq)
		}
	case msgQuad:
		ss.warp(req)
	default:
		ss.sendError(req.Seq, "invalid_request", fmt.Sprintf("unknown message type %q", req.Type))
	}
}

// setOptions replaces the session options; the source is kept.
func (ss *session) setOptions(seq int64, p warpParams) bool {
	pl, err := p.pipelineFor(ss.pl)
	if err != nil {
		ss.sendError(seq, "invalid_options", err.Error())
		return false
	}
	format, err := p.format(ss.format)
	if err != nil {
		ss.sendError(seq, "invalid_options", err.Error())
		return false
	}
	ss.pl, ss.format = pl, format
	return true
}

// setSource decodes and keeps a new source image.
func (ss *session) setSource(seq int64, data []byte) {
	uploadSizeBytes.Observe(float64(len(data)))
	img, meta, err := imageio.Decode(data)
	if err != nil {
		ss.sendError(seq, "invalid_image", err.Error())
		return
	}
	ss.img = img
	if !ss.reconvert(seq) {
		return
	}
	slog.Debug("Session source set", "format", meta.Format, "width", meta.Width, "height", meta.Height)
	ss.sendReady(seq)
}

// reconvert packs the kept image with the current component count.
func (ss *session) reconvert(seq int64) bool {
	if ss.img == nil {
		return true
	}
	src, err := imageio.ToSource(ss.img, ss.pl.Config().Components)
	if err != nil {
		ss.sendError(seq, "invalid_image", err.Error())
		return false
	}
	ss.src = &src
	return true
}

// warp re-blits the kept source with the message's corners and sends the frame.
func (ss *session) warp(req SessionRequest) {
	if ss.src == nil {
		ss.sendError(req.Seq, "no_source", "send a source image before quad messages")
		return
	}
	corners, err := cornersFromPairs(req.Corners)
	if err != nil {
		ss.sendError(req.Seq, "invalid_quad", err.Error())
		return
	}
	space := pipeline.SpacePixels
	if req.Space != "" {
		if space, err = pipeline.ParseCornerSpace(req.Space); err != nil {
			ss.sendError(req.Seq, "invalid_quad", err.Error())
			return
		}
	}
	pl, err := ss.pl.WithCorners(corners, space)
	if err != nil {
		ss.sendError(req.Seq, "invalid_quad", err.Error())
		return
	}
	if err := ss.server.checkDestSize(pl, ss.src.Width, ss.src.Height); err != nil {
		ss.sendError(req.Seq, "invalid_quad", err.Error())
		return
	}

	out, err := pl.ProcessSource(*ss.src)
	if err != nil {
		warpRequestsTotal.WithLabelValues("session", "error").Inc()
		ss.sendError(req.Seq, "warp_failed", err.Error())
		return
	}
	defer out.Release()
	warpRequestsTotal.WithLabelValues("session", "success").Inc()
	observeBlit("session", out.Duration.Seconds(), out.Result.Stats.Written, out.Result.Stats.Skipped)

	payload := out.Result.Bytes[:out.Result.ByteCount]
	if ss.format != imageio.FormatRaw {
		var buf bytes.Buffer
		if err := imageio.EncodeResult(&buf, out.Result, ss.format); err != nil {
			ss.sendError(req.Seq, "encode_failed", err.Error())
			return
		}
		payload = buf.Bytes()
	}

	ss.send(SessionResponse{
		Type:       msgFrame,
		Status:     "ok",
		Seq:        req.Seq,
		Width:      out.Result.Width,
		Height:     out.Result.Height,
		Components: out.Result.Components,
		Format:     string(ss.format),
		Written:    out.Result.Stats.Written,
		Skipped:    out.Result.Stats.Skipped,
		DurationMs: float64(out.Duration.Microseconds()) / 1000,
	})
	if err := ss.conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		slog.Error("Failed to send frame", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

func cornersFromPairs(pairs [][2]float64) ([4]geom.Vec2, error) {
	var corners [4]geom.Vec2
	if len(pairs) != 4 {
		return corners, fmt.Errorf("expected 4 corners, got %d", len(pairs))
	}
	for i, p := range pairs {
		corners[i] = geom.V2(p[0], p[1])
	}
	return corners, nil
}

func (ss *session) sendReady(seq int64) {
	resp := SessionResponse{Type: msgReady, Status: "ok", Seq: seq, Format: string(ss.format)}
	if ss.src != nil {
		resp.SourceWidth, resp.SourceHeight = ss.src.Width, ss.src.Height
		resp.Width, resp.Height = ss.pl.DestSize(ss.src.Width, ss.src.Height)
		resp.Components = ss.src.Components
	}
	ss.send(resp)
}

// send writes a JSON response.
func (ss *session) send(resp SessionResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("Failed to marshal session response", "error", err)
		return
	}
	if err := ss.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		if !errors.Is(err, websocket.ErrCloseSent) {
			slog.Error("Failed to send session response", "error", err)
		}
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendError sends an error response.
func (ss *session) sendError(seq int64, errorType, message string) {
	ss.send(SessionResponse{
		Type:      msgError,
		Status:    "error",
		Seq:       seq,
		Error:     message,
		ErrorType: errorType,
	})
}
