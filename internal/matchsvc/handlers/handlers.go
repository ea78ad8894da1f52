package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/mesker/trick-services/internal/matchsvc/coordinator"
	"github.com/mesker/trick-services/internal/matchsvc/session"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
)

type Handler struct {
	upgrader    websocket.Upgrader
	coordinator *coordinator.Coordinator
	tokenAuth   *jwtauth.JWTAuth
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

func NewHandler(c *coordinator.Coordinator) *Handler {
	h := &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		coordinator: c,
	}
	return h
}

// HandleInvite upgrades an invite-code URL to a WebSocket and hands the
// session to the coordinator for seat resolution.
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	inviteCode := chi.URLParam(r, "code")
	playerID := r.URL.Query().Get("playerId")
	playerName := r.URL.Query().Get("name")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("Failed to upgrade to WebSocket: %v", err)
		http.Error(w, "Failed to upgrade to WebSocket", http.StatusInternalServerError)
		return
	}

	socketID := uuid.New().String()
	sess := session.New(socketID, conn)

	log.Infof("New WebSocket connection established: %s (invite %s)", socketID, inviteCode)

	h.coordinator.Connect(sess, inviteCode, playerID, playerName)

	go h.readLoop(conn, sess)
	go h.keepalive(conn, sess)
}

// readLoop pumps inbound frames into the coordinator until the connection
// dies, then reports the close so the grace window can start.
func (h *Handler) readLoop(conn *websocket.Conn, sess *session.Session) {
	defer func() {
		log.Infof("Closing WebSocket connection: %s", sess.ID)
		conn.Close()
		h.coordinator.HandleClose(sess)
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Errorf("WebSocket unexpected close error for socket %s: %v", sess.ID, err)
			} else {
				log.Infof("WebSocket connection closed normally for socket: %s", sess.ID)
			}
			break
		}
		h.coordinator.HandleMessage(sess, raw)
	}
}

// keepalive pings on a ticker; a peer that stops answering trips the read
// deadline in readLoop. WriteControl is safe alongside the loop's WriteJSON.
func (h *Handler) keepalive(conn *websocket.Conn, sess *session.Session) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
			log.Debugf("keepalive ping failed for socket %s: %v", sess.ID, err)
			return
		}
	}
}

type createMatchRequest struct {
	TeamSize int `json:"teamSize"`
}

type teamInvite struct {
	InviteCode string `json:"inviteCode"`
	WsURL      string `json:"wsUrl"`
}

type createMatchResponse struct {
	MatchID  string     `json:"matchId"`
	TeamSize int        `json:"teamSize"`
	Team1    teamInvite `json:"team1"`
	Team2    teamInvite `json:"team2"`
}

// CreateMatchHandler provisions a match and returns one invite URL per team.
func (h *Handler) CreateMatchHandler(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{Message: "invalid request body", Code: http.StatusBadRequest, Error: err.Error()})
		return
	}

	created, err := h.coordinator.CreateMatch(req.TeamSize)
	if err != nil {
		h.CreateResponse(w, Response{Message: "team size must be between 1 and 3", Code: http.StatusBadRequest, Error: err.Error()})
		return
	}

	base := wsBaseURL(r)
	rsp := createMatchResponse{
		MatchID:  created.MatchID,
		TeamSize: created.TeamSize,
		Team1:    teamInvite{InviteCode: created.Team1Code, WsURL: base + "/invite/" + created.Team1Code},
		Team2:    teamInvite{InviteCode: created.Team2Code, WsURL: base + "/invite/" + created.Team2Code},
	}
	h.CreateResponse(w, Response{Message: "match created", Code: http.StatusCreated, Data: rsp})
}

// wsBaseURL derives the externally reachable socket address, honoring the
// forwarding headers a proxy sets.
func wsBaseURL(r *http.Request) string {
	scheme := "ws"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" || r.TLS != nil {
		scheme = "wss"
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return scheme + "://" + host
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "match service is running",
		Code:    200,
		Data:    h.coordinator.Stats(),
	}
	h.CreateResponse(w, rsp)
}

// MatchListHandler is the operator view behind the JWT group.
func (h *Handler) MatchListHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, Response{
		Message: "active matches",
		Code:    200,
		Data:    h.coordinator.MatchList(),
	})
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}
