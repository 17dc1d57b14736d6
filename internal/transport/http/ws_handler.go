package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"kanji-quiz-service/internal/app"
	"kanji-quiz-service/internal/domain"
	"kanji-quiz-service/internal/game"
)

// WSHandler speaks the game protocol over a websocket: one connection drives
// one session at a time, and each begin supersedes the previous session.
type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type beginPayload struct {
	Mode        string `json:"mode"`
	RetryMissed bool   `json:"retryMissed"`
}

type answerPayload struct {
	Text string `json:"text"`
}

type bgmPayload struct {
	Enabled bool `json:"enabled"`
}

type readyPayload struct {
	Mode       string `json:"mode"`
	BGMEnabled bool   `json:"bgmEnabled"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the connection's message loop. The
// mode may be preselected with a ?mode= query parameter.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	defaultMode := domain.ParseMode(r.URL.Query().Get("mode"))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	connDone := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	emit := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-connDone:
		}
	}

	var (
		sessionID     string
		unsubscribe   func()
		forwarderDone chan struct{}
	)
	stopForwarder := func() {
		if unsubscribe != nil {
			unsubscribe()
			unsubscribe = nil
		}
		if forwarderDone != nil {
			<-forwarderDone
			forwarderDone = nil
		}
	}
	detach := func() {
		stopForwarder()
		if sessionID != "" {
			h.service.Supersede(sessionID)
			sessionID = ""
		}
	}

	send <- outboundMessage[any]{Type: "ready", Payload: readyPayload{
		Mode:       string(defaultMode),
		BGMEnabled: h.service.BGMEnabled(r.Context()),
	}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "begin":
			var payload beginPayload
			_ = json.Unmarshal(inbound.Payload, &payload)
			mode := defaultMode
			if payload.Mode != "" {
				mode = domain.ParseMode(payload.Mode)
			}

			var (
				session *game.Session
				err     error
			)
			if payload.RetryMissed && sessionID != "" {
				prevID := sessionID
				stopForwarder()
				sessionID = ""
				session, err = h.service.BeginRetry(r.Context(), prevID, mode)
			} else {
				detach()
				session, err = h.service.Begin(r.Context(), mode)
			}
			if err != nil {
				emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: beginErrorMessage(err)}})
				continue
			}
			sessionID = session.ID()

			events, cancel, err := h.service.Subscribe(sessionID)
			if err != nil {
				emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			unsubscribe = cancel
			forwarderDone = make(chan struct{})
			go func(events <-chan game.Event, done chan struct{}) {
				defer close(done)
				for ev := range events {
					emit(outboundMessage[any]{Type: string(ev.Type), Payload: ev})
				}
			}(events, forwarderDone)

		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			if sessionID == "" {
				emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "no active session"}})
				continue
			}
			// Out-of-phase submissions are no-ops inside the session.
			_ = h.service.Submit(sessionID, payload.Text)

		case "advance":
			if sessionID == "" {
				emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "no active session"}})
				continue
			}
			_ = h.service.Advance(sessionID)

		case "bgm":
			var payload bgmPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid bgm payload"}})
				continue
			}
			h.service.SetBGMEnabled(r.Context(), payload.Enabled)
			emit(outboundMessage[any]{Type: "bgm", Payload: bgmPayload{Enabled: payload.Enabled}})

		default:
			emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	close(connDone)
	detach()
	close(send)
	<-writerDone
}

// beginErrorMessage keeps row-validation details user-visible while masking
// everything else behind a generic message.
func beginErrorMessage(err error) string {
	var verr *domain.ValidationError
	var derr *domain.DuplicateIDError
	if errors.As(err, &verr) || errors.As(err, &derr) {
		return "question data is invalid: " + err.Error()
	}
	if errors.Is(err, domain.ErrNoQuestions) {
		return "no questions available"
	}
	return "could not start session"
}
