package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"diagnostic-service/internal/app"
	"diagnostic-service/internal/domain"
	"diagnostic-service/internal/share"
)

type WSHandler struct {
	service  *app.DiagnosticService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.DiagnosticService) *WSHandler {
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

type answerPayload struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type noticePayload struct {
	Message string `json:"message"`
}

type shareLinkPayload struct {
	Query string `json:"query"`
}

// ServeSession upgrades the request to a websocket and drives one diagnostic
// session over it. Share parameters on the URL are decoded once here, at
// page load: a well-formed payload enters the shared step, anything
// malformed silently falls back to the content entry.
func (h *WSHandler) ServeSession(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	bankID := query.Get("bankId")
	if bankID == "" {
		http.Error(w, "missing bankId", http.StatusBadRequest)
		return
	}

	var payload *domain.SharePayload
	if decoded, ok := share.Decode(query); ok {
		payload = &decoded
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	view, err := h.service.Open(r.Context(), bankID, payload)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	sessionID := view.SessionID
	defer h.service.Close(r.Context(), sessionID)

	events, cancel, err := h.service.Subscribe(r.Context(), sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				var msg outboundMessage[any]
				switch event.Type {
				case app.EventNotice:
					msg = outboundMessage[any]{Type: "notice", Payload: noticePayload{Message: event.Notice}}
				default:
					msg = outboundMessage[any]{Type: "session", Payload: event.Snapshot}
				}
				select {
				case send <- msg:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "session", Payload: view}
	if bank, err := h.service.Bank(r.Context(), bankID); err == nil {
		send <- outboundMessage[any]{Type: "bank", Payload: bank}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, sessionID, inbound, send)
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

// dispatch routes one inbound message. Step snapshots reach the client
// through the subscription pump; only refusals and share links are answered
// directly.
func (h *WSHandler) dispatch(r *http.Request, sessionID string, inbound inboundMessage, send chan<- outboundMessage[any]) {
	ctx := r.Context()
	var err error

	switch inbound.Type {
	case "startDiagnostic":
		_, err = h.service.StartDiagnostic(ctx, sessionID)
	case "startOwn":
		_, err = h.service.StartOwn(ctx, sessionID)
	case "readArticle":
		_, err = h.service.ReadArticle(ctx, sessionID)
	case "submitProfile":
		var profile domain.UserProfile
		if unmarshalErr := json.Unmarshal(inbound.Payload, &profile); unmarshalErr != nil {
			send <- errorMessage("invalid profile payload")
			return
		}
		_, err = h.service.SubmitProfile(ctx, sessionID, profile)
	case "answer":
		var payload answerPayload
		if unmarshalErr := json.Unmarshal(inbound.Payload, &payload); unmarshalErr != nil {
			send <- errorMessage("invalid answer payload")
			return
		}
		_, err = h.service.Answer(ctx, sessionID, payload.QuestionID, payload.OptionID)
	case "next":
		_, err = h.service.Next(ctx, sessionID)
	case "previous":
		_, err = h.service.Previous(ctx, sessionID)
	case "backToForm":
		_, err = h.service.BackToForm(ctx, sessionID)
	case "finalize":
		_, err = h.service.Finalize(ctx, sessionID)
	case "restart":
		_, err = h.service.Restart(ctx, sessionID)
	case "share":
		var query string
		query, err = h.service.ShareQuery(ctx, sessionID)
		if err == nil {
			send <- outboundMessage[any]{Type: "shareLink", Payload: shareLinkPayload{Query: query}}
		}
	default:
		send <- errorMessage("unsupported message type")
		return
	}

	if err != nil {
		send <- errorMessage(err.Error())
	}
}

func errorMessage(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}
