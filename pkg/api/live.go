package api

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/nextstop/nextstop/pkg/livestream"
	"github.com/nextstop/nextstop/pkg/transit"
	"github.com/rs/zerolog/log"
)

type liveInboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type liveOutboundMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// handleLive runs one live subscription connection. The client sends a
// single schedule:subscribe message and then receives schedule events
// whenever the assembled result changes, plus periodic heartbeats.
func (s *Server) handleLive(conn *websocket.Conn) {
	var writeMutex sync.Mutex

	writeMessage := func(message liveOutboundMessage) {
		writeMutex.Lock()
		defer writeMutex.Unlock()

		if err := conn.WriteJSON(message); err != nil {
			log.Debug().Err(err).Msg("Failed writing live event")
		}
	}

	writeError := func(text string) {
		writeMessage(liveOutboundMessage{
			Event: "error",
			Data:  text,
		})
	}

	var listener *livestream.Listener
	done := make(chan struct{})

	defer func() {
		close(done)

		if listener != nil {
			listener.Detach()
		}
	}()

	for {
		var message liveInboundMessage
		if err := conn.ReadJSON(&message); err != nil {
			return
		}

		if message.Event != "schedule:subscribe" {
			writeError("unknown event")
			continue
		}

		// One subscription per connection
		if listener != nil {
			writeError("connection already has a subscription")
			continue
		}

		var query transit.ScheduleQuery
		if err := json.Unmarshal(message.Data, &query); err != nil {
			writeError("malformed subscription payload")
			continue
		}

		if query.FeedCode == "" {
			writeError("subscriptions must name a feed code")
			continue
		}

		if err := query.Validate(transit.MaxLivePairs); err != nil {
			writeError(err.Error())
			continue
		}

		if _, err := s.Registry.Get(query.FeedCode); err != nil {
			writeError(err.Error())
			continue
		}

		listener = s.Live.Attach(query)

		go pumpEvents(listener, done, writeMessage)
	}
}

func pumpEvents(listener *livestream.Listener, done chan struct{}, writeMessage func(liveOutboundMessage)) {
	for {
		select {
		case <-done:
			return
		case event := <-listener.Events:
			switch event.Event {
			case livestream.EventSchedule:
				writeMessage(liveOutboundMessage{
					Event: livestream.EventSchedule,
					Data: map[string]interface{}{
						"trips": event.Trips,
					},
				})
			case livestream.EventHeartbeat:
				writeMessage(liveOutboundMessage{
					Event: livestream.EventHeartbeat,
					Data:  nil,
				})
			}
		}
	}
}
