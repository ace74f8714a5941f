// Package hasstest provides a fake Home Assistant for tests.
package hasstest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/nergy-se/insight/pkg/statistics"
)

type Command struct {
	ID           int      `json:"id"`
	Type         string   `json:"type"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	StatisticIDs []string `json:"statistic_ids"`
	Period       string   `json:"period"`
	Types        []string `json:"types"`
}

type Server struct {
	*httptest.Server
	Token string

	upgrader websocket.Upgrader

	mu       sync.Mutex
	stats    statistics.Result
	states   map[string]string
	commands []Command
	failNext bool
	hold     chan struct{}
}

func New(token string) *Server {
	s := &Server{
		Token:  token,
		stats:  statistics.Result{},
		states: map[string]string{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/websocket", s.handleWebsocket)
	mux.HandleFunc("/api/states/", s.handleState)
	s.Server = httptest.NewServer(mux)
	return s
}

// SetStatistics replaces the statistics returned for every request. Ids not
// requested are filtered out the way the recorder does.
func (s *Server) SetStatistics(r statistics.Result) {
	s.mu.Lock()
	s.stats = r
	s.mu.Unlock()
}

func (s *Server) SetState(entityID, state string) {
	s.mu.Lock()
	s.states[entityID] = state
	s.mu.Unlock()
}

// FailNext makes the next statistics command return an error result.
func (s *Server) FailNext() {
	s.mu.Lock()
	s.failNext = true
	s.mu.Unlock()
}

// Hold delays statistics results until the returned release func is called.
func (s *Server) Hold() (release func()) {
	hold := make(chan struct{})
	s.mu.Lock()
	s.hold = hold
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.hold = nil
			s.mu.Unlock()
			close(hold)
		})
	}
}

func (s *Server) Commands() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Command(nil), s.commands...)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+s.Token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/states/")
	s.mu.Lock()
	state, ok := s.states[id]
	s.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"entity_id": id, "state": state})
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	err = conn.WriteJSON(map[string]string{"type": "auth_required", "ha_version": "2026.2.0"})
	if err != nil {
		return
	}
	auth := map[string]string{}
	err = conn.ReadJSON(&auth)
	if err != nil {
		return
	}
	if auth["type"] != "auth" || auth["access_token"] != s.Token {
		_ = conn.WriteJSON(map[string]string{"type": "auth_invalid", "message": "Invalid access token or password"})
		return
	}
	err = conn.WriteJSON(map[string]string{"type": "auth_ok", "ha_version": "2026.2.0"})
	if err != nil {
		return
	}

	for {
		cmd := Command{}
		err = conn.ReadJSON(&cmd)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.commands = append(s.commands, cmd)
		fail := s.failNext
		s.failNext = false
		result := statistics.Result{}
		for _, id := range cmd.StatisticIDs {
			if samples, ok := s.stats[id]; ok {
				result[id] = samples
			}
		}
		hold := s.hold
		s.mu.Unlock()

		if hold != nil {
			<-hold
		}

		if fail || cmd.Type != "recorder/statistics_during_period" {
			err = conn.WriteJSON(map[string]interface{}{
				"id":      cmd.ID,
				"type":    "result",
				"success": false,
				"error":   map[string]string{"code": "unknown_command", "message": "Unknown command."},
			})
		} else {
			// interleaved event from another subscription
			_ = conn.WriteJSON(map[string]interface{}{"id": 99, "type": "event"})
			err = conn.WriteJSON(map[string]interface{}{
				"id":      cmd.ID,
				"type":    "result",
				"success": true,
				"result":  result,
			})
		}
		if err != nil {
			return
		}
	}
}
