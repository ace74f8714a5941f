package hass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nergy-se/insight/pkg/statistics"
	"github.com/sirupsen/logrus"
)

var httpClient = &http.Client{
	Timeout: time.Second * 30,
}

const defaultTimeout = 30 * time.Second

var ErrAuthInvalid = errors.New("home assistant rejected the access token")

// ErrStateUnavailable is returned for sensors reporting unknown or unavailable.
var ErrStateUnavailable = errors.New("state unavailable")

type Client struct {
	server string
	token  func() string
	dialer *websocket.Dialer
}

// New returns a client for the Home Assistant instance at server. token is
// called on every request so a refreshed token is picked up.
func New(server string, token func() string) *Client {
	return &Client{
		server: strings.TrimRight(server, "/"),
		token:  token,
		dialer: websocket.DefaultDialer,
	}
}

type StatisticsRequest struct {
	Start  time.Time
	End    time.Time
	IDs    []string
	Period string
	Types  []string
}

type message struct {
	ID          int             `json:"id,omitempty"`
	Type        string          `json:"type"`
	AccessToken string          `json:"access_token,omitempty"`
	Success     *bool           `json:"success,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       *apiError       `json:"error,omitempty"`
	Message     string          `json:"message,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type statisticsCommand struct {
	ID           int      `json:"id"`
	Type         string   `json:"type"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	StatisticIDs []string `json:"statistic_ids"`
	Period       string   `json:"period"`
	Types        []string `json:"types"`
}

func (c *Client) websocketURL() (string, error) {
	u, err := url.Parse(c.server)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/websocket"
	return u.String(), nil
}

// StatisticsDuringPeriod fetches recorder statistics over the websocket API.
func (c *Client) StatisticsDuringPeriod(ctx context.Context, req StatisticsRequest) (statistics.Result, error) {
	u, err := c.websocketURL()
	if err != nil {
		return nil, err
	}
	conn, _, err := c.dialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("error dialing %s: %w", u, err)
	}
	defer conn.Close()

	// unblock reads when ctx is cancelled
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultTimeout)
	}
	err = conn.SetReadDeadline(deadline)
	if err != nil {
		return nil, err
	}

	err = c.authenticate(conn)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	period := req.Period
	if period == "" {
		period = "day"
	}
	types := req.Types
	if len(types) == 0 {
		types = []string{"change", "mean"}
	}
	cmd := statisticsCommand{
		ID:           1,
		Type:         "recorder/statistics_during_period",
		StartTime:    req.Start.UTC().Format(time.RFC3339),
		EndTime:      req.End.UTC().Format(time.RFC3339),
		StatisticIDs: req.IDs,
		Period:       period,
		Types:        types,
	}
	err = conn.WriteJSON(cmd)
	if err != nil {
		return nil, err
	}

	for {
		msg := &message{}
		err = conn.ReadJSON(msg)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("error reading statistics response: %w", ctx.Err())
			}
			return nil, fmt.Errorf("error reading statistics response: %w", err)
		}
		if msg.ID != cmd.ID || msg.Type != "result" {
			logrus.Debugf("hass: skipping message id=%d type=%s", msg.ID, msg.Type)
			continue
		}
		if msg.Success == nil || !*msg.Success {
			if msg.Error != nil {
				return nil, fmt.Errorf("statistics_during_period failed: %s: %s", msg.Error.Code, msg.Error.Message)
			}
			return nil, fmt.Errorf("statistics_during_period failed")
		}
		result := statistics.Result{}
		err = json.Unmarshal(msg.Result, &result)
		if err != nil {
			return nil, fmt.Errorf("error decoding statistics: %w", err)
		}
		return result, nil
	}
}

func (c *Client) authenticate(conn *websocket.Conn) error {
	msg := &message{}
	err := conn.ReadJSON(msg)
	if err != nil {
		return err
	}
	if msg.Type != "auth_required" {
		return fmt.Errorf("unexpected message %q, expected auth_required", msg.Type)
	}

	err = conn.WriteJSON(message{Type: "auth", AccessToken: c.token()})
	if err != nil {
		return err
	}

	msg = &message{}
	err = conn.ReadJSON(msg)
	if err != nil {
		return err
	}
	switch msg.Type {
	case "auth_ok":
		return nil
	case "auth_invalid":
		return fmt.Errorf("%w: %s", ErrAuthInvalid, msg.Message)
	}
	return fmt.Errorf("unexpected message %q during auth", msg.Type)
}

type entityState struct {
	EntityID string `json:"entity_id"`
	State    string `json:"state"`
}

// State returns the numeric state of an entity from the REST API.
func (c *Client) State(ctx context.Context, entityID string) (float64, error) {
	u := fmt.Sprintf("%s/api/states/%s", c.server, url.PathEscape(entityID))
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return 0, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Add("Authorization", "Bearer "+c.token())

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return 0, fmt.Errorf("error fetching state of %s StatusCode: %d", entityID, resp.StatusCode)
	}

	response := &entityState{}
	err = json.NewDecoder(resp.Body).Decode(response)
	if err != nil {
		return 0, err
	}
	switch response.State {
	case "unknown", "unavailable", "":
		return 0, fmt.Errorf("%s: %w", entityID, ErrStateUnavailable)
	}
	f, err := strconv.ParseFloat(response.State, 64)
	if err != nil {
		return 0, fmt.Errorf("state of %s is not numeric: %w", entityID, err)
	}
	return f, nil
}
