package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"livepoll/internal/model"
	"livepoll/internal/transport/ws"
)

// Client wires a Reconciler to a running server: it seeds the local view
// from the REST snapshot, pumps broadcast events into the reconciler, and
// sends commands over the push channel. After any reconnect the snapshot
// must be fetched again before trusting events, since there is no sequence
// number or replay to detect gaps.
type Client struct {
	baseURL string
	wsURL   string
	rec     *Reconciler
	http    *http.Client

	mu   sync.Mutex
	conn *websocket.Conn
}

// New creates a client for the server at baseURL (e.g. http://host:8080).
func New(baseURL, identity string, role model.Role) *Client {
	base := strings.TrimSuffix(baseURL, "/")
	wsURL := strings.Replace(base, "http", "ws", 1) + "/ws"

	return &Client{
		baseURL: base,
		wsURL:   wsURL,
		rec:     NewReconciler(identity, role),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Reconciler exposes the local view state machine.
func (c *Client) Reconciler() *Reconciler {
	return c.rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// FetchSnapshot fetches the active poll snapshot and seeds the
// reconciler. A nil view means no poll is active.
func (c *Client) FetchSnapshot(ctx context.Context) (*model.PollView, error) {
	var view *model.PollView
	if err := c.get(ctx, "/polls/active", &view); err != nil {
		return nil, err
	}
	c.rec.Seed(view)
	return view, nil
}

// FetchHistory fetches every past poll with its results, newest first.
func (c *Client) FetchHistory(ctx context.Context) ([]*model.PollView, error) {
	var history []*model.PollView
	if err := c.get(ctx, "/polls/history", &history); err != nil {
		return nil, err
	}
	return history, nil
}

// Connect dials the push channel, seeds the reconciler from a fresh
// snapshot, joins the active poll if one exists, and starts pumping
// events until ctx is done or the connection drops.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial push channel: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	view, err := c.FetchSnapshot(ctx)
	if err != nil {
		conn.Close()
		return err
	}
	if view != nil && c.rec.Identity() != "" && !c.rec.Kicked() {
		if err := c.JoinPoll(view.ID); err != nil {
			conn.Close()
			return err
		}
	}

	go c.readLoop(conn)
	return nil
}

// Close tears down the push connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var msg ws.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		rejoin, err := c.rec.Apply(msg)
		if err != nil {
			continue
		}
		if rejoin {
			_ = c.JoinPoll(c.rec.ActivePollID())
		}
	}
}

// JoinPoll issues the idempotent join command for the local identity.
func (c *Client) JoinPoll(pollID string) error {
	return c.send(ws.CmdJoinPoll, &ws.JoinPollPayload{
		PollID:      pollID,
		StudentName: c.rec.Identity(),
	})
}

// CreatePoll asks the coordinator to start a new poll.
func (c *Client) CreatePoll(question string, options []model.PollOption, duration int) error {
	return c.send(ws.CmdCreatePoll, &ws.CreatePollPayload{
		Question: question,
		Options:  options,
		Duration: duration,
	})
}

// SubmitVote optimistically marks the vote locally, then submits it. The
// marker is rolled back if the command never leaves this process; a
// server-side rejection arrives as an error_event.
func (c *Client) SubmitVote(pollID, optionID string) error {
	if err := c.rec.BeginVote(optionID); err != nil {
		return err
	}
	err := c.send(ws.CmdSubmitVote, &ws.SubmitVotePayload{
		PollID:         pollID,
		StudentName:    c.rec.Identity(),
		SelectedOption: optionID,
	})
	if err != nil {
		c.rec.FailVote(err.Error())
	}
	return err
}

// SendMessage posts a chat message as the local identity.
func (c *Client) SendMessage(pollID, text string) error {
	return c.send(ws.CmdSendMessage, &ws.SendMessagePayload{
		PollID:     pollID,
		SenderName: c.rec.Identity(),
		SenderRole: c.rec.Role(),
		Text:       text,
	})
}

// KickUser removes a participant from the poll.
func (c *Client) KickUser(pollID, studentName string) error {
	return c.send(ws.CmdKickUser, &ws.KickUserPayload{
		PollID:      pollID,
		StudentName: studentName,
	})
}

// EndPoll completes the poll ahead of its deadline.
func (c *Client) EndPoll(pollID string) error {
	return c.send(ws.CmdEndPoll, &ws.EndPollPayload{PollID: pollID})
}

func (c *Client) send(msgType ws.MessageType, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("client: not connected")
	}
	return c.conn.WriteJSON(&ws.Message{Type: msgType, Payload: data})
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !env.Success {
		return fmt.Errorf("request failed: %s", env.Message)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
