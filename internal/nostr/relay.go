package nostr

import (
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/net/websocket"

	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
	"github.com/trustwaveapp/trustwave-server/internal/id"
)

const (
	defaultQueryTimeout   = 15 * time.Second
	defaultPublishTimeout = 10 * time.Second
	defaultOrigin         = "https://trustwave.local"
)

// Store is a signed-event store: query by filter, publish with acknowledgment.
type Store interface {
	Query(ctx context.Context, filter Filter) ([]*Event, error)
	Publish(ctx context.Context, ev *Event) error
	URL() string
}

// ClientOptions configures a relay client.
type ClientOptions struct {
	QueryTimeout   time.Duration
	PublishTimeout time.Duration
	// SkipVerify disables signature checks on received events.
	SkipVerify bool
}

// Client talks to one relay. Each operation uses its own connection and is
// bounded by a timeout, so a stalled relay degrades a single call only.
type Client struct {
	url            string
	queryTimeout   time.Duration
	publishTimeout time.Duration
	skipVerify     bool
	logger         *slog.Logger
}

// NewClient creates a relay client for url.
func NewClient(url string, opts ClientOptions, logger *slog.Logger) *Client {
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = defaultQueryTimeout
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = defaultPublishTimeout
	}
	return &Client{
		url:            url,
		queryTimeout:   opts.QueryTimeout,
		publishTimeout: opts.PublishTimeout,
		skipVerify:     opts.SkipVerify,
		logger:         logger.With("relay", url),
	}
}

// URL returns the relay URL.
func (c *Client) URL() string {
	return c.url
}

// Query sends a REQ and collects events until EOSE.
//
// A timeout after at least one event returns the events received so far with a
// PartialData error. Any other failure is a Transport error. Events with a bad
// id or signature are dropped; duplicate ids are collapsed.
func (c *Client) Query(ctx context.Context, filter Filter) ([]*Event, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	subID, err := id.Generate("sub")
	if err != nil {
		return nil, domainerrors.Transport("create subscription id", err)
	}
	if err := c.send(conn, "REQ", subID, filter); err != nil {
		return nil, err
	}

	var events []*Event
	seen := make(map[string]struct{})

	for {
		msg, err := c.receive(ctx, conn)
		if err != nil {
			if len(events) > 0 {
				c.logger.Warn("query ended before EOSE", "sub", subID, "received", len(events), "error", err)
				return events, domainerrors.PartialData("relay query ended before end of stored events", len(events), err)
			}
			return nil, err
		}

		switch msg.label {
		case "EVENT":
			if len(msg.args) < 2 || msg.stringArg(0) != subID {
				continue
			}
			var ev Event
			if err := json.Unmarshal(msg.args[1], &ev); err != nil {
				c.logger.Debug("dropping undecodable event", "error", err)
				continue
			}
			if _, dup := seen[ev.ID]; dup {
				continue
			}
			if !c.accept(&ev) {
				continue
			}
			seen[ev.ID] = struct{}{}
			events = append(events, &ev)

		case "EOSE":
			if msg.stringArg(0) != subID {
				continue
			}
			// Best effort; the connection is closed right after anyway.
			_ = c.send(conn, "CLOSE", subID)
			c.logger.Debug("query complete", "sub", subID, "events", len(events))
			return events, nil

		case "CLOSED":
			if msg.stringArg(0) != subID {
				continue
			}
			reason := msg.stringArg(1)
			if len(events) > 0 {
				return events, domainerrors.PartialData("relay closed subscription: "+reason, len(events), nil)
			}
			return nil, domainerrors.Transportf("relay closed subscription: %s", reason)

		case "NOTICE":
			c.logger.Warn("relay notice", "message", msg.stringArg(0))
		}
	}
}

// Publish sends an event and waits for the relay's OK.
// A rejection becomes an Authorization error carrying the relay's reason verbatim.
func (c *Client) Publish(ctx context.Context, ev *Event) error {
	ctx, cancel := context.WithTimeout(ctx, c.publishTimeout)
	defer cancel()

	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := c.send(conn, "EVENT", ev); err != nil {
		return err
	}

	for {
		msg, err := c.receive(ctx, conn)
		if err != nil {
			return err
		}

		switch msg.label {
		case "OK":
			if len(msg.args) < 2 || msg.stringArg(0) != ev.ID {
				continue
			}
			var accepted bool
			if err := json.Unmarshal(msg.args[1], &accepted); err != nil {
				return domainerrors.Transport("malformed OK from relay", err)
			}
			if !accepted {
				reason := msg.stringArg(2)
				c.logger.Warn("publish rejected", "event", ev.ID, "kind", ev.Kind, "reason", reason)
				return domainerrors.Authorization(reason)
			}
			c.logger.Debug("publish acknowledged", "event", ev.ID, "kind", ev.Kind)
			return nil

		case "NOTICE":
			c.logger.Warn("relay notice", "message", msg.stringArg(0))
		}
	}
}

func (c *Client) accept(ev *Event) bool {
	if c.skipVerify {
		return true
	}
	if err := Verify(ev); err != nil {
		c.logger.Debug("dropping event with invalid signature", "event", ev.ID, "error", err)
		return false
	}
	return true
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	cfg, err := websocket.NewConfig(c.url, defaultOrigin)
	if err != nil {
		return nil, domainerrors.Transport("invalid relay url", err)
	}

	conn, err := cfg.DialContext(ctx)
	if err != nil {
		return nil, domainerrors.Transport(fmt.Sprintf("connect to %s", c.url), err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	// Unblock pending reads when the caller cancels.
	context.AfterFunc(ctx, func() { _ = conn.Close() })

	return conn, nil
}

func (c *Client) send(conn *websocket.Conn, label string, args ...any) error {
	frame := append([]any{label}, args...)
	data, err := json.Marshal(frame)
	if err != nil {
		return domainerrors.Transport("encode "+label, err)
	}
	if err := websocket.Message.Send(conn, string(data)); err != nil {
		return domainerrors.Transport("send "+label, err)
	}
	return nil
}

// relayMessage is one decoded relay-to-client frame.
type relayMessage struct {
	label string
	args  []jsontext.Value
}

func (m relayMessage) stringArg(i int) string {
	if i >= len(m.args) {
		return ""
	}
	var s string
	if err := json.Unmarshal(m.args[i], &s); err != nil {
		return ""
	}
	return s
}

func (c *Client) receive(ctx context.Context, conn *websocket.Conn) (relayMessage, error) {
	for {
		var data string
		if err := websocket.Message.Receive(conn, &data); err != nil {
			if ctx.Err() != nil {
				return relayMessage{}, domainerrors.Transport("relay timed out", ctx.Err())
			}
			return relayMessage{}, domainerrors.Transport("read from relay", err)
		}

		var frame []jsontext.Value
		if err := json.Unmarshal([]byte(data), &frame); err != nil || len(frame) == 0 {
			c.logger.Debug("ignoring malformed relay frame", "frame", data)
			continue
		}

		var label string
		if err := json.Unmarshal(frame[0], &label); err != nil {
			continue
		}
		return relayMessage{label: label, args: frame[1:]}, nil
	}
}
