package ws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	feed *Feed
	Done chan struct{}
}

func NewClient(userID string, conn *websocket.Conn, feed *Feed) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 64),
		feed:   feed,
		Done:   make(chan struct{}),
	}
}

func (c *Client) Run() {
	go c.writePump()
	go c.readPump()

	// push the first snapshot immediately, then on every tick
	c.pushSnapshot()

	ticker := time.NewTicker(c.feed.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.pushSnapshot()
		case <-c.Done:
			return
		}
	}
}

// pushSnapshot catches up pending auto-mining accrual and queues the
// current status frame. A full send buffer drops the frame; the next
// tick carries fresher data anyway.
func (c *Client) pushSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := c.feed.Accrual.CatchUp(ctx, c.UserID); err != nil {
		log.Printf("ws feed: accrual catch-up for user=%s: %v", c.UserID, err)
	}

	status, err := c.feed.Mining.GetStatus(ctx, c.UserID)
	if err != nil {
		log.Printf("ws feed: status for user=%s: %v", c.UserID, err)
		return
	}

	user, err := c.feed.UserRepo.GetByID(ctx, c.UserID)
	if err != nil {
		log.Printf("ws feed: user lookup for user=%s: %v", c.UserID, err)
		return
	}

	frame, err := json.Marshal(map[string]any{
		"type":             "status",
		"mining":           status,
		"total_coins":      user.TotalCoins,
		"coins_per_second": user.CoinsPerSecond,
	})
	if err != nil {
		return
	}

	select {
	case c.Send <- frame:
	default:
	}
}

// readPump only watches for close and pongs; the feed is one-way.
func (c *Client) readPump() {
	defer func() {
		close(c.Done)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(1024)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.Done:
			return
		}
	}
}
