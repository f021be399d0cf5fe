package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"atlas/api/log"
)

const (
	hubSendBuffer   = 16
	hubWriteTimeout = 5 * time.Second
	hubPongWait     = 60 * time.Second
)

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub 把 ready/update 事件推送给所有 websocket 客户端；
// 客户端发送缓冲满时直接丢弃该条消息，不阻塞同步 goroutine
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*hubClient]struct{}
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*hubClient]struct{}),
	}
}

// Observer 作为 MapService 的观察者
func (h *Hub) Observer() Observer {
	return func(e Event) {
		if e.Type != EventReady && e.Type != EventUpdate {
			return
		}
		msg, err := json.Marshal(e)
		if err != nil {
			log.Errorf("hub: marshal event: %v", err)
			return
		}
		h.Broadcast(msg)
	}
}

func (h *Hub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Serve 升级连接并阻塞到客户端断开或 ctx 结束
func (h *Hub) Serve(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &hubClient{conn: conn, send: make(chan []byte, hubSendBuffer)}
	h.add(c)
	defer func() {
		h.remove(c)
		conn.Close()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 读循环只用于感知断开
	go func() {
		defer cancel()
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(hubPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(hubPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(hubPongWait / 2)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
				time.Now().Add(time.Second))
			return nil
		case msg := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(hubWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(hubWriteTimeout)); err != nil {
				return err
			}
		}
	}
}

func (h *Hub) add(c *hubClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *hubClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}
