package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs attaches an upgraded connection to the hub and blocks until it closes.
func ServeWs(hub *Hub, c *websocket.Conn, sessionID string) {
	client := &Client{Hub: hub, Conn: c, SessionID: sessionID, Send: make(chan []byte, sendBuffer)}
	hub.Register(client)

	go client.writePump()
	client.readPump()
}
