// roomprobe connects to a scenesync server, joins a room, and streams every
// server event to the console. Lines read from stdin are sent as chat.
// Usage: go run ./cmd/roomprobe -url ws://localhost:8080/ws -room demo -name probe
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"scenesync/internal/protocol"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "websocket endpoint")
	room := flag.String("room", "demo", "room id to join")
	name := flag.String("name", "probe", "display name")
	role := flag.String("role", "viewer", "requested permission (viewer, actor, director)")
	verbose := flag.Bool("verbose", false, "print full message JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, *url, nil)
	if err != nil {
		logger.Error("dial failed", "url", *url, "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := send(conn, protocol.Join{
		Type:       protocol.TypeJoin,
		RoomID:     *room,
		Username:   *name,
		Permission: *role,
	}); err != nil {
		logger.Error("join send failed", "error", err)
		os.Exit(1)
	}

	// Forward stdin lines as chat
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			err := send(conn, protocol.ChatMessage{
				Type:    protocol.TypeChatMessage,
				Message: scanner.Text(),
			})
			if err != nil {
				logger.Error("chat send failed", "error", err)
				return
			}
		}
	}()

	go func() {
		<-ctx.Done()
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				logger.Error("read failed", "error", err)
			}
			return
		}

		var env struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			logger.Warn("unparseable message", "error", err)
			continue
		}

		if *verbose {
			fmt.Printf("[%s] %s\n", env.Type, data)
		} else {
			fmt.Printf("[%s]\n", env.Type)
		}
	}
}

func send(conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
