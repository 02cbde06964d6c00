package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	defaultStreamInterval = 100 * time.Millisecond
	minStreamInterval     = 10 * time.Millisecond
	streamWriteWait       = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleStream отправляет снимки арены по websocket.
// ?format=frame - бинарные кадры protocol, иначе JSON; ?interval_ms=N - период.
func (rs *RestServer) handleStream(c *gin.Context) {
	interval := rs.streamInterval
	if raw := c.Query("interval_ms"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || time.Duration(ms)*time.Millisecond < minStreamInterval {
			c.JSON(http.StatusBadRequest, GenericResponse{Message: "Неверный interval_ms"})
			return
		}
		interval = time.Duration(ms) * time.Millisecond
	}
	binary := c.Query("format") == "frame"
	if binary && rs.codec == nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "Кадры protocol не поддерживаются"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		rs.logger.Warn("Ошибка upgrade websocket для %s: %v", c.ClientIP(), err)
		return
	}
	defer conn.Close()
	rs.logger.Debug("📡 Поток снимков для %s, период %v", c.ClientIP(), interval)

	// Клиент ничего не шлет; чтение нужно, чтобы заметить закрытие
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := rs.writeSnapshot(conn, binary); err != nil {
			rs.logger.Debug("Поток снимков для %s закрыт: %v", c.ClientIP(), err)
			return
		}

		select {
		case <-ticker.C:
		case <-closed:
			return
		case <-rs.done:
			message := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown")
			_ = conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(streamWriteWait))
			return
		}
	}
}

func (rs *RestServer) writeSnapshot(conn *websocket.Conn, binary bool) error {
	snapshot := rs.service.Snapshot()
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}

	if binary {
		frame, err := rs.codec.Encode(snapshot)
		if err != nil {
			return err
		}
		return conn.WriteMessage(websocket.BinaryMessage, frame)
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
