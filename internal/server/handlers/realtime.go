package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bestruirui/argus/internal/op"
	"github.com/bestruirui/argus/internal/server/middleware"
	"github.com/bestruirui/argus/internal/server/resp"
	"github.com/bestruirui/argus/internal/server/router"
	"github.com/gin-gonic/gin"
)

func init() {
	router.NewGroupRouter("/api/v1/realtime").
		Use(middleware.Auth()).
		AddRoute(
			router.NewRoute("/current", http.MethodGet).
				Handle(getRealtime),
		).
		AddRoute(
			router.NewRoute("/stream-token", http.MethodGet).
				Handle(getRealtimeStreamToken),
		)

	// EventSource cannot set headers, so the stream authenticates with a
	// one-shot token instead of the bearer middleware.
	router.NewGroupRouter("/api/v1/realtime").
		AddRoute(
			router.NewRoute("/stream", http.MethodGet).
				Handle(streamRealtime),
		)
}

func getRealtime(c *gin.Context) {
	resp.Success(c, op.RealtimeGet())
}

func getRealtimeStreamToken(c *gin.Context) {
	token, err := op.RealtimeStreamTokenCreate()
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, gin.H{"token": token})
}

func streamRealtime(c *gin.Context) {
	token := c.Query("token")
	if token == "" || !op.RealtimeStreamTokenVerify(token) {
		resp.Error(c, http.StatusUnauthorized, "invalid stream token")
		return
	}

	op.RealtimeStreamTokenRevoke(token)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	statsChan := op.RealtimeSubscribe()
	defer op.RealtimeUnsubscribe(statsChan)

	ctx := c.Request.Context()

	for {
		select {
		case <-ctx.Done():
			return
		case stats, ok := <-statsChan:
			if !ok {
				return
			}
			data, err := json.Marshal(stats)
			if err != nil {
				continue
			}
			c.Writer.Write([]byte(fmt.Sprintf("data: %s\n\n", data)))
			c.Writer.Flush()
		}
	}
}
