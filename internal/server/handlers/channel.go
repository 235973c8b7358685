package handlers

import (
	"net/http"
	"strconv"

	"github.com/bestruirui/argus/internal/op"
	"github.com/bestruirui/argus/internal/server/middleware"
	"github.com/bestruirui/argus/internal/server/resp"
	"github.com/bestruirui/argus/internal/server/router"
	"github.com/bestruirui/argus/internal/source"
	"github.com/gin-gonic/gin"
)

func init() {
	router.NewGroupRouter("/api/v1/channel").
		Use(middleware.Auth()).
		AddRoute(
			router.NewRoute("/list", http.MethodGet).
				Handle(listChannels),
		).
		AddRoute(
			router.NewRoute("/snapshots", http.MethodGet).
				Handle(listChannelSnapshots),
		)
}

func listChannels(c *gin.Context) {
	channels, err := source.ChannelList(c.Request.Context())
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, channels)
}

func listChannelSnapshots(c *gin.Context) {
	channelID, err := queryChannelID(c)
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}
	start, err := queryInt64(c, "start")
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}
	end, err := queryInt64(c, "end")
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "500"))

	snapshots, err := op.SnapshotList(c.Request.Context(), channelID, start, end, limit)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, snapshots)
}
