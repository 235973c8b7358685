package handlers

import (
	"net/http"

	"github.com/bestruirui/argus/internal/server/middleware"
	"github.com/bestruirui/argus/internal/server/resp"
	"github.com/bestruirui/argus/internal/server/router"
	modelstatus "github.com/bestruirui/argus/internal/status"
	"github.com/gin-gonic/gin"
)

func init() {
	router.NewGroupRouter("/api/v1/model").
		Use(middleware.Auth()).
		AddRoute(
			router.NewRoute("/status", http.MethodGet).
				Handle(getModelStatusOverview),
		).
		AddRoute(
			router.NewRoute("/status/:name", http.MethodGet).
				Handle(getModelStatus),
		).
		AddRoute(
			router.NewRoute("/status-ranges", http.MethodGet).
				Handle(getStatusRanges),
		)
}

func getModelStatusOverview(c *gin.Context) {
	rangeName := c.DefaultQuery("range", "24h")
	overview, err := modelstatus.GetOverview(c.Request.Context(), rangeName)
	if err != nil {
		resp.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	resp.Success(c, overview)
}

func getModelStatus(c *gin.Context) {
	name := c.Param("name")
	rangeName := c.DefaultQuery("range", "24h")
	st, err := modelstatus.ForModel(c.Request.Context(), name, rangeName)
	if err != nil {
		resp.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	resp.Success(c, st)
}

func getStatusRanges(c *gin.Context) {
	resp.Success(c, modelstatus.Ranges())
}
