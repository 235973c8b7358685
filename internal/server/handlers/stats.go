package handlers

import (
	"net/http"
	"strconv"

	"github.com/bestruirui/argus/internal/op"
	"github.com/bestruirui/argus/internal/server/middleware"
	"github.com/bestruirui/argus/internal/server/resp"
	"github.com/bestruirui/argus/internal/server/router"
	"github.com/gin-gonic/gin"
)

func init() {
	router.NewGroupRouter("/api/v1/stats").
		Use(middleware.Auth()).
		AddRoute(
			router.NewRoute("/list", http.MethodGet).
				Handle(listStats),
		).
		AddRoute(
			router.NewRoute("/summary", http.MethodGet).
				Handle(getStatsSummary),
		).
		AddRoute(
			router.NewRoute("/group", http.MethodGet).
				Handle(getStatsGrouped),
		).
		AddRoute(
			router.NewRoute("/errors", http.MethodGet).
				Handle(getErrorSummary),
		).
		AddRoute(
			router.NewRoute("/latency-trend", http.MethodGet).
				Handle(getLatencyTrend),
		)
}

func listStats(c *gin.Context) {
	filter, err := statFilterFromQuery(c)
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}
	stats, err := op.StatsList(c.Request.Context(), filter)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, stats)
}

func getStatsSummary(c *gin.Context) {
	filter, err := statFilterFromQuery(c)
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}
	summary, err := op.StatsSummarize(c.Request.Context(), filter)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, summary)
}

// getStatsGrouped totals usage per channel or per model, busiest first.
func getStatsGrouped(c *gin.Context) {
	filter, err := statFilterFromQuery(c)
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}

	column := "channel_id"
	if c.DefaultQuery("by", "channel") == "model" {
		column = "model_name"
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	rows, err := op.StatsGroupBy(c.Request.Context(), column, filter, limit)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, rows)
}

func getErrorSummary(c *gin.Context) {
	filter, err := statFilterFromQuery(c)
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	rows, err := op.StatsErrorSummary(c.Request.Context(), filter, limit)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, rows)
}

func getLatencyTrend(c *gin.Context) {
	filter, err := statFilterFromQuery(c)
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}
	rows, err := op.StatsLatencyTrend(c.Request.Context(), filter)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, rows)
}
