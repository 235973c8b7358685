package handlers

import (
	"net/http"
	"strconv"

	"github.com/bestruirui/argus/internal/model"
	"github.com/bestruirui/argus/internal/server/middleware"
	"github.com/bestruirui/argus/internal/server/resp"
	"github.com/bestruirui/argus/internal/server/router"
	"github.com/bestruirui/argus/internal/source"
	"github.com/gin-gonic/gin"
)

func init() {
	router.NewGroupRouter("/api/v1/log").
		Use(middleware.Auth()).
		AddRoute(
			router.NewRoute("/list", http.MethodGet).
				Handle(listLogs),
		).
		AddRoute(
			router.NewRoute("/errors", http.MethodGet).
				Handle(listErrorLogs),
		)
}

func logFilterFromQuery(c *gin.Context) (source.LogFilter, error) {
	var filter source.LogFilter

	channelID, err := queryChannelID(c)
	if err != nil {
		return filter, err
	}
	filter.ChannelID = channelID
	filter.ModelName = c.Query("model")

	if filter.Start, err = queryInt64(c, "start"); err != nil {
		return filter, err
	}
	if filter.End, err = queryInt64(c, "end"); err != nil {
		return filter, err
	}
	return filter, nil
}

func listLogs(c *gin.Context) {
	filter, err := logFilterFromQuery(c)
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	logs, total, err := source.LogsList(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, gin.H{"logs": logs, "total": total, "page": page, "page_size": pageSize})
}

func listErrorLogs(c *gin.Context) {
	filter, err := logFilterFromQuery(c)
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}
	filter.Type = model.LogTypeError

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	logs, total, err := source.LogsList(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, gin.H{"logs": logs, "total": total, "page": page, "page_size": pageSize})
}
