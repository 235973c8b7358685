package handlers

import (
	"net/http"

	"github.com/bestruirui/argus/internal/server/middleware"
	"github.com/bestruirui/argus/internal/server/resp"
	"github.com/bestruirui/argus/internal/server/router"
	"github.com/bestruirui/argus/internal/source"
	"github.com/gin-gonic/gin"
)

func init() {
	router.NewGroupRouter("/api/v1/token").
		Use(middleware.Auth()).
		AddRoute(
			router.NewRoute("/list", http.MethodGet).
				Handle(listTokens),
		)
}

func listTokens(c *gin.Context) {
	tokens, err := source.TokenList(c.Request.Context())
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, tokens)
}
