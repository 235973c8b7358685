package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/bestruirui/argus/internal/conf"
	"github.com/bestruirui/argus/internal/server/auth"
	"github.com/bestruirui/argus/internal/server/middleware"
	"github.com/bestruirui/argus/internal/server/resp"
	"github.com/bestruirui/argus/internal/server/router"
	"github.com/gin-gonic/gin"
)

func init() {
	router.NewGroupRouter("/api/v1/user").
		Use(middleware.RequireJSON()).
		AddRoute(
			router.NewRoute("/login", http.MethodPost).
				Handle(login),
		)
	router.NewGroupRouter("/api/v1/user").
		Use(middleware.Auth()).
		AddRoute(
			router.NewRoute("/status", http.MethodGet).
				Handle(status),
		)
}

type loginRequest struct {
	Password string `json:"password"`
	Expire   int    `json:"expire"`
}

type loginResponse struct {
	Token    string `json:"token"`
	ExpireAt string `json:"expire_at"`
}

func login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidJSON)
		return
	}
	password := conf.AppConfig.Auth.AccessPassword
	if password == "" {
		resp.Error(c, http.StatusUnauthorized, "access password is not configured")
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(password)) != 1 {
		resp.Error(c, http.StatusUnauthorized, resp.ErrUnauthorized)
		return
	}
	token, expire, err := auth.GenerateJWTToken(req.Expire)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, resp.ErrInternalServer)
		return
	}
	resp.Success(c, loginResponse{Token: token, ExpireAt: expire})
}

func status(c *gin.Context) {
	resp.Success(c, "ok")
}
