package handlers

import (
	"net/http"
	"strconv"

	"github.com/bestruirui/argus/internal/alerter"
	"github.com/bestruirui/argus/internal/model"
	"github.com/bestruirui/argus/internal/op"
	"github.com/bestruirui/argus/internal/server/middleware"
	"github.com/bestruirui/argus/internal/server/resp"
	"github.com/bestruirui/argus/internal/server/router"
	"github.com/gin-gonic/gin"
)

func init() {
	router.NewGroupRouter("/api/v1/alert").
		Use(middleware.Auth()).
		AddRoute(
			router.NewRoute("/list", http.MethodGet).
				Handle(listAlerts),
		).
		AddRoute(
			router.NewRoute("/types", http.MethodGet).
				Handle(getAlertTypes),
		).
		AddRoute(
			router.NewRoute("/history", http.MethodGet).
				Handle(listAlertHistory),
		).
		AddRoute(
			router.NewRoute("/create", http.MethodPost).
				Use(middleware.RequireJSON()).
				Handle(createAlert),
		).
		AddRoute(
			router.NewRoute("/update", http.MethodPut).
				Use(middleware.RequireJSON()).
				Handle(updateAlert),
		).
		AddRoute(
			router.NewRoute("/toggle/:id", http.MethodPost).
				Handle(toggleAlert),
		).
		AddRoute(
			router.NewRoute("/delete/:id", http.MethodDelete).
				Handle(deleteAlert),
		)
}

type alertRequest struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Rule           string `json:"rule"`
	Enabled        *bool  `json:"enabled"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	NotifyTelegram bool   `json:"notify_telegram"`
	NotifyFeishu   bool   `json:"notify_feishu"`
	NotifyWecom    bool   `json:"notify_wecom"`
	TriggerAction  string `json:"trigger_action"`
}

// toAlert validates the request and fills a storable alert. Rules are checked
// at write time so the checker never has to reject a stored rule.
func (req *alertRequest) toAlert() (model.Alert, string) {
	if req.Name == "" {
		return model.Alert{}, "alert name is required"
	}
	rule, err := model.ParseAlertRule(req.Rule)
	if err != nil {
		return model.Alert{}, err.Error()
	}
	if err := rule.Validate(); err != nil {
		return model.Alert{}, err.Error()
	}

	action := req.TriggerAction
	if action == "" {
		action = model.TriggerActionNotify
	}
	if action != model.TriggerActionNotify && action != model.TriggerActionDisable {
		return model.Alert{}, "unknown trigger action: " + action
	}

	alert := model.Alert{
		ID:             req.ID,
		Name:           req.Name,
		Rule:           req.Rule,
		Enabled:        true,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		NotifyTelegram: req.NotifyTelegram,
		NotifyFeishu:   req.NotifyFeishu,
		NotifyWecom:    req.NotifyWecom,
		TriggerAction:  action,
	}
	if req.Enabled != nil {
		alert.Enabled = *req.Enabled
	}
	if alert.StartTime == "" {
		alert.StartTime = "00:00"
	}
	if alert.EndTime == "" {
		alert.EndTime = "23:59"
	}
	return alert, ""
}

func listAlerts(c *gin.Context) {
	alerts, err := op.AlertList(c.Request.Context())
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, alerts)
}

func getAlertTypes(c *gin.Context) {
	resp.Success(c, alerter.Types())
}

func listAlertHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	var alertID *int
	if raw := c.Query("alert_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
			return
		}
		alertID = &id
	}

	history, err := op.HistoryList(c.Request.Context(), limit, alertID)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, history)
}

func createAlert(c *gin.Context) {
	var req alertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidJSON)
		return
	}
	alert, errMsg := req.toAlert()
	if errMsg != "" {
		resp.Error(c, http.StatusBadRequest, errMsg)
		return
	}
	alert.ID = 0
	if err := op.AlertCreate(c.Request.Context(), &alert); err != nil {
		resp.Error(c, http.StatusInternalServerError, resp.ErrDatabase)
		return
	}
	resp.Success(c, alert)
}

func updateAlert(c *gin.Context) {
	var req alertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidJSON)
		return
	}
	if req.ID <= 0 {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}
	alert, errMsg := req.toAlert()
	if errMsg != "" {
		resp.Error(c, http.StatusBadRequest, errMsg)
		return
	}
	if _, err := op.AlertGet(c.Request.Context(), alert.ID); err != nil {
		resp.Error(c, http.StatusNotFound, resp.ErrResourceNotFound)
		return
	}
	if err := op.AlertUpdate(c.Request.Context(), &alert); err != nil {
		resp.Error(c, http.StatusInternalServerError, resp.ErrDatabase)
		return
	}
	resp.Success(c, alert)
}

func toggleAlert(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}
	alert, err := op.AlertGet(c.Request.Context(), id)
	if err != nil {
		resp.Error(c, http.StatusNotFound, resp.ErrResourceNotFound)
		return
	}
	if err := op.AlertToggle(c.Request.Context(), id, !alert.Enabled); err != nil {
		resp.Error(c, http.StatusInternalServerError, resp.ErrDatabase)
		return
	}
	resp.Success(c, gin.H{"id": id, "enabled": !alert.Enabled})
}

func deleteAlert(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}
	if err := op.AlertDelete(c.Request.Context(), id); err != nil {
		resp.Error(c, http.StatusInternalServerError, resp.ErrDatabase)
		return
	}
	resp.Success(c, nil)
}
