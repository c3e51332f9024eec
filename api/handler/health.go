package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todo/api/transport"
	"github.com/fastygo/todo/internal/infrastructure/monitor"
	"github.com/fastygo/todo/pkg/httpcontext"
)

// StatusReporter exposes the last known store state.
type StatusReporter interface {
	GetStatus() monitor.Status
}

type HealthHandler struct {
	baseHandler
	monitor StatusReporter
	banner  string
}

type healthResponse struct {
	transport.Envelope
	Timestamp time.Time      `json:"timestamp"`
	Store     monitor.Status `json:"store"`
}

func NewHealthHandler(mon StatusReporter, banner string, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	if banner == "" {
		banner = "todo server"
	}
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
		banner:      banner,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	payload := healthResponse{
		Envelope:  transport.NewSuccess(""),
		Timestamp: time.Now().UTC(),
		Store:     status,
	}

	if status.Online {
		h.respondJSON(ctx, http.StatusOK, payload)
		return
	}
	payload.Envelope = transport.NewError("DEGRADED", "store unavailable", nil)
	h.respondJSON(ctx, http.StatusServiceUnavailable, payload)
}

// Index answers the root path with a plain-text banner.
func (h *HealthHandler) Index(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("text/plain; charset=utf-8")
	ctx.SetStatusCode(http.StatusOK)
	ctx.SetBodyString(h.banner)
}
