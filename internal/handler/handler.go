package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"aura-protocol-go/internal/handler/scheduler"
	"aura-protocol-go/internal/service"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping() error
}

// Handlers contains all HTTP handlers
type Handlers struct {
	svc       *service.Service
	scheduler scheduler.Controller
	db        Pinger
}

// NewHandlers creates new HTTP handlers
func NewHandlers(svc *service.Service, sched scheduler.Controller, db Pinger) *Handlers {
	return &Handlers{
		svc:       svc,
		scheduler: sched,
		db:        db,
	}
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.GET("/wallet", h.GetWallet)
		api.POST("/wallet/connect", h.ConnectWallet)
		api.POST("/wallet/disconnect", h.DisconnectWallet)
		api.POST("/wallet/reconnect", h.ReconnectWallet)
		api.GET("/wallet/balance", h.GetBalance)
		api.POST("/wallet/sign", h.SignMessage)

		api.POST("/verify", h.Verify)
		api.GET("/verify/status", h.GetVerification)
		api.POST("/verify/reset", h.ResetVerification)

		api.POST("/records/refresh", h.RefreshRecords)
		api.GET("/badges", h.GetBadges)
		api.POST("/badges/:id/renew", h.RenewBadge)
		api.GET("/loans", h.GetLoans)
		api.POST("/loans", h.RequestLoan)
		api.POST("/loans/:id/repay", h.RepayLoan)
		api.GET("/lending", h.GetLending)
		api.POST("/pools/:id/deposit", h.Deposit)
		api.POST("/pools/withdraw", h.Withdraw)

		api.GET("/transactions", h.GetTransactions)
		api.GET("/transactions/:id/status", h.GetTransactionStatus)
		api.GET("/submissions", h.GetSubmissions)
		api.GET("/fees", h.GetFees)
		api.GET("/network", h.GetNetwork)

		api.GET("/mailbox/messages", h.GetMailboxMessages)

		api.POST("/scheduler/start", scheduler.Start(h.scheduler))
		api.POST("/scheduler/stop", scheduler.Stop(h.scheduler))
		api.POST("/scheduler/run-once", scheduler.RunOnce(h.scheduler))
		api.GET("/scheduler/status", scheduler.Status(h.scheduler))
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	chain := h.svc.Store().Network()
	wallet := h.svc.WalletStatus()

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Database:  "ok",
		Network:   "unknown",
		Wallet:    wallet.State,
		Metrics:   make(map[string]string),
	}

	if err := h.db.Ping(); err != nil {
		response.Status = "error"
		response.Database = "error"
		logrus.Errorf("Database health check failed: %v", err)
	}

	if chain.Initialized {
		response.Network = "ok"
		if !chain.Connected {
			response.Network = "unreachable"
		}
	}

	st := h.scheduler.Status()
	if st.Running {
		response.Metrics["scheduler"] = "running"
		response.Metrics["next_run"] = st.NextRun.Format(time.RFC3339)
	} else {
		response.Metrics["scheduler"] = "stopped"
	}
	if !st.LastRun.IsZero() {
		response.Metrics["last_run"] = st.LastRun.Format(time.RFC3339)
	}
	if processing := h.svc.Store().Processing(); processing != "" {
		response.Metrics["processing"] = processing
	}

	statusCode := http.StatusOK
	if response.Status == "error" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}
