package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/maillist/internal/logging"
	"github.com/dmitrijs2005/maillist/internal/server/services"
	"github.com/gin-gonic/gin"
)

func NewRouter(logger logging.Logger, store Pinger, unsub Unsubscriber, metrics http.Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))

	r.GET("/healthz", healthz(store))
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}
	r.GET("/unsubscribe", unsubscribe(unsub))

	return r
}

func healthz(store Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := store.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func unsubscribe(unsub Unsubscriber) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := unsub.UnsubscribeByToken(c.Request.Context(), c.Query("token"))
		c.JSON(statusFor(res.Outcome), gin.H{
			"outcome":   string(res.Outcome),
			"message":   res.Message,
			"next_step": string(res.NextStep),
		})
	}
}

func statusFor(o services.Outcome) int {
	switch o {
	case services.OutcomeInvalidInput:
		return http.StatusBadRequest
	case services.OutcomeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusOK
	}
}
