package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stickerpack-io/stickerpack/internal/config"
	"github.com/stickerpack-io/stickerpack/internal/modules/handler"
	"github.com/stickerpack-io/stickerpack/internal/modules/middleware"
	"github.com/stickerpack-io/stickerpack/internal/modules/repo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Generate *handler.GenerateHandler
	Payment  *handler.PaymentHandler
	Sticker  *handler.StickerHandler
}

// New builds the gin engine with the full route table. The webhook route
// carries no auth middleware: its caller is the payment processor, verified
// by signature inside the handler.
func New(cfg *config.Config, users repo.UserRepo, h Handlers, log *zap.Logger) *gin.Engine {
	if cfg.App.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		otelgin.Middleware(cfg.App.Name),
		middleware.RequestLogger(log),
		gin.Recovery(),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	optional := middleware.Auth(users, cfg.Auth.JWTSecret, false)
	required := middleware.Auth(users, cfg.Auth.JWTSecret, true)

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
		}

		v1.POST("/generate", optional, h.Generate.Generate)

		payment := v1.Group("/payment")
		{
			payment.POST("/create", optional, h.Payment.CreatePayment)
			payment.POST("/webhook", h.Payment.Webhook)
		}

		stickers := v1.Group("/stickers")
		{
			stickers.POST("/claim", required, h.Sticker.Claim)
			stickers.GET("", required, h.Sticker.List)
			stickers.GET("/image", optional, h.Sticker.Image)
		}
	}

	return r
}
