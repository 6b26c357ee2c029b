package handlers

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/agrichain/subsidy_backend/chain"
	"github.com/agrichain/subsidy_backend/middlewares"
	"github.com/agrichain/subsidy_backend/models"
	"github.com/agrichain/subsidy_backend/workflow"
)

// registerValidations teaches gin's validator the ledger formats so malformed
// references are rejected at bind time, before the engine runs.
func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterValidation("chain_address", func(fl validator.FieldLevel) bool {
		return chain.IsAddress(fl.Field().String())
	})
	v.RegisterValidation("chain_txhash", func(fl validator.FieldLevel) bool {
		return chain.IsTxHash(fl.Field().String())
	})
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// BuildRouter wires middleware and routes. Reads are public; every route
// that records a claim or triggers a sync requires a government token.
func BuildRouter(engine *workflow.Engine, store *models.Store, log *logrus.Logger) *gin.Engine {
	registerValidations()
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	if allowed := os.Getenv("CORS_ALLOWED_ORIGINS"); allowed != "" {
		corsConfig.AllowOrigins = splitAndTrim(allowed)
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	r.Use(cors.New(corsConfig))

	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-Request-ID") == "" {
			c.Request.Header.Set("X-Request-ID", uuid.NewString())
		}
		c.Next()
	})
	r.Use(middlewares.AuthMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := NewAuth(store, log)
	r.POST("/api/auth/login", auth.Login)

	bc := NewBlockchain(engine, log)
	api := r.Group("/api/blockchain")
	{
		api.GET("/farmers", bc.ListFarmers)
		api.GET("/farmer/:address", bc.GetFarmer)
		api.GET("/schemes", bc.ListSchemes)
		api.GET("/scheme/:id", bc.GetScheme)
		api.GET("/transactions", bc.ListTransactions)
		api.GET("/stats", bc.GetStats)
		api.GET("/block-number", bc.GetBlockNumber)

		gov := api.Group("", middlewares.RequireRole(models.RoleGovernment))
		{
			gov.POST("/register-farmer", bc.RegisterFarmer)
			gov.POST("/verify-farmer", bc.VerifyFarmer)
			gov.POST("/create-scheme", bc.CreateScheme)
			gov.POST("/pay-subsidy", bc.PaySubsidy)
			gov.POST("/sync-farmer/:address", bc.SyncFarmer)
			gov.POST("/sync-scheme/:id", bc.SyncScheme)
			gov.POST("/auto-sync-farmers", bc.AutoSyncFarmers)
		}
	}

	return r
}
