package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/loops-platforms/loops-backend/internal/admin"
	"github.com/loops-platforms/loops-backend/internal/alerts"
	"github.com/loops-platforms/loops-backend/internal/auth"
	"github.com/loops-platforms/loops-backend/internal/db"
	"github.com/loops-platforms/loops-backend/internal/marketplace"
	"github.com/loops-platforms/loops-backend/internal/messaging"
	mware "github.com/loops-platforms/loops-backend/internal/middleware"
	"github.com/loops-platforms/loops-backend/internal/profile"
)

func main() {
	_ = godotenv.Load()

	// Initialize database connection
	db.Init()

	// Notification providers and async workers
	if err := alerts.ConfigureMailerFromEnv(); err != nil {
		log.Printf("mailer not configured: %v", err)
	}
	if err := alerts.ConfigureWhatsAppFromEnv(); err != nil {
		log.Printf("whatsapp not configured: %v", err)
	}
	alerts.Init()
	defer alerts.Close()

	e := echo.New()

	// Basic middleware
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	// Health and root routes
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "loops"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if db.Conn == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db not initialized"})
		}
		if err := db.Conn.Ping(context.Background()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Public routes
	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", auth.Signup)
	authGroup.POST("/login", auth.Login)

	e.GET("/user/:id/profile", profile.GetPublicProfile)

	e.GET("/marketplace/listings", marketplace.GetAllListings)
	e.GET("/sellers/:id/reviews", marketplace.GetSellerReviews)

	// Handshake verification is reachable without a session so a shared QR
	// link can complete a loop from any device
	e.POST("/loops/:id/verify", marketplace.VerifyHandshake)

	// Protected routes
	api := e.Group("")
	api.Use(mware.JWTMiddleware)

	api.GET("/auth/me", auth.Me)

	api.PATCH("/user/profile", profile.UpdateProfile)
	api.POST("/applications/plug", profile.ApplyAsPlug)

	api.POST("/marketplace/listings", marketplace.CreateListing, mware.RequireRoles("plug"))
	api.GET("/marketplace/listings/me", marketplace.GetUserListings, mware.RequireRoles("plug"))

	api.POST("/loops", marketplace.CreateLoop)
	api.GET("/loops/me", marketplace.GetUserLoops)
	api.POST("/loops/:id/vendor-confirm", marketplace.VendorConfirm, mware.RequireRoles("plug"))
	api.POST("/loops/:id/buyer-confirm", marketplace.BuyerConfirm)
	api.POST("/loops/:id/handshake", marketplace.IssueHandshake, mware.RequireRoles("plug"))
	api.POST("/loops/:id/review", marketplace.CreateReview)

	api.GET("/loops/:id/messages", messaging.ListMessages)
	api.POST("/loops/:id/messages", messaging.SendMessage)
	api.GET("/ws/loops/:id", messaging.LoopWS)

	api.POST("/offers", marketplace.CreateOffer)
	api.POST("/offers/:id/handle", marketplace.HandleOffer, mware.RequireRoles("plug"))

	api.GET("/notifications", alerts.ListNotifications)
	api.POST("/notifications/:id/read", alerts.MarkNotificationRead)

	// Admin routes
	adminGroup := e.Group("/admin")
	adminGroup.Use(mware.JWTMiddleware)
	adminGroup.Use(mware.AdminGuard)

	adminGroup.GET("/stats", admin.Stats)
	adminGroup.GET("/applications", admin.ListApplications)
	adminGroup.POST("/applications/approve-batch", admin.ApproveBatch)
	adminGroup.POST("/broadcast", admin.Broadcast)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := e.Start(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
