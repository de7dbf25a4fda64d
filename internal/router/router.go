package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/festiva/ticketing-api/internal/config"
	"github.com/festiva/ticketing-api/internal/handler"
	"github.com/festiva/ticketing-api/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /v1/auth, while protected
// endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout does not require JWT authentication: the handler accepts a
	// JSON body containing a refresh_token and invalidates that token,
	// so a client with an expired access token can still end a session.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	// Revokes every session for the caller, unlike the single-token
	// logout above.
	auth.POST("/logout-all", a.LogoutAll)
}

// RegisterPublic registers the unauthenticated browse endpoints.  Both
// routes sit behind the Redis response cache and the token-bucket rate
// limiter; the catalogue is read-heavy and serves guests, so it is the
// one surface that needs protection from scrapers.
func RegisterPublic(e *echo.Echo, p *handler.PublicBrowseHandler, rdb *redis.Client) {
	mws := []echo.MiddlewareFunc{}
	if rdb != nil {
		mws = append(mws,
			middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
			middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		)
	}
	g := e.Group("/v1", mws...)
	// Approved events only; supports ?category= filtering.
	g.GET("/events", p.ListEvents)
	// Event details plus its ticket types.
	g.GET("/events/:id", p.GetEvent)
}

// RegisterWebhooks registers the payment gateway notification endpoint.
// The gateway authenticates itself with the SHA-512 signature inside the
// payload, so no JWT middleware applies here.
func RegisterWebhooks(e *echo.Echo, pc *handler.PaymentCallbackHandler) {
	e.POST("/v1/payments/notification", pc.Notification)
}
