package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // Echo web framework handles routing

    "github.com/arriendoya/booking-api/internal/handler"    // handlers implement the business logic
    "github.com/arriendoya/booking-api/internal/metrics"    // Prometheus scrape endpoint
    "github.com/arriendoya/booking-api/internal/middleware" // JWT authentication and role enforcement
    "github.com/arriendoya/booking-api/internal/model"
)

// RegisterRoutes registers routes that do not require authentication:
// the health check, the Prometheus scrape endpoint and the static media
// tree for property uploads.
func RegisterRoutes(e *echo.Echo, mediaDir string) {
    // Load balancers and monitoring probe this to verify the service is up.
    e.GET("/healthz", handler.Health)
    e.GET("/metrics", metrics.Handler())
    // Uploaded property images and documents are served as static files.
    e.Static("/media", mediaDir)
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /v1/auth; a valid bearer token
// is required for the profile endpoints.  The profile routes skip the
// ActiveAccount middleware on purpose: a blocked user may still read
// their profile and block status.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    // Register, login and refresh do not require an existing session.
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // Refresh rotates the refresh token; the presented token dies here.
    g.POST("/refresh", a.Refresh)

    auth := e.Group("/v1/auth", middleware.JWTAuth(jwtSecret))
    auth.GET("/me", a.Me)
    auth.GET("/status", a.Status)
    // Logout revokes every refresh token of the authenticated user.
    auth.POST("/logout", a.Logout)
}

// RegisterProperties registers the property listing routes.  Browsing
// is public; creation is restricted to owners and admins, and mutation
// is further checked against the ownership links inside the handler.
func RegisterProperties(e *echo.Echo, p *handler.PropertyHandler, jwtSecret string, blocks middleware.BlockChecker) {
    // Guests can browse listings without a session.
    e.GET("/v1/propiedades", p.List)
    e.GET("/v1/propiedades/:id", p.Get)

    auth := e.Group("/v1/propiedades", middleware.JWTAuth(jwtSecret), middleware.ActiveAccount(blocks))
    auth.POST("", p.Create, middleware.RequireRole(model.RoleOwner, model.RoleAdmin))
    auth.PATCH("/:id", p.Update, middleware.RequireRole(model.RoleOwner, model.RoleAdmin))
    auth.DELETE("/:id", p.Delete, middleware.RequireRole(model.RoleOwner, model.RoleAdmin))
    auth.GET("/:id/propietarios", p.Owners, middleware.RequireRole(model.RoleAdmin))
}

// RegisterReservations registers the reservation routes.  Clients book
// and manage their own reservations; admins see everything.
func RegisterReservations(e *echo.Echo, r *handler.ReservationHandler, jwtSecret string, blocks middleware.BlockChecker) {
    auth := e.Group("/v1/reservas", middleware.JWTAuth(jwtSecret), middleware.ActiveAccount(blocks))
    auth.POST("", r.Create, middleware.RequireRole(model.RoleClient, model.RoleAdmin))
    auth.GET("", r.List)
    auth.GET("/:id", r.Get)
    auth.PATCH("/:id", r.Update)
    auth.DELETE("/:id", r.Delete)
}

// RegisterPayments registers the payment lifecycle and commission
// routes.  The webhook is deliberately unauthenticated: the gateway
// calls it and the handler trusts nothing in the body, re-reading the
// payment from the gateway.
func RegisterPayments(e *echo.Echo, p *handler.PaymentHandler, ch *handler.CommissionHandler, jwtSecret string, blocks middleware.BlockChecker) {
    e.POST("/v1/pagos/webhook", p.Webhook)

    auth := e.Group("/v1/pagos", middleware.JWTAuth(jwtSecret), middleware.ActiveAccount(blocks))
    auth.POST("/crear-preferencia/:reserva_id", p.CreatePreference)
    auth.GET("/estado/:pago_id", p.Status)
    auth.GET("/reserva/:reserva_id", p.ListByReservation)

    // Owner payout view.
    auth.GET("/comisiones/mis-pagos", ch.MyPayments, middleware.RequireRole(model.RoleOwner))

    // Administrative commission workflow.
    admin := auth.Group("/admin", middleware.RequireRole(model.RoleAdmin))
    admin.PUT("/procesar-comision/:id", ch.MarkProcessed)
    admin.PUT("/completar-comision/:id", ch.MarkCompleted)
    admin.GET("/comisiones-a-pagar", ch.Payable)
    admin.GET("/resumen", ch.Summary)
}

// RegisterBlocks registers the administrative account suspension routes.
func RegisterBlocks(e *echo.Echo, h *handler.BlockHandler, jwtSecret string) {
    admin := e.Group("/v1/admin/usuarios", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin))
    admin.POST("/:id/bloquear", h.Block)
    admin.POST("/:id/desbloquear", h.Unblock)
    admin.GET("/:id/bloqueo", h.Status)
    admin.GET("/:id/bloqueos", h.History)
}

// RegisterInvoices registers the boleta routes.
func RegisterInvoices(e *echo.Echo, h *handler.InvoiceHandler, jwtSecret string, blocks middleware.BlockChecker) {
    auth := e.Group("/v1/boletas", middleware.JWTAuth(jwtSecret), middleware.ActiveAccount(blocks))
    auth.GET("", h.List, middleware.RequireRole(model.RoleAdmin))
    auth.GET("/:id", h.Get)
}
