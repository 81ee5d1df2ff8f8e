package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"

	"cartpod/internal/config"
	"cartpod/internal/handler"
	"cartpod/internal/metrics"
	"cartpod/internal/middleware"
	"cartpod/internal/model"
	"cartpod/internal/service"
)

// uploadBodyLimit leaves room for multipart framing around a 5MB image.
const uploadBodyLimit = "6M"

// Deps holds everything Register wires into the echo instance.
type Deps struct {
	Log            logrus.FieldLogger
	AuthService    service.AuthService
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler

	AuthHandler     *handler.AuthHandler
	UserHandler     *handler.UserHandler
	CartPodHandler  *handler.CartPodHandler
	FoodCartHandler *handler.FoodCartHandler
	HealthHandler   *handler.HealthHandler
}

// Register wires routes and middleware. Every API route is served both at the
// root and under /api.
func Register(e *echo.Echo, cfg *config.Config, d Deps) {
	e.Validator = handler.NewValidator()

	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSAllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.RequestLogger(d.Log))
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}

	e.GET("/healthz", d.HealthHandler.Live)
	e.GET("/readyz", d.HealthHandler.Ready)
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if d.MetricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(d.MetricsHandler))
	}

	authn := middleware.Authenticator(d.AuthService)
	for _, prefix := range []string{"", "/api"} {
		mount(e.Group(prefix), authn, d)
	}
}

func mount(g *echo.Group, authn echo.MiddlewareFunc, d Deps) {
	adminOnly := middleware.RequireRole(model.RoleAdmin)
	ownerOnly := middleware.RequireRole(model.RoleOwner)
	// Admins may manage any food cart; owners only their own.
	cartManager := middleware.RequireRole(model.RoleOwner, model.RoleAdmin)

	// Auth routes
	g.POST("/auth/register", d.AuthHandler.Register)
	g.POST("/auth/login", d.AuthHandler.Login)
	g.POST("/auth/forgot-password", d.AuthHandler.ForgotPassword)
	g.POST("/auth/reset-password", d.AuthHandler.ResetPassword)
	g.GET("/auth/me", d.AuthHandler.Me, authn)

	// User administration
	g.GET("/auth", d.UserHandler.ListUsers, authn, adminOnly)
	g.PUT("/auth/:id", d.UserHandler.UpdateUser, authn, adminOnly)
	g.DELETE("/auth/:id", d.UserHandler.DeleteUser, authn, adminOnly)

	// Cart pods
	g.GET("/cartpods", d.CartPodHandler.ListCartPods)
	g.GET("/cartpods/near/:longitude/:latitude/:maxDistance", d.CartPodHandler.NearCartPods)
	g.GET("/cartpods/:id", d.CartPodHandler.GetCartPod)
	g.POST("/cartpods", d.CartPodHandler.CreateCartPod, authn)
	g.PUT("/cartpods/:id", d.CartPodHandler.UpdateCartPod, authn, adminOnly)
	g.DELETE("/cartpods/:id", d.CartPodHandler.DeleteCartPod, authn, adminOnly)
	g.POST("/cartpods/:id/foodcarts", d.CartPodHandler.CreateFoodCartInPod, authn)

	// Food carts
	g.GET("/foodcarts", d.FoodCartHandler.ListFoodCarts)
	g.GET("/foodcarts/near/:longitude/:latitude/:maxDistance", d.FoodCartHandler.NearFoodCarts)
	g.GET("/foodcarts/cartpod/:cartPodId", d.FoodCartHandler.ListByCartPod)
	g.GET("/foodcarts/:id", d.FoodCartHandler.GetFoodCart)
	g.POST("/foodcarts", d.FoodCartHandler.CreateFoodCart, authn, ownerOnly)
	g.POST("/foodcarts/upload", d.FoodCartHandler.UploadImage, echomw.BodyLimit(uploadBodyLimit), authn)
	g.PUT("/foodcarts/:id", d.FoodCartHandler.UpdateFoodCart, authn, cartManager)
	g.DELETE("/foodcarts/:id", d.FoodCartHandler.DeleteFoodCart, authn, cartManager)
	g.POST("/foodcarts/:id/reviews", d.FoodCartHandler.AddReview, authn)
}
