package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/auth"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/middleware"
)

type Server struct {
	config   *config.Config
	router   *gin.Engine
	handlers *handlers.Handlers
	http     *http.Server
	logger   *zap.Logger
}

func NewServer(cfg *config.Config, h *handlers.Handlers, logger *zap.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.MetricsMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", auth.HeaderName},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s := &Server{
		config:   cfg,
		router:   router,
		handlers: h,
		logger:   logger,
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.Health)
	s.router.GET("/ready", h.Ready)
	s.router.GET("/version", h.Version)
	s.router.GET("/metrics", middleware.PrometheusHandler())

	s.router.POST("/signup", h.Signup)
	s.router.POST("/login", h.Login)

	s.router.POST("/addproduct", h.AddProduct)
	s.router.POST("/removeproduct", h.RemoveProduct)
	s.router.GET("/allproducts", h.AllProducts)
	s.router.GET("/newcollections", h.NewCollections)
	s.router.GET("/popularinwomen", h.PopularInWomen)

	s.router.POST("/cart/summary", h.CartSummary)

	razorpay := s.router.Group("/razorpay")
	{
		razorpay.POST("/order", h.CreateIntent)
		razorpay.POST("/payment/verify", h.VerifyPayment)
		razorpay.GET("/intents/:id", h.GetIntent)
	}

	// /saveorder resolves the token itself so an unknown user is reported
	// by the order service.
	s.router.POST("/saveorder", h.SaveOrder)

	user := s.router.Group("/", h.RequireUser())
	{
		user.GET("/myorders", h.MyOrders)
		user.POST("/addtocart", h.AddToCart)
		user.POST("/removefromcart", h.RemoveFromCart)
		user.POST("/getcart", h.GetCart)
	}

	admin := s.router.Group("/admin")
	{
		admin.GET("/orders", h.ListOrders)
		admin.GET("/orders/:id", h.GetOrder)
		admin.PUT("/orders/:id", h.UpdateOrderStatus)
		admin.DELETE("/orders/:id", h.DeleteOrder)
	}
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start serves HTTP until Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Server.Port)
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	s.logger.Info("Starting server", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	s.logger.Info("Shutting down server")
	return s.http.Shutdown(ctx)
}
