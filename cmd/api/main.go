package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trendora-backend/config"
	"trendora-backend/internal/delivery/http/middleware"
	v1 "trendora-backend/internal/delivery/http/v1"
	"trendora-backend/internal/infrastructure/cache"
	pgrepo "trendora-backend/internal/repository/postgres"
	"trendora-backend/internal/usecase"
	"trendora-backend/pkg/logger"
	"trendora-backend/pkg/storage"
	"trendora-backend/pkg/utils"

	"github.com/NYTimes/gziphandler"
)

func main() {
	cfg := config.LoadConfig()
	utils.SetSecret(cfg.JWTSecret)

	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	// Database
	pgxPool, err := pgrepo.NewPgxPool(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	log.Info().Msg("Successfully connected to PostgreSQL")

	// Repositories
	productRepo := pgrepo.NewProductRepository(pgxPool)
	orderRepo := pgrepo.NewOrderRepository(pgxPool)
	wishlistRepo := pgrepo.NewWishlistRepository(pgxPool)
	txManager := pgrepo.NewTransactionManager(pgxPool)

	// Cache (in-memory): default expiration 30m, cleanup every 60m
	memCache := cache.NewMemoryCache(30*time.Minute, 60*time.Minute)

	// Media storage (Cloudflare R2)
	r2Storage, err := storage.NewR2Storage(
		context.Background(),
		cfg.R2AccountID,
		cfg.R2AccessKeyID,
		cfg.R2AccessKeySecret,
		cfg.R2BucketName,
		cfg.R2PublicURL,
		cfg.R2UploadTimeout,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize R2 storage")
	}

	// --- Modules ---

	catalogUC := usecase.NewCatalogUsecase(
		productRepo, orderRepo, r2Storage, memCache,
		cfg.CacheCategoryTTL, cfg.CacheProductTTL, cfg.CacheStatsTTL,
	)
	catalogHandler := v1.NewCatalogHandler(catalogUC)
	adminCatalogHandler := v1.NewAdminCatalogHandler(catalogUC, cfg.MaxUploadSizeMB)

	orderUC := usecase.NewOrderUsecase(orderRepo, productRepo, txManager, memCache, cfg.MaxCartQuantity)
	orderHandler := v1.NewOrderHandler(orderUC)
	adminOrderHandler := v1.NewAdminOrderHandler(orderUC)

	wishlistUC := usecase.NewWishlistUsecase(wishlistRepo, productRepo, orderUC)
	wishlistHandler := v1.NewWishlistHandler(wishlistUC)

	// --- Routes ---

	mux := http.NewServeMux()

	// Catalog (public)
	mux.HandleFunc("GET /api/v1/categories", catalogHandler.GetCategories)
	mux.HandleFunc("GET /api/v1/categories/tree", catalogHandler.GetCategoryTree)
	mux.HandleFunc("GET /api/v1/products", catalogHandler.ListProducts)
	mux.HandleFunc("GET /api/v1/products/{slug}", catalogHandler.GetProductDetail)
	mux.HandleFunc("GET /api/v1/products/{id}/reviews", catalogHandler.GetReviews)
	mux.Handle("POST /api/v1/products/{id}/reviews", middleware.AuthMiddleware(http.HandlerFunc(catalogHandler.AddReview)))

	// Cart (protected)
	mux.Handle("GET /api/v1/cart", middleware.AuthMiddleware(http.HandlerFunc(orderHandler.GetMyCart)))
	mux.Handle("POST /api/v1/cart/items", middleware.AuthMiddleware(http.HandlerFunc(orderHandler.AddToCart)))
	mux.Handle("PATCH /api/v1/cart/items/{id}", middleware.AuthMiddleware(http.HandlerFunc(orderHandler.UpdateCartItem)))
	mux.Handle("DELETE /api/v1/cart/items/{id}", middleware.AuthMiddleware(http.HandlerFunc(orderHandler.RemoveCartItem)))
	mux.Handle("DELETE /api/v1/cart", middleware.AuthMiddleware(http.HandlerFunc(orderHandler.ClearCart)))

	// Orders (protected)
	mux.Handle("POST /api/v1/orders", middleware.AuthMiddleware(http.HandlerFunc(orderHandler.PlaceOrder)))
	mux.Handle("GET /api/v1/orders", middleware.AuthMiddleware(http.HandlerFunc(orderHandler.GetMyOrders)))
	mux.Handle("GET /api/v1/orders/{id}", middleware.AuthMiddleware(http.HandlerFunc(orderHandler.GetOrder)))
	mux.Handle("POST /api/v1/orders/{id}/cancel", middleware.AuthMiddleware(http.HandlerFunc(orderHandler.CancelOrder)))

	// Wishlist (protected)
	mux.Handle("GET /api/v1/wishlist", middleware.AuthMiddleware(http.HandlerFunc(wishlistHandler.GetMyWishlist)))
	mux.Handle("POST /api/v1/wishlist/items", middleware.AuthMiddleware(http.HandlerFunc(wishlistHandler.AddItem)))
	mux.Handle("DELETE /api/v1/wishlist/items/{productId}", middleware.AuthMiddleware(http.HandlerFunc(wishlistHandler.RemoveItem)))
	mux.Handle("POST /api/v1/wishlist/items/{productId}/move-to-cart", middleware.AuthMiddleware(http.HandlerFunc(wishlistHandler.MoveToCart)))

	// Admin (protected)
	adminMiddleware := func(h http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(middleware.AdminMiddleware(h))
	}

	mux.Handle("GET /api/v1/admin/products", adminMiddleware(adminCatalogHandler.ListProducts))
	mux.Handle("GET /api/v1/admin/products/stats", adminMiddleware(adminCatalogHandler.GetProductStats))
	mux.Handle("GET /api/v1/admin/products/{id}", adminMiddleware(adminCatalogHandler.GetProduct))
	mux.Handle("POST /api/v1/admin/products", adminMiddleware(adminCatalogHandler.CreateProduct))
	mux.Handle("PUT /api/v1/admin/products/{id}", adminMiddleware(adminCatalogHandler.UpdateProduct))
	mux.Handle("DELETE /api/v1/admin/products/{id}", adminMiddleware(adminCatalogHandler.DeleteProduct))

	mux.Handle("GET /api/v1/admin/categories", adminMiddleware(adminCatalogHandler.GetAllCategories))
	mux.Handle("POST /api/v1/admin/categories", adminMiddleware(adminCatalogHandler.CreateCategory))
	mux.Handle("PUT /api/v1/admin/categories/{id}", adminMiddleware(adminCatalogHandler.UpdateCategory))
	mux.Handle("DELETE /api/v1/admin/categories/{id}", adminMiddleware(adminCatalogHandler.DeleteCategory))

	mux.Handle("GET /api/v1/admin/orders", adminMiddleware(adminOrderHandler.ListOrders))
	mux.Handle("PATCH /api/v1/admin/orders/{id}/status", adminMiddleware(adminOrderHandler.UpdateOrderStatus))

	// Health check
	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	}
	mux.HandleFunc("GET /api/v1/health", healthHandler)
	mux.HandleFunc("GET /health", healthHandler) // Load balancer probes hit the root path

	// Rate limiter: 50 req/s, burst 100, cleanup every minute, TTL 3 minutes
	rateLimiter := middleware.NewRateLimiter(
		context.Background(),
		50,
		100,
		time.Minute,
		3*time.Minute,
	)

	handler := middleware.NewCORSMiddleware(cfg)(mux)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	log.Info().Msgf("Server starting on %s", addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	rateLimiter.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	pgxPool.Close()
	log.Info().Msg("Server exited properly")
}
