package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"docmanager/auth"
	"docmanager/internal/audit"
	"docmanager/internal/config"
	"docmanager/internal/content"
	"docmanager/internal/db"
	"docmanager/internal/document"
	"docmanager/internal/folder"
	"docmanager/internal/middleware"
	"docmanager/internal/permission"
	"docmanager/internal/tenancy"
	"docmanager/internal/user"
	"docmanager/internal/worker"
	"docmanager/redis"
)

func main() {
	// Load configuration
	cfg := config.Load()
	auth.SetSecret(cfg.JWTSecret)

	// Connect to database
	appDb, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("error connecting to db %v", err)
	}
	defer db.Close(appDb)

	// Migrate database schema
	if err := db.Migrate(appDb); err != nil {
		log.Fatal(err)
	}

	// Initialize Redis
	cache := redis.NewCache(cfg.RedisAddress)
	defer cache.Close()

	// Background workers for audit writes and the blob sweep
	pool := worker.NewPool(4)
	defer pool.Shutdown()

	// Tenancy
	strategy := tenancy.NewStrategy(appDb, cfg)
	tenantStore := tenancy.NewTenantStore(appDb)
	resolver := tenancy.NewResolver(tenantStore)

	// Core components
	engine := permission.NewEngine(permission.NewStore(strategy))
	store := content.NewStore(content.NewRecords(appDb), cfg)
	recorder := audit.NewRecorder(strategy, pool)

	// Repositories and services
	userRepo := user.NewRepository(appDb)
	userService := user.NewService(userRepo)
	folderRepo := folder.NewRepository(strategy)
	folderService := folder.NewService(folderRepo, engine, store, recorder)
	docRepo := document.NewRepository(strategy)
	docService := document.NewService(docRepo, folderRepo, engine, store, recorder, cache)

	// Handlers
	userHandler := user.NewHandler(userService)
	folderHandler := folder.NewHandler(folderService)
	docHandler := document.NewHandler(docService)
	auditHandler := audit.NewHandler(recorder, engine)

	// Hourly orphan-blob sweep
	sweepTicker := time.NewTicker(time.Hour)
	defer sweepTicker.Stop()
	go func() {
		for range sweepTicker.C {
			pool.Submit(store.Sweep)
		}
	}()

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.TenantContext(resolver))

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
	}
	if cfg.Environment == "development" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{cfg.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	authMw := middleware.Auth{UserService: userService}

	// User routes
	router.POST("/register", userHandler.Register)
	router.POST("/login", userHandler.Login)
	router.DELETE("/logout", authMw.AuthMiddleWare(), userHandler.Logout)
	router.GET("/profile", authMw.AuthMiddleWare(), userHandler.GetProfile)
	router.GET("/memberships", authMw.AuthMiddleWare(), userHandler.ListMemberships)

	// Tenant-scoped routes
	scoped := router.Group("/", authMw.AuthMiddleWare(), middleware.RequireTenant(userService))
	scoped.POST("/documents", docHandler.Upload)
	scoped.GET("/documents", docHandler.List)
	scoped.GET("/documents/:id", docHandler.Show)
	scoped.PUT("/documents/:id", docHandler.Update)
	scoped.DELETE("/documents/:id", docHandler.Delete)
	scoped.GET("/documents/:id/download", docHandler.Download)
	scoped.POST("/documents/:id/acls", docHandler.Grant)
	scoped.DELETE("/documents/:id/acls/:aclId", docHandler.Revoke)
	scoped.POST("/folders", folderHandler.Create)
	scoped.GET("/folders", folderHandler.List)
	scoped.GET("/folders/:id", folderHandler.Show)
	scoped.PUT("/folders/:id/parent", folderHandler.Move)
	scoped.DELETE("/folders/:id", folderHandler.Delete)
	scoped.GET("/folders/:id/acls", folderHandler.ListACLs)
	scoped.POST("/folders/:id/acls", folderHandler.Grant)
	scoped.DELETE("/folders/:id/acls/:aclId", folderHandler.Revoke)
	scoped.GET("/audit", auditHandler.List)

	// Server configuration
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		log.Printf("Server listening on port %s", cfg.ServerPort)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Println("Server shutdown error:", err)
	}

	<-ctx.Done()
	log.Println("Server shutdown complete")
}
