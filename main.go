package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "biblio-backend/docs"
	"biblio-backend/internal/library_mgmt/books"
	"biblio-backend/internal/library_mgmt/loans"
	"biblio-backend/internal/library_mgmt/reservations"
	"biblio-backend/internal/library_mgmt/reviews"
	"biblio-backend/internal/platform/auth"
	"biblio-backend/internal/platform/db"
	"biblio-backend/internal/stats"
)

//	@title			Biblio backend API
//	@version		1.0
//	@description	REST backend for the 2iE institute library: catalog, loans, reservations, reviews.
//	@BasePath		/api/v1

func main() {
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	log.Printf("[INFO] mode:%s\n", cfg.Mode)
	if cfg.Mode != "dev" && cfg.Mode != "release" {
		fmt.Println("config mode must be dev or release")
		return
	}
	if cfg.JWTSecret == "" {
		log.Fatal("[ERROR] jwt_secret is not configured")
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if cfg.Mode == "dev" {
		// CORS for the Next.js dev server
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Location"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	secret := []byte(cfg.JWTSecret)
	authSvc := auth.NewService(conn, secret)
	bookSvc := books.NewService(conn)
	loanSvc := loans.NewService(conn, cfg.Loans.DurationDays)
	reservationSvc := reservations.NewService(conn)
	reviewSvc := reviews.NewService(conn)
	statsSvc := stats.NewService(conn)

	api := r.Group("/api/v1")
	authed := r.Group("/api/v1", auth.RequireAuth(secret))
	adm := r.Group("/api/v1", auth.RequireAuth(secret), auth.RequireRole(auth.RoleAdmin))

	auth.RegisterRoutes(api, authSvc)
	auth.RegisterMeRoute(authed, authSvc)
	books.RegisterRoutes(api, adm, bookSvc)
	loans.RegisterRoutes(authed, adm, loanSvc)
	reservations.RegisterRoutes(authed, adm, reservationSvc)
	reviews.RegisterRoutes(api, authed, reviewSvc)
	stats.RegisterRoutes(adm, statsSvc)

	// periodic overdue sweep; the admin endpoint triggers the same pass on demand
	stopSweep := make(chan struct{})
	if cfg.Loans.SweepIntervalMinutes > 0 {
		interval := time.Duration(cfg.Loans.SweepIntervalMinutes) * time.Minute
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
					res, err := loanSvc.ReclassifyOverdue(ctx)
					cancel()
					if err != nil {
						log.Printf("[WARN] overdue sweep failed: %v", err)
					} else if res.Reclassified > 0 {
						log.Printf("[INFO] overdue sweep: %d loans reclassified", res.Reclassified)
					}
				case <-stopSweep:
					return
				}
			}
		}()
	}

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: r,
	}

	useTLS := cfg.Certificate.Cert != "" && cfg.Certificate.Key != ""

	go func() {
		var err error
		if useTLS {
			certFile := fmt.Sprintf("config/tls/%s/%s", cfg.Mode, cfg.Certificate.Cert)
			keyFile := fmt.Sprintf("config/tls/%s/%s", cfg.Mode, cfg.Certificate.Key)
			log.Printf("[INFO] listening on https://%s", cfg.Listen)
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			log.Printf("[INFO] listening on http://%s", cfg.Listen)
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("[INFO] shutting down...")
	close(stopSweep)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
