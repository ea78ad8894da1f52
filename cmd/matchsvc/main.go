package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	log "github.com/sirupsen/logrus"

	config "github.com/mesker/trick-services/configs"

	"github.com/mesker/trick-services/internal/matchsvc/broker"
	"github.com/mesker/trick-services/internal/matchsvc/coordinator"
	"github.com/mesker/trick-services/internal/matchsvc/db"
	"github.com/mesker/trick-services/internal/matchsvc/handlers"
	"github.com/mesker/trick-services/internal/matchsvc/store"
	"github.com/mesker/trick-services/internal/nats"
)

const SERVICE_NAME = "match"

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	// NATS event tap, optional
	var tap *broker.Broker
	if os.Getenv("NATS_URL") != "" {
		n, err := nats.Connect()
		if err != nil {
			log.Errorf("Error: unable to connect to NATS server %v", err)
			os.Exit(0)
		}
		defer n.Conn.Close()
		tap = broker.NewBroker(n.Conn)
		log.Printf("NATS connection established successfully %s", n.Url)
	}

	// Match archive, optional
	var archive *store.ArchiveStore
	if os.Getenv("POSTGRES_URL") != "" {
		pool, err := db.Connect(context.Background())
		if err != nil {
			log.Errorf("Error: unable to connect to postgres %v", err)
			os.Exit(0)
		}
		defer pool.Close()

		archive = store.NewArchiveStore(pool)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := archive.Init(ctx); err != nil {
			cancel()
			log.Errorf("Error: unable to init match archive %v", err)
			os.Exit(0)
		}
		cancel()
		log.Printf("postgres match archive ready")
	}

	invitePath := os.Getenv("INVITE_STORE_PATH")
	if invitePath == "" {
		invitePath = "invite-codes.json"
	}
	invites := store.NewInviteStore(invitePath)

	coord := coordinator.New(coordinator.DefaultConfig(), invites, archive, tap)
	go coord.Run()
	defer coord.Stop()

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(c.Handler)

	// to protect the service api from any over requests
	rateLimitStr := os.Getenv("RATE_LIMIT")
	rateLimit, err := strconv.Atoi(rateLimitStr)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT value: %v", err)
	}
	r.Use(httprate.LimitByIP(rateLimit, 1*time.Minute))

	// Initialize handlers and routes
	h := handlers.NewHandler(coord)
	h.InitAuth()
	h.SetRoutes(r)

	// Background sweep of expired matches
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				coord.SweepExpired()
			case <-sweepDone:
				return
			}
		}
	}()
	defer close(sweepDone)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + os.Getenv("SERVICE_PORT"),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
