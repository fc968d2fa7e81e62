// Entry point for the attendance queue service.
package main

import (
	"log"

	"github.com/labstack/echo/v4"

	"github.com/attendo/clinic-queue/internal/broadcast"
	"github.com/attendo/clinic-queue/internal/config"
	"github.com/attendo/clinic-queue/internal/database"
	"github.com/attendo/clinic-queue/internal/handler"
	"github.com/attendo/clinic-queue/internal/middleware"
	"github.com/attendo/clinic-queue/internal/repository"
	"github.com/attendo/clinic-queue/internal/router"
	"github.com/attendo/clinic-queue/internal/service"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional; with no reachable instance the rate limiter
	// becomes a pass-through.
	rdb := config.NewRedisClient()
	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	publisher := broadcast.NewPublisher(cfg.AMQPURL)
	defer publisher.Close()

	queues := repository.NewQueueRepo(db)
	customers := repository.NewCustomerRepo(db)
	operators := repository.NewOperatorRepo(db)
	tickets := repository.NewTicketRepo(db)
	tokens := repository.NewTokenRepo(db)

	dispatcher := service.NewDispatcher(queues, customers, operators, tickets, publisher, cfg.ReturnQueue)

	authH := handler.NewAuthHandler(cfg, operators, tokens)
	dispatchH := handler.NewDispatchHandler(dispatcher)
	customerH := handler.NewCustomerHandler(customers)
	queueH := handler.NewQueueAdminHandler(queues, tickets)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, dispatchH)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterDispatch(e, dispatchH, customerH, cfg.JWTSecret, rateLimit)
	router.RegisterAdmin(e, queueH, authH, cfg.JWTSecret)

	// The panel consumer mirrors broadcast traffic into a local log so
	// deployments without a display client can still inspect calls.
	go func() {
		if err := broadcast.StartPanelConsumer(cfg.AMQPURL); err != nil {
			log.Printf("[consumer] stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
