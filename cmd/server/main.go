// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unclebandit/emailcraft-backend/internal/config"
	"github.com/unclebandit/emailcraft-backend/internal/db"
	"github.com/unclebandit/emailcraft-backend/internal/handler"
	"github.com/unclebandit/emailcraft-backend/internal/lock"
	"github.com/unclebandit/emailcraft-backend/internal/logging"
	"github.com/unclebandit/emailcraft-backend/internal/mailer"
	"github.com/unclebandit/emailcraft-backend/internal/personalize"
	"github.com/unclebandit/emailcraft-backend/internal/queue"
	"github.com/unclebandit/emailcraft-backend/internal/repository"
	"github.com/unclebandit/emailcraft-backend/internal/router"
	"github.com/unclebandit/emailcraft-backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration:", err)
	}
	closer := logging.Setup(cfg.Log)
	defer closer.Close()

	// Init DB
	conn, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()
	if err := db.Migrate(context.Background(), conn); err != nil {
		log.Fatal(err)
	}

	contactRepo := &repository.ContactRepository{DB: conn}
	campaignRepo := &repository.CampaignRepository{DB: conn}
	logRepo := &repository.EmailLogRepository{DB: conn}

	// Campaign events go to RabbitMQ when configured; otherwise stats are refreshed in-process
	var q queue.Queue
	if cfg.AMQP.URL != "" {
		amqpQueue, err := queue.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue)
		if err != nil {
			log.Fatal(err)
		}
		defer amqpQueue.Close()
		q = amqpQueue
	} else {
		memQueue := queue.NewInMemoryQueue()
		if err := service.NewWorker(campaignRepo).Start(memQueue); err != nil {
			log.Fatal(err)
		}
		q = memQueue
	}

	var guard lock.Guard = lock.NopGuard{}
	if cfg.Redis.URL != "" {
		redisGuard, err := lock.NewRedisGuard(cfg.Redis.URL, cfg.Redis.LockTTL)
		if err != nil {
			log.Fatal(err)
		}
		defer redisGuard.Close()
		guard = redisGuard
	}

	generator := personalize.NewGenerator(&cfg.OpenAI)
	generator.OnFallback = service.RecordFallback

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		ContactRepo:  contactRepo,
		LogRepo:      logRepo,
		Personalizer: generator,
		Mailer:       mailer.NewSendGridMailer(&cfg.SendGrid),
		Queue:        q,
		Guard:        guard,
	}

	r := router.New(router.Deps{
		Campaigns: campaignService,
		Contacts:  &service.ContactService{ContactRepo: contactRepo},
		Analytics: &service.AnalyticsService{ContactRepo: contactRepo, CampaignRepo: campaignRepo, LogRepo: logRepo},
		Health: &handler.HealthHandler{
			DB: conn,
			Integrations: map[string]bool{
				"openai":   cfg.OpenAI.APIKey != "",
				"sendgrid": cfg.SendGrid.APIKey != "",
				"amqp":     cfg.AMQP.URL != "",
				"redis":    cfg.Redis.URL != "",
			},
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Println("⚠️ Shutdown error:", err)
	}
	if mem, ok := q.(*queue.InMemoryQueue); ok {
		mem.Wait()
	}
}
