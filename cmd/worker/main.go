package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/unclebandit/emailcraft-backend/internal/config"
	"github.com/unclebandit/emailcraft-backend/internal/db"
	"github.com/unclebandit/emailcraft-backend/internal/lock"
	"github.com/unclebandit/emailcraft-backend/internal/logging"
	"github.com/unclebandit/emailcraft-backend/internal/mailer"
	"github.com/unclebandit/emailcraft-backend/internal/personalize"
	"github.com/unclebandit/emailcraft-backend/internal/queue"
	"github.com/unclebandit/emailcraft-backend/internal/repository"
	"github.com/unclebandit/emailcraft-backend/internal/scheduler"
	"github.com/unclebandit/emailcraft-backend/internal/service"
)

// The worker sends scheduled campaigns and keeps campaign_stats current.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration:", err)
	}
	closer := logging.Setup(cfg.Log)
	defer closer.Close()

	// Connect to DB
	conn, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()
	if err := db.Migrate(context.Background(), conn); err != nil {
		log.Fatal(err)
	}

	// Repositories
	contactRepo := &repository.ContactRepository{DB: conn}
	campaignRepo := &repository.CampaignRepository{DB: conn}
	logRepo := &repository.EmailLogRepository{DB: conn}

	q, cleanup, err := events(cfg.AMQP, campaignRepo)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

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

	sched := scheduler.NewScheduler(campaignRepo, campaignService)
	if err := sched.Start(cfg.Scheduler.Spec); err != nil {
		log.Fatal(err)
	}

	log.Println("Worker running, waiting for scheduled campaigns and events...")
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Stopping scheduler...")
	sched.Stop()
}

// events subscribes the stats worker and returns the queue sends should publish to.
// With RabbitMQ the worker consumes events from every server process.
func events(cfg config.AMQPConfig, stats service.StatsRefresher) (queue.Queue, func(), error) {
	worker := service.NewWorker(stats)

	if cfg.URL == "" {
		mem := queue.NewInMemoryQueue()
		if err := worker.Start(mem); err != nil {
			return nil, nil, err
		}
		return mem, mem.Wait, nil
	}

	amqpQueue, err := queue.DialAMQP(cfg.URL, cfg.Exchange, cfg.Queue)
	if err != nil {
		return nil, nil, err
	}
	if err := worker.Start(amqpQueue); err != nil {
		amqpQueue.Close()
		return nil, nil, err
	}
	return amqpQueue, func() { amqpQueue.Close() }, nil
}
