package alerts

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/hibiken/asynq"
)

var (
	client *asynq.Client
	server *asynq.Server
)

// Init starts the Asynq server and initializes a shared client.
func Init() {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		if host := os.Getenv("REDIS_HOST"); host != "" {
			port := os.Getenv("REDIS_PORT")
			if port == "" {
				port = "6379"
			}
			redisAddr = host + ":" + port
		} else {
			redisAddr = "redis:6379"
			if os.Getenv("RUN_LOCAL") == "true" {
				redisAddr = "127.0.0.1:6379"
			}
		}
	}

	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client = asynq.NewClient(opts)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskWelcomeEmail, handleWelcomeEmail)
	mux.HandleFunc(TaskLoopOpened, handleLoopOpened)
	mux.HandleFunc(TaskVendorConfirmed, handleVendorConfirmed)
	mux.HandleFunc(TaskLoopCompleted, handleLoopCompleted)
	mux.HandleFunc(TaskOfferAccepted, handleOfferAccepted)

	server = asynq.NewServer(opts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"emails": 10,
			"alerts": 5,
		},
	})
	go func() {
		if err := server.Run(mux); err != nil {
			log.Printf("Asynq server stopped: %v", err)
		}
	}()

	log.Printf("Asynq initialized (addr=%s)", redisAddr)
}

// Close releases client and stops server.
func Close() {
	if client != nil {
		_ = client.Close()
	}
	if server != nil {
		server.Shutdown()
	}
}

func handleWelcomeEmail(_ context.Context, t *asynq.Task) error {
	var p WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Email, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] WelcomeEmail send failed: %v", err)
		return err
	}
	log.Printf("[notify] WelcomeEmail sent -> to=%s user=%s", p.Email, p.UserID)
	return nil
}

func handleLoopOpened(_ context.Context, t *asynq.Task) error {
	var p LoopOpenedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Email, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] LoopOpened send failed: %v", err)
		return err
	}
	log.Printf("[notify] LoopOpened sent -> loop=%s to=%s", p.LoopID, p.Email)
	return nil
}

func handleVendorConfirmed(_ context.Context, t *asynq.Task) error {
	var p VendorConfirmedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Email, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] VendorConfirmed send failed: %v", err)
		return err
	}
	log.Printf("[notify] VendorConfirmed sent -> loop=%s to=%s", p.LoopID, p.Email)
	return nil
}

func handleLoopCompleted(_ context.Context, t *asynq.Task) error {
	var p LoopCompletedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Email, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] LoopCompleted send failed: %v", err)
		return err
	}
	log.Printf("[notify] LoopCompleted sent -> loop=%s to=%s", p.LoopID, p.Email)
	return nil
}

func handleOfferAccepted(_ context.Context, t *asynq.Task) error {
	var p OfferAcceptedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Email, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] OfferAccepted send failed: %v", err)
		return err
	}
	log.Printf("[notify] OfferAccepted sent -> offer=%s to=%s", p.OfferID, p.Email)
	return nil
}
