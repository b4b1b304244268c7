package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"tutorhive/config"
	"tutorhive/models"
	"tutorhive/services/notification"

	"github.com/hibiken/asynq"
)

const TypeSessionReminder = "session:reminder"

// reminderLead is how long before the session start the reminder fires.
const reminderLead = time.Hour

// InitReminderWorker runs the async worker in background.
func InitReminderWorker(notifSvc notification.Service) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSessionReminder, handleReminderTask(notifSvc))

	go func() {
		log.Println("[ReminderWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[ReminderWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[ReminderWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleReminderTask(notifSvc notification.Service) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[ReminderHandler] invalid payload: %v", err)
			return err
		}

		data := map[string]string{
			"sessionId": p.SessionID,
			"startsAt":  p.StartsAt,
		}
		body := "Your tutoring session starts at " + p.StartsAt

		if err := notifSvc.NotifyStudent(ctx, p.StudentID, p.Title, body, data); err != nil {
			log.Printf("[ReminderHandler] failed to notify student: %v", err)
			return err
		}
		if err := notifSvc.NotifyTutor(ctx, p.TutorID, p.Title, body, data); err != nil {
			log.Printf("[ReminderHandler] failed to notify tutor: %v", err)
		}
		return nil
	}
}
