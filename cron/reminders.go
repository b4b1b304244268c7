package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tutorhive/config"
	"tutorhive/models"

	"github.com/hibiken/asynq"
)

// ReminderClient enqueues session reminders onto the asynq queue. It
// implements tutoring.ReminderScheduler.
type ReminderClient struct {
	client *asynq.Client
}

// NewReminderClient builds a client against the configured reminder queue.
func NewReminderClient() *ReminderClient {
	return &ReminderClient{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     config.AppConfig.RedisAddr,
			Password: config.AppConfig.RedisPassword,
			DB:       config.AppConfig.RedisReminderQueueDB,
		}),
	}
}

// ScheduleSessionReminder queues a reminder to fire one hour before the
// session starts. Sessions starting sooner than the lead get no reminder.
func (c *ReminderClient) ScheduleSessionReminder(ctx context.Context, session models.TutoringSession) error {
	fireAt := session.Start.Add(-reminderLead)
	if !fireAt.After(time.Now()) {
		return nil
	}

	payload, err := json.Marshal(models.ReminderPayload{
		SessionID: session.ID,
		StudentID: session.StudentID,
		TutorID:   session.TutorID,
		Title:     "Upcoming tutoring session",
		StartsAt:  session.Start.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal reminder payload: %w", err)
	}

	task := asynq.NewTask(TypeSessionReminder, payload)
	if _, err := c.client.EnqueueContext(ctx, task, asynq.ProcessAt(fireAt)); err != nil {
		return fmt.Errorf("failed to enqueue session reminder: %w", err)
	}
	return nil
}

// Close releases the underlying queue connection.
func (c *ReminderClient) Close() error {
	return c.client.Close()
}
