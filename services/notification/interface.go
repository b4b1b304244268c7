package notification

import (
	"context"

	"go.uber.org/zap"
)

// Service defines the delivery surface for user-facing notifications.
// Actual transport (push, email) is a collaborator concern outside this
// codebase.
type Service interface {
	NotifyStudent(ctx context.Context, studentID, title, body string, data map[string]string) error
	NotifyTutor(ctx context.Context, tutorID, title, body string, data map[string]string) error
}

// LogService is the default implementation: it records the notification and
// drops it. Deployments plug a real transport behind the Service interface.
type LogService struct {
	Logger *zap.Logger
}

func (s *LogService) NotifyStudent(ctx context.Context, studentID, title, body string, data map[string]string) error {
	s.Logger.Info("notification (student)",
		zap.String("studentId", studentID),
		zap.String("title", title),
		zap.String("body", body))
	return nil
}

func (s *LogService) NotifyTutor(ctx context.Context, tutorID, title, body string, data map[string]string) error {
	s.Logger.Info("notification (tutor)",
		zap.String("tutorId", tutorID),
		zap.String("title", title),
		zap.String("body", body))
	return nil
}
