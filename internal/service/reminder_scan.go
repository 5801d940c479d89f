package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"crm/internal/bus"
	"crm/internal/models"
	"crm/internal/repository"
)

// ReminderScanService notifies agents of reminders that have come due. Each
// reminder is notified at most once; the notified marker is kept out of the
// sync cursor so a scan does not look like a client-visible change.
type ReminderScanService struct {
	Repo   repository.Repository
	Bus    bus.Bus
	Logger *zap.Logger
	Limit  int
}

func (s *ReminderScanService) Scan(ctx context.Context) error {
	now := time.Now().UTC()
	due, err := s.Repo.ListDueReminders(ctx, now, s.Limit)
	if err != nil {
		return err
	}
	for _, reminder := range due {
		if err := s.notifyOne(ctx, reminder, now); err != nil {
			if s.Logger != nil {
				s.Logger.Warn("reminder notify failed",
					zap.String("reminder_id", reminder.ID),
					zap.Error(err),
				)
			}
			continue
		}
	}
	if len(due) > 0 && s.Logger != nil {
		s.Logger.Info("reminder due scan", zap.Int("due", len(due)))
	}
	return nil
}

func (s *ReminderScanService) notifyOne(ctx context.Context, reminder models.Reminder, now time.Time) error {
	payload := map[string]any{
		"reminder_id": reminder.ID,
		"agent_id":    reminder.AgentID,
		"title":       reminder.Title,
	}
	if reminder.LeadID != nil {
		payload["lead_id"] = *reminder.LeadID
	}
	raw, _ := json.Marshal(payload)

	if err := s.Repo.InsertNotification(ctx, &models.Notification{
		AgentID: reminder.AgentID,
		Event:   bus.EventReminderDue,
		Title:   "Reminder due",
		Body:    reminder.Title,
		Payload: datatypes.JSON(raw),
	}); err != nil {
		return err
	}
	if err := s.Repo.MarkReminderNotified(ctx, reminder.ID, now); err != nil {
		return err
	}
	if s.Bus != nil {
		s.Bus.Publish(ctx, bus.Event{
			Name:    bus.EventReminderDue,
			AgentID: reminder.AgentID,
			Payload: payload,
		})
	}
	return nil
}
