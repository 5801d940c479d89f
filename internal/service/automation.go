package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"crm/internal/bus"
	"crm/internal/models"
	"crm/internal/repository"
)

// AutomationService evaluates stored rules against bus events. Evaluation is
// plain filtering over the fetched rule set; rules do not chain.
type AutomationService struct {
	Repo   repository.Repository
	Hub    *bus.Hub
	Bus    bus.Bus
	Logger *zap.Logger
}

func (a *AutomationService) Run(ctx context.Context) error {
	events, cancel := a.Hub.Subscribe(64)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			a.Evaluate(ctx, evt)
		}
	}
}

func (a *AutomationService) Evaluate(ctx context.Context, evt bus.Event) {
	switch evt.Name {
	case models.TriggerLeadStatusChanged, models.TriggerCallCompleted, models.TriggerReminderDue:
	default:
		return
	}
	rules, err := a.Repo.ListAutomationRules(ctx, true)
	if err != nil {
		if a.Logger != nil {
			a.Logger.Warn("automation rule fetch failed", zap.Error(err))
		}
		return
	}
	for _, rule := range rules {
		if rule.Trigger != evt.Name {
			continue
		}
		if !matchConditions(rule.Match, evt.Payload) {
			continue
		}
		if err := a.apply(ctx, rule, evt); err != nil && a.Logger != nil {
			a.Logger.Warn("automation action failed",
				zap.Uint64("rule_id", rule.ID),
				zap.String("action", rule.Action),
				zap.Error(err),
			)
		}
	}
}

func matchConditions(match datatypes.JSON, payload map[string]any) bool {
	if len(match) == 0 {
		return true
	}
	var conditions map[string]any
	if err := json.Unmarshal(match, &conditions); err != nil {
		return false
	}
	for key, want := range conditions {
		got, ok := payload[key]
		if !ok {
			return false
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

type automationParams struct {
	Title        string `json:"title"`
	Body         string `json:"body"`
	Notes        string `json:"notes"`
	DueInMinutes int    `json:"due_in_minutes"`
}

func (a *AutomationService) apply(ctx context.Context, rule models.AutomationRule, evt bus.Event) error {
	var params automationParams
	if len(rule.ActionParams) > 0 {
		if err := json.Unmarshal(rule.ActionParams, &params); err != nil {
			return err
		}
	}
	agentID := evt.AgentID
	if agentID == "" {
		agentID, _ = evt.Payload["agent_id"].(string)
	}
	if agentID == "" {
		return fmt.Errorf("rule %d: event %q has no agent scope", rule.ID, evt.Name)
	}

	switch rule.Action {
	case models.ActionCreateReminder:
		title := params.Title
		if title == "" {
			title = rule.Name
		}
		item := &models.Reminder{
			AgentID: agentID,
			Title:   title,
			Notes:   params.Notes,
		}
		if leadID, ok := evt.Payload["lead_id"].(string); ok && leadID != "" {
			item.LeadID = &leadID
		}
		if params.DueInMinutes > 0 {
			due := time.Now().UTC().Add(time.Duration(params.DueInMinutes) * time.Minute)
			item.DueAt = &due
		}
		return a.Repo.CreateReminder(ctx, item)
	case models.ActionNotify:
		title := params.Title
		if title == "" {
			title = rule.Name
		}
		raw, _ := json.Marshal(evt.Payload)
		if err := a.Repo.InsertNotification(ctx, &models.Notification{
			AgentID: agentID,
			Event:   evt.Name,
			Title:   title,
			Body:    params.Body,
			Payload: datatypes.JSON(raw),
		}); err != nil {
			return err
		}
		if a.Bus != nil {
			a.Bus.Publish(ctx, bus.Event{
				Name:    bus.EventNotification,
				AgentID: agentID,
				Payload: map[string]any{"title": title, "body": params.Body, "source": evt.Name},
			})
		}
		return nil
	}
	return fmt.Errorf("rule %d: unknown action %q", rule.ID, rule.Action)
}
