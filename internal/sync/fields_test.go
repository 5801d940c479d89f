package sync

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"crm/internal/models"
)

func TestSanitizeFields_DropsUnknownKeys(t *testing.T) {
	out, err := SanitizeFields(models.EntityCalls, map[string]any{
		"phone_number": "+15551234",
		"id":           "abc",
		"created_at":   "2026-01-01T00:00:00Z",
		"updated_at":   "2026-01-01T00:00:00Z",
		"bogus_column": "x",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("out=%v want only phone_number", out)
	}
	if out["phone_number"] != "+15551234" {
		t.Fatalf("phone_number=%v", out["phone_number"])
	}
}

func TestSanitizeFields_CoercesTimestamp(t *testing.T) {
	out, err := SanitizeFields(models.EntityReminders, map[string]any{
		"due_at": "2026-03-01T10:30:00+02:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ts, ok := out["due_at"].(time.Time)
	if !ok {
		t.Fatalf("due_at=%T want time.Time", out["due_at"])
	}
	if ts.Location() != time.UTC {
		t.Fatalf("location=%v want UTC", ts.Location())
	}
	if ts.Hour() != 8 || ts.Minute() != 30 {
		t.Fatalf("ts=%v want 08:30 UTC", ts)
	}
}

func TestSanitizeFields_CoercesDecimal(t *testing.T) {
	out, err := SanitizeFields(models.EntityLeads, map[string]any{
		"deal_value": "1250.50",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, ok := out["deal_value"].(decimal.Decimal)
	if !ok {
		t.Fatalf("deal_value=%T want decimal.Decimal", out["deal_value"])
	}
	if !d.Equal(decimal.RequireFromString("1250.50")) {
		t.Fatalf("deal_value=%s want 1250.50", d)
	}
}

func TestSanitizeFields_CoercesNumberToInt(t *testing.T) {
	// JSON numbers arrive as float64.
	out, err := SanitizeFields(models.EntityCalls, map[string]any{
		"duration_seconds": float64(93),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["duration_seconds"] != 93 {
		t.Fatalf("duration_seconds=%v want 93", out["duration_seconds"])
	}
}

func TestSanitizeFields_BadValueFailsRecord(t *testing.T) {
	_, err := SanitizeFields(models.EntityReminders, map[string]any{
		"due_at": "not-a-timestamp",
	})
	if err == nil {
		t.Fatalf("want error for invalid timestamp")
	}
}

func TestSanitizeFields_NilPassesThrough(t *testing.T) {
	out, err := SanitizeFields(models.EntityCalls, map[string]any{
		"lead_id": nil,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := out["lead_id"]
	if !ok || v != nil {
		t.Fatalf("lead_id=%v present=%v want nil present", v, ok)
	}
}

func TestSanitizeFields_UnknownEntity(t *testing.T) {
	_, err := SanitizeFields(models.EntityType("widgets"), map[string]any{"a": "b"})
	if err == nil {
		t.Fatalf("want error for unknown entity")
	}
}

func TestScopeField(t *testing.T) {
	if got := ScopeField(models.EntityLeads); got != "assigned_to" {
		t.Fatalf("leads scope=%q want assigned_to", got)
	}
	if got := ScopeField(models.EntityCalls); got != "agent_id" {
		t.Fatalf("calls scope=%q want agent_id", got)
	}
	if got := ScopeField(models.EntityReminders); got != "agent_id" {
		t.Fatalf("reminders scope=%q want agent_id", got)
	}
}
