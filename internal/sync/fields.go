package sync

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"crm/internal/models"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindInt
	kindTime
	kindDecimal
)

// Per-entity allowlists for partial updates. Keys absent here are dropped,
// so a client can never persist unexpected columns. id, created_at and
// updated_at are deliberately missing: the store owns them.
var allowedFields = map[models.EntityType]map[string]fieldKind{
	models.EntityCalls: {
		"agent_id":         kindString,
		"lead_id":          kindString,
		"phone_number":     kindString,
		"direction":        kindString,
		"status":           kindString,
		"outcome":          kindString,
		"notes":            kindString,
		"started_at":       kindTime,
		"ended_at":         kindTime,
		"duration_seconds": kindInt,
		"sync_status":      kindString,
	},
	models.EntityLeads: {
		"assigned_to": kindString,
		"name":        kindString,
		"company":     kindString,
		"phone":       kindString,
		"email":       kindString,
		"source":      kindString,
		"status":      kindString,
		"deal_value":  kindDecimal,
		"notes":       kindString,
		"sync_status": kindString,
	},
	models.EntityReminders: {
		"agent_id":     kindString,
		"lead_id":      kindString,
		"title":        kindString,
		"notes":        kindString,
		"due_at":       kindTime,
		"status":       kindString,
		"completed_at": kindTime,
		"sync_status":  kindString,
	},
}

// ScopeField names the column that partitions an entity by agent.
func ScopeField(entity models.EntityType) string {
	if entity == models.EntityLeads {
		return "assigned_to"
	}
	return "agent_id"
}

// SanitizeFields filters a client payload down to the entity allowlist and
// coerces values to storable types. A value that cannot be coerced fails the
// whole record, not the batch.
func SanitizeFields(entity models.EntityType, in map[string]any) (map[string]any, error) {
	allowed, ok := allowedFields[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	out := make(map[string]any, len(in))
	for key, raw := range in {
		kind, ok := allowed[key]
		if !ok {
			continue
		}
		if raw == nil {
			out[key] = nil
			continue
		}
		val, err := coerce(kind, raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %v", key, err)
		}
		out[key] = val
	}
	return out, nil
}

func coerce(kind fieldKind, raw any) (any, error) {
	switch kind {
	case kindString:
		v, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", raw)
		}
		return v, nil
	case kindInt:
		switch v := raw.(type) {
		case float64:
			return int(v), nil
		case int:
			return v, nil
		case int64:
			return int(v), nil
		}
		return nil, fmt.Errorf("expected number, got %T", raw)
	case kindTime:
		switch v := raw.(type) {
		case time.Time:
			return v.UTC(), nil
		case string:
			ts, err := time.Parse(time.RFC3339, strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("invalid timestamp %q", v)
			}
			return ts.UTC(), nil
		}
		return nil, fmt.Errorf("expected timestamp, got %T", raw)
	case kindDecimal:
		switch v := raw.(type) {
		case float64:
			return decimal.NewFromFloat(v), nil
		case string:
			d, err := decimal.NewFromString(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("invalid decimal %q", v)
			}
			return d, nil
		case decimal.Decimal:
			return v, nil
		}
		return nil, fmt.Errorf("expected decimal, got %T", raw)
	}
	return nil, fmt.Errorf("unhandled field kind %d", kind)
}
