package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
)

// RecurrenceAPIForDelete defines the CRM client slice needed to delete a
// recurring series.
type RecurrenceAPIForDelete interface {
	DeleteRecurringRule(ctx context.Context, ruleID int64, deleteFuture bool) error
}

// DeleteRecurringSeriesInput carries input for the delete orchestrator.
type DeleteRecurringSeriesInput struct {
	RuleID       int64
	DeleteFuture bool // cascade to future generated sessions
}

// DeleteRecurringSeriesDeps holds dependencies for the delete orchestrator.
type DeleteRecurringSeriesDeps struct {
	CRM RecurrenceAPIForDelete
}

// ExecuteDeleteRecurringSeries removes a recurrence rule, optionally
// cascading to the future sessions it generated. The cascade itself runs
// server-side.
// PRE: input.RuleID > 0
// POST: Rule removed remotely, or an error classifies the rejection
func ExecuteDeleteRecurringSeries(ctx context.Context, input DeleteRecurringSeriesInput, deps DeleteRecurringSeriesDeps) error {
	if input.RuleID <= 0 {
		return fmt.Errorf("rule ID is required")
	}
	if err := deps.CRM.DeleteRecurringRule(ctx, input.RuleID, input.DeleteFuture); err != nil {
		return fmt.Errorf("delete recurring series %d: %w", input.RuleID, err)
	}
	slog.Info("session_event", "event", "recurring_series_deleted", "rule_id", input.RuleID, "delete_future", input.DeleteFuture)
	return nil
}
