// Package workflow holds the production state machine: how an item's status
// change opens, closes and reactivates per-stage assignments, and how the
// order status is derived from its items. All functions are pure in-memory
// mutations; the caller persists the whole aggregate afterwards.
package workflow

import (
	"time"

	"printshop-backend/internal/storage"
)

func closeAssignment(a *storage.Assignment, now time.Time) {
	a.CompletedAt = &now
	a.IsActive = false
	var spent int64
	if a.StartedAt != nil {
		spent = now.Sub(*a.StartedAt).Milliseconds()
	} else {
		spent = now.Sub(a.AssignedAt).Milliseconds()
	}
	a.TimeSpent = &spent
}

// closeActive closes active assignments on the item; stage == nil means all
// stages.
func closeActive(item *storage.OrderItem, stage *storage.ItemStatus, now time.Time) {
	for i := range item.Assignments {
		a := &item.Assignments[i]
		if a.IsActive && (stage == nil || a.Stage == *stage) {
			closeAssignment(a, now)
		}
	}
}

// latestForStage returns the index of the most recently assigned record for
// the stage, or -1. One record per stage is reused across re-entries so the
// assignment list stays bounded by the number of distinct stages visited.
func latestForStage(item *storage.OrderItem, stage storage.ItemStatus) int {
	best := -1
	for i := range item.Assignments {
		if item.Assignments[i].Stage != stage {
			continue
		}
		if best == -1 || item.Assignments[i].AssignedAt.After(item.Assignments[best].AssignedAt) {
			best = i
		}
	}
	return best
}

// ApplyItemStatusChange mutates the item's assignment list for a transition
// from its current status to newStatus. It does not update item.ItemStatus;
// TransitionItem does that after this returns. actor is the acting employee
// id when known. Total over valid stage values, never fails.
func ApplyItemStatusChange(item *storage.OrderItem, newStatus storage.ItemStatus, actor *int64, now time.Time) {
	oldStatus := item.ItemStatus
	if oldStatus == newStatus {
		return
	}

	// Close the stage being left, including TO_DO.
	if oldStatus != "" {
		closeActive(item, &oldStatus, now)
	}

	switch {
	case newStatus == storage.ItemDone:
		// An item reaching DONE must have no open work.
		closeActive(item, nil, now)
	case newStatus == storage.ItemToDo:
		// Back to the backlog: no stage is in progress.
		closeActive(item, nil, now)
	default:
		if idx := latestForStage(item, newStatus); idx >= 0 {
			a := &item.Assignments[idx]
			a.IsActive = true
			started := now
			a.StartedAt = &started
			a.CompletedAt = nil
			// Overwrite a null assignee so re-entries don't accumulate
			// duplicate records without an owner.
			if actor != nil {
				a.AssignedTo = actor
				a.AssignedToName = nil
			}
		} else {
			started := now
			item.Assignments = append(item.Assignments, storage.Assignment{
				Stage:      newStatus,
				AssignedTo: actor,
				AssignedAt: now,
				StartedAt:  &started,
				IsActive:   true,
			})
		}
	}

	// Invariant repair: at most one active assignment. Guards against
	// double invocation; closes every active record after the first.
	firstActiveSeen := false
	for i := range item.Assignments {
		a := &item.Assignments[i]
		if !a.IsActive {
			continue
		}
		if !firstActiveSeen {
			firstActiveSeen = true
			continue
		}
		closeAssignment(a, now)
	}
}

// TransitionItem applies a status change to one item of the order and
// re-derives the order status. Returns storage.ErrItemNotFound when the item
// id does not resolve.
func TransitionItem(order *storage.Order, itemID string, newStatus storage.ItemStatus, actor *int64, now time.Time) error {
	item := order.Item(itemID)
	if item == nil {
		return storage.ErrItemNotFound
	}

	ApplyItemStatusChange(item, newStatus, actor, now)
	item.ItemStatus = newStatus

	if derived := DeriveOrderStatus(order.Items); derived != order.Status {
		order.Status = derived
	}
	return nil
}

// DeriveOrderStatus computes the order status as a pure function of the item
// statuses.
func DeriveOrderStatus(items []storage.OrderItem) storage.OrderStatus {
	if len(items) == 0 {
		return storage.OrderToDo
	}

	allDone := true
	for i := range items {
		if items[i].ItemStatus != storage.ItemDone {
			allDone = false
			break
		}
	}
	// All items produced: the order can be collected but is not DONE until
	// the explicit order-level action.
	if allDone {
		return storage.OrderReadyToBeTaken
	}

	for i := range items {
		if s := items[i].ItemStatus; s != storage.ItemToDo && s != storage.ItemCancelled {
			return storage.OrderInProgress
		}
	}
	return storage.OrderToDo
}

// CompleteOrder is the explicit bulk completion behind the order-level DONE
// override: every item is forced to DONE and every active assignment across
// all items is closed. This is the one path where order status drives item
// status.
func CompleteOrder(order *storage.Order, now time.Time) {
	for i := range order.Items {
		item := &order.Items[i]
		if item.ItemStatus != storage.ItemDone {
			item.ItemStatus = storage.ItemDone
		}
		closeActive(item, nil, now)
	}
}
