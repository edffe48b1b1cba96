package domain

// Audit holds the audit fields of a mutation that passed the
// both-or-neither gate on UpdatedBy and UpdatedAt.
type Audit struct {
	UpdatedBy string
	UpdatedAt string // normalized local time
	OldStatus Field
	NewStatus Field
	OldPlace  Field
	NewPlace  Field
}

// Entry resolves the history record for a write that turned before into
// after. Unsupplied old values come from before and unsupplied new values
// from after, rather than defaulting to "". A create with only status set
// therefore records that status as NewStatus. Explicit nulls and columns
// that are null in the row become empty strings.
func (a Audit) Entry(itemID int64, before, after Item) HistoryEntry {
	return HistoryEntry{
		ItemID:    itemID,
		UpdatedBy: a.UpdatedBy,
		UpdatedAt: a.UpdatedAt,
		OldStatus: resolve(a.OldStatus, before.Status),
		NewStatus: resolve(a.NewStatus, after.Status),
		OldPlace:  resolve(a.OldPlace, before.Place),
		NewPlace:  resolve(a.NewPlace, after.Place),
	}
}

func resolve(f Field, fallback *string) string {
	if f.Set {
		return f.Value
	}
	if fallback == nil {
		return ""
	}
	return *fallback
}
