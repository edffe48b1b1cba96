package domain

// Item is a tracked formalin container. Optional columns are nil when unset.
type Item struct {
	ID        int64   `json:"id" bson:"id"`
	Key       string  `json:"key" bson:"key"`
	Place     *string `json:"place" bson:"place"`
	Status    *string `json:"status" bson:"status"`
	Timestamp *string `json:"timestamp" bson:"timestamp"` // normalized local time
	Size      *string `json:"size" bson:"size"`
	Expired   *string `json:"expired" bson:"expired"`
	LotNumber *string `json:"lot_number" bson:"lot_number"`
}

// HistoryEntry is one append-only audit record of an item transition.
type HistoryEntry struct {
	ID        int64  `json:"history_id"`
	ItemID    int64  `json:"-"`
	UpdatedBy string `json:"updatedBy"`
	UpdatedAt string `json:"updatedAt"`
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
	OldPlace  string `json:"oldPlace"`
	NewPlace  string `json:"newPlace"`
}

type ItemWithHistory struct {
	Item
	History []HistoryEntry `json:"history"`
}
