package domain

import (
	"fmt"
	"strings"
)

// ItemPatch describes a partial update. Each field is merged independently:
// absent keeps the stored value, null clears it, a value replaces it.
type ItemPatch struct {
	Key       Field `json:"key,omitzero"`
	Place     Field `json:"place,omitzero"`
	Status    Field `json:"status,omitzero"`
	Timestamp Field `json:"timestamp,omitzero"`
	Size      Field `json:"size,omitzero"`
	Expired   Field `json:"expired,omitzero"`
	LotNumber Field `json:"lotNumber,omitzero"`
}

// Validate rejects patches that would leave an item without a key.
func (p ItemPatch) Validate() error {
	if p.Key.Set && (!p.Key.Valid || strings.TrimSpace(p.Key.Value) == "") {
		return fmt.Errorf("%w: key cannot be cleared", ErrValidation)
	}
	return nil
}

func (p ItemPatch) IsEmpty() bool {
	return !p.Key.Set && !p.Place.Set && !p.Status.Set && !p.Timestamp.Set &&
		!p.Size.Set && !p.Expired.Set && !p.LotNumber.Set
}

// Apply merges the patch onto item and returns the result. Applying the
// same patch twice yields the same item.
func (p ItemPatch) Apply(item Item) Item {
	if p.Key.Set && p.Key.Valid {
		item.Key = p.Key.Value
	}
	item.Place = merge(p.Place, item.Place)
	item.Status = merge(p.Status, item.Status)
	item.Timestamp = merge(p.Timestamp, item.Timestamp)
	item.Size = merge(p.Size, item.Size)
	item.Expired = merge(p.Expired, item.Expired)
	item.LotNumber = merge(p.LotNumber, item.LotNumber)
	return item
}

func merge(f Field, current *string) *string {
	if !f.Set {
		return current
	}
	return f.Ptr()
}
