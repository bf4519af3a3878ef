package class

import (
	"context"

	id "rollcall/pkg/domain"
)

// Store persists classes and their slots. Class code is unique.
type Store interface {
	Save(ctx context.Context, c *Class) error
	FindByID(ctx context.Context, classID id.ClassID) (*Class, error)
	List(ctx context.Context) ([]*Class, error)
	ListByLecturer(ctx context.Context, lecturerID id.UserID) ([]*Class, error)

	SaveSlot(ctx context.Context, slot *Slot) error
	FindSlotByID(ctx context.Context, slotID id.SlotID) (*Slot, error)
	ListSlotsByClass(ctx context.Context, classID id.ClassID) ([]*Slot, error)
}
