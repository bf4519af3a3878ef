// Package evidence owns attendance photo metadata. Items are immutable once
// created: the store exposes append and read operations only, and nothing in
// the system mutates or deletes an item after registration.
package evidence

import (
	"time"

	id "rollcall/pkg/domain"
)

// Item is one uploaded photo registered as generation input for a lecture.
// StoragePointer references the object store location; the photo bytes
// themselves never pass through this service.
type Item struct {
	ID             id.EvidenceID
	LectureID      id.LectureID
	StoragePointer string
	UploadedBy     id.UserID
	UploadedAt     time.Time
}
