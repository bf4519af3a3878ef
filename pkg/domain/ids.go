// Package domain holds value types shared across features: typed identifiers
// and small enums that cross package boundaries.
//
// IDs wrap uuid.UUID so the compiler rejects cross-type assignment (a
// LectureID can never be passed where a StudentID is expected). Construct
// them via the Parse helpers at trust boundaries; direct casting bypasses
// validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "rollcall/pkg/domain-errors"
)

type (
	UserID       uuid.UUID
	SessionID    uuid.UUID
	ClassID      uuid.UUID
	StudentID    uuid.UUID
	EnrollmentID uuid.UUID
	LectureID    uuid.UUID
	SlotID       uuid.UUID
	EvidenceID   uuid.UUID
	RecordID     uuid.UUID
	EntryID      uuid.UUID
	DisputeID    uuid.UUID
	OverrideID   uuid.UUID
)

func (id UserID) String() string       { return uuid.UUID(id).String() }
func (id SessionID) String() string    { return uuid.UUID(id).String() }
func (id ClassID) String() string      { return uuid.UUID(id).String() }
func (id StudentID) String() string    { return uuid.UUID(id).String() }
func (id EnrollmentID) String() string { return uuid.UUID(id).String() }
func (id LectureID) String() string    { return uuid.UUID(id).String() }
func (id SlotID) String() string       { return uuid.UUID(id).String() }
func (id EvidenceID) String() string   { return uuid.UUID(id).String() }
func (id RecordID) String() string     { return uuid.UUID(id).String() }
func (id EntryID) String() string      { return uuid.UUID(id).String() }
func (id DisputeID) String() string    { return uuid.UUID(id).String() }
func (id OverrideID) String() string   { return uuid.UUID(id).String() }

func (id UserID) IsZero() bool       { return uuid.UUID(id) == uuid.Nil }
func (id ClassID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id StudentID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }
func (id EnrollmentID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id LectureID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id DisputeID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }

// parseUUID enforces the shared invariant: IDs must be valid, non-nil UUIDs.
func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid uuid")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil uuid")
	}
	return u, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	return UserID(u), err
}

func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s)
	return SessionID(u), err
}

func ParseClassID(s string) (ClassID, error) {
	u, err := parseUUID(s)
	return ClassID(u), err
}

func ParseStudentID(s string) (StudentID, error) {
	u, err := parseUUID(s)
	return StudentID(u), err
}

func ParseEnrollmentID(s string) (EnrollmentID, error) {
	u, err := parseUUID(s)
	return EnrollmentID(u), err
}

func ParseLectureID(s string) (LectureID, error) {
	u, err := parseUUID(s)
	return LectureID(u), err
}

func ParseSlotID(s string) (SlotID, error) {
	u, err := parseUUID(s)
	return SlotID(u), err
}

func ParseEntryID(s string) (EntryID, error) {
	u, err := parseUUID(s)
	return EntryID(u), err
}

func ParseDisputeID(s string) (DisputeID, error) {
	u, err := parseUUID(s)
	return DisputeID(u), err
}

func ParseOverrideID(s string) (OverrideID, error) {
	u, err := parseUUID(s)
	return OverrideID(u), err
}

func NewUserID() UserID             { return UserID(uuid.New()) }
func NewSessionID() SessionID       { return SessionID(uuid.New()) }
func NewClassID() ClassID           { return ClassID(uuid.New()) }
func NewStudentID() StudentID       { return StudentID(uuid.New()) }
func NewEnrollmentID() EnrollmentID { return EnrollmentID(uuid.New()) }
func NewLectureID() LectureID       { return LectureID(uuid.New()) }
func NewSlotID() SlotID             { return SlotID(uuid.New()) }
func NewEvidenceID() EvidenceID     { return EvidenceID(uuid.New()) }
func NewRecordID() RecordID         { return RecordID(uuid.New()) }
func NewEntryID() EntryID           { return EntryID(uuid.New()) }
func NewDisputeID() DisputeID       { return DisputeID(uuid.New()) }
func NewOverrideID() OverrideID     { return OverrideID(uuid.New()) }
