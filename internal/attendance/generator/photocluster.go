package generator

import (
	"context"

	"rollcall/internal/attendance"
	"rollcall/internal/enrollment"
	"rollcall/internal/evidence"
)

const (
	// MethodPhotoClusterV1 tags records produced by the deterministic stub.
	MethodPhotoClusterV1 = "PHOTO_CLUSTER_V1"

	// stubConfidence is the fixed score the stub assigns. It is a property
	// of this variant, not a system invariant; real scorers emit anything
	// in [0,1].
	stubConfidence = 0.85
)

// PhotoClusterV1 is the deterministic stub scorer. It never opens the
// photos: every roster member is marked PRESENT at a fixed confidence. It
// exists so the state machine, persistence, and dispute workflow can be
// built and exercised before a real model lands.
type PhotoClusterV1 struct{}

func NewPhotoClusterV1() *PhotoClusterV1 {
	return &PhotoClusterV1{}
}

func (g *PhotoClusterV1) Method() string {
	return MethodPhotoClusterV1
}

func (g *PhotoClusterV1) Score(_ context.Context, _ []*evidence.Item, roster []*enrollment.Enrollment) (*Output, error) {
	results := make([]StudentResult, 0, len(roster))
	for _, enr := range roster {
		results = append(results, StudentResult{
			StudentID:       enr.StudentID,
			Status:          attendance.EntryStatusPresent,
			ConfidenceScore: stubConfidence,
		})
	}
	return &Output{
		Method:         MethodPhotoClusterV1,
		AggregateScore: stubConfidence,
		Results:        results,
	}, nil
}
