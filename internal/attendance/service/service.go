// Package service implements the attendance generation run: the single
// operation that turns a lecture's photo evidence and class roster into a
// locked attendance record. The run is idempotent and crash-recoverable;
// calling it any number of times converges on the same final state.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rollcall/internal/attendance"
	"rollcall/internal/attendance/generator"
	"rollcall/internal/attendance/lock"
	"rollcall/internal/attendance/metrics"
	"rollcall/internal/audit"
	"rollcall/internal/enrollment"
	"rollcall/internal/evidence"
	"rollcall/internal/lecture"
	id "rollcall/pkg/domain"
	domainerrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/requestcontext"
)

// Outcome labels for the generations counter.
const (
	outcomeGenerated    = "generated"
	outcomeSkipped      = "skipped"
	outcomeResumed      = "resumed"
	outcomeNoEvidence   = "no_evidence"
	outcomeInvalidState = "invalid_state"
	outcomeNotFound     = "not_found"
	outcomeLockHeld     = "lock_held"
	outcomeError        = "error"
)

// AuditPublisher records domain events. Fire-and-forget.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Result is what a generation run produced. AlreadyProcessed is true when
// the run was a no-op because attendance for the lecture was already
// generated; Record is always the lecture's record in that case.
type Result struct {
	Record           *attendance.Record
	Entries          []*attendance.Entry
	AlreadyProcessed bool
}

// Service orchestrates attendance generation across the lecture state
// machine, the evidence log, the roster, the generator, and the attendance
// store.
type Service struct {
	logger      *slog.Logger
	lectures    lecture.Store
	evidence    evidence.Store
	enrollments enrollment.Store
	records     attendance.Store
	generator   generator.Generator
	locker      lock.Locker
	auditor     AuditPublisher
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

func New(
	logger *slog.Logger,
	lectures lecture.Store,
	ev evidence.Store,
	enrollments enrollment.Store,
	records attendance.Store,
	gen generator.Generator,
	locker lock.Locker,
	auditor AuditPublisher,
	m *metrics.Metrics,
) *Service {
	return &Service{
		logger:      logger,
		lectures:    lectures,
		evidence:    ev,
		enrollments: enrollments,
		records:     records,
		generator:   gen,
		locker:      locker,
		auditor:     auditor,
		metrics:     m,
		tracer:      otel.Tracer("rollcall/attendance"),
	}
}

// Generate runs the attendance lifecycle for one lecture.
//
// Guard order is fixed: lecture exists, then idempotency, then status, then
// evidence. A lecture already at ATTENDANCE_GENERATED or LOCKED yields a
// successful no-op; any guard failure leaves the lecture exactly as it was.
// On success the lecture moves PHOTO_UPLOADED -> ATTENDANCE_GENERATED ->
// LOCKED and an AUTO_LOCKED record with one entry per roster member exists.
func (s *Service) Generate(ctx context.Context, lectureID id.LectureID) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "attendance.Generate",
		trace.WithAttributes(attribute.String("lecture_id", lectureID.String())))
	defer span.End()

	// Wall clock here, not the request-pinned context time: the latter is
	// frozen per request and would observe a zero duration.
	start := time.Now()
	result, outcome, err := s.generate(ctx, lectureID)
	s.metrics.IncrementGeneration(outcome)
	s.metrics.ObserveGenerationLatency(time.Since(start))
	span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result, nil
}

func (s *Service) generate(ctx context.Context, lectureID id.LectureID) (*Result, string, error) {
	release, err := s.locker.Acquire(ctx, lectureID)
	if err != nil {
		if errors.Is(err, sentinel.ErrLockHeld) {
			return nil, outcomeLockHeld, domainerrors.New(domainerrors.CodeConflict, "attendance generation already in progress")
		}
		return nil, outcomeError, domainerrors.Wrap(domainerrors.CodeUnavailable, "acquire generation lock", err)
	}
	defer release()

	lec, err := s.lectures.FindByID(ctx, lectureID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, outcomeNotFound, domainerrors.New(domainerrors.CodeNotFound, "lecture not found")
		}
		return nil, outcomeError, fmt.Errorf("find lecture: %w", err)
	}

	// Idempotency guard. A lecture past generation is a successful no-op,
	// never an error: callers retrying a timed-out request must not see a
	// failure for work that already happened. A lecture still at
	// ATTENDANCE_GENERATED means an earlier run died before the final
	// advance, so finish that step first; otherwise retries would report
	// success forever without the lecture ever reaching LOCKED.
	if lec.Status == lecture.StatusLocked || lec.Status == lecture.StatusAttendanceGenerated {
		if lec.Status == lecture.StatusAttendanceGenerated {
			if err := s.advance(ctx, lec); err != nil {
				return nil, outcomeError, err
			}
		}
		return s.alreadyProcessed(ctx, lec)
	}

	if lec.Status != lecture.StatusPhotoUploaded {
		return nil, outcomeInvalidState, domainerrors.New(domainerrors.CodeInvalidState,
			fmt.Sprintf("lecture status is %s, expected %s", lec.Status, lecture.StatusPhotoUploaded))
	}

	// Crash recovery. A record with the lecture still at PHOTO_UPLOADED
	// means an earlier run died between persisting and advancing; finish
	// its status transitions instead of generating again.
	existing, err := s.records.FindRecordByLecture(ctx, lectureID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, outcomeError, fmt.Errorf("check existing record: %w", err)
	}
	if existing != nil {
		s.logger.Warn("resuming interrupted generation run",
			"lecture_id", lectureID.String(),
			"record_id", existing.ID.String(),
		)
		if err := s.advance(ctx, lec); err != nil {
			return nil, outcomeError, err
		}
		entries, err := s.records.ListEntriesByRecord(ctx, existing.ID)
		if err != nil {
			return nil, outcomeError, fmt.Errorf("list entries: %w", err)
		}
		return &Result{Record: existing, Entries: entries}, outcomeResumed, nil
	}

	items, err := s.evidence.ListByLecture(ctx, lectureID)
	if err != nil {
		return nil, outcomeError, fmt.Errorf("list evidence: %w", err)
	}
	if len(items) == 0 {
		return nil, outcomeNoEvidence, domainerrors.New(domainerrors.CodeNoEvidence, "no evidence registered for lecture")
	}

	roster, err := s.enrollments.ListApprovedByClass(ctx, lec.ClassID)
	if err != nil {
		return nil, outcomeError, fmt.Errorf("load roster: %w", err)
	}
	if len(roster) == 0 {
		// Valid degenerate case: the record is created with zero entries
		// and the lecture locks as usual.
		s.logger.Warn("generating attendance for empty roster",
			"lecture_id", lectureID.String(),
			"class_id", lec.ClassID.String(),
		)
	}

	output, err := s.generator.Score(ctx, items, roster)
	if err != nil {
		return nil, outcomeError, domainerrors.Wrap(domainerrors.CodeInternal, "score attendance", err)
	}
	if err := validateOutput(output, roster); err != nil {
		return nil, outcomeError, domainerrors.Wrap(domainerrors.CodeInternal, "generator produced invalid output", err)
	}

	rec := &attendance.Record{
		ID:               id.NewRecordID(),
		LectureID:        lectureID,
		ClassID:          lec.ClassID,
		GeneratedAt:      requestcontext.Now(ctx),
		GenerationMethod: output.Method,
		ConfidenceScore:  output.AggregateScore,
		Status:           attendance.RecordStatusAutoLocked,
	}
	entries := make([]attendance.Entry, 0, len(output.Results))
	for _, res := range output.Results {
		entries = append(entries, attendance.Entry{
			ID:              id.NewEntryID(),
			RecordID:        rec.ID,
			StudentID:       res.StudentID,
			Status:          res.Status,
			ConfidenceScore: res.ConfidenceScore,
		})
	}

	if err := s.records.CreateRecordWithEntries(ctx, rec, entries); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// A concurrent run won the insert race. Converge on its
			// result.
			return s.alreadyProcessed(ctx, lec)
		}
		return nil, outcomeError, fmt.Errorf("persist attendance record: %w", err)
	}

	if err := s.advance(ctx, lec); err != nil {
		return nil, outcomeError, err
	}

	s.metrics.AddEntriesWritten(len(entries))
	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionAttendanceGenerated,
		ActorID: requestcontext.UserID(ctx),
		Subject: lectureID.String(),
		Detail:  fmt.Sprintf("method=%s entries=%d", output.Method, len(entries)),
	})
	s.logger.Info("attendance generated",
		"lecture_id", lectureID.String(),
		"record_id", rec.ID.String(),
		"method", output.Method,
		"entries", len(entries),
	)

	out := make([]*attendance.Entry, len(entries))
	for i := range entries {
		out[i] = &entries[i]
	}
	return &Result{Record: rec, Entries: out}, outcomeGenerated, nil
}

// alreadyProcessed resolves the no-op path: the record must exist once the
// lecture has passed generation, so a missing one is an integrity fault.
func (s *Service) alreadyProcessed(ctx context.Context, lec *lecture.Lecture) (*Result, string, error) {
	rec, err := s.records.FindRecordByLecture(ctx, lec.ID)
	if err != nil {
		return nil, outcomeError, fmt.Errorf("load record for processed lecture: %w", err)
	}
	entries, err := s.records.ListEntriesByRecord(ctx, rec.ID)
	if err != nil {
		return nil, outcomeError, fmt.Errorf("list entries: %w", err)
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionAttendanceSkipped,
		ActorID: requestcontext.UserID(ctx),
		Subject: lec.ID.String(),
		Detail:  fmt.Sprintf("status=%s", lec.Status),
	})
	return &Result{Record: rec, Entries: entries, AlreadyProcessed: true}, outcomeSkipped, nil
}

// advance walks the lecture to LOCKED through the intermediate status. Each
// step is a compare-and-set; losing a step to a concurrent run is fine as
// long as the lecture keeps moving forward, so ErrStatusChanged is resolved
// by re-reading and continuing from wherever the other run left it.
func (s *Service) advance(ctx context.Context, lec *lecture.Lecture) error {
	steps := []struct {
		from, to lecture.Status
	}{
		{lecture.StatusPhotoUploaded, lecture.StatusAttendanceGenerated},
		{lecture.StatusAttendanceGenerated, lecture.StatusLocked},
	}
	for _, step := range steps {
		if lec.Status.Rank() >= step.to.Rank() {
			continue
		}
		err := s.lectures.AdvanceStatus(ctx, lec.ID, step.from, step.to)
		if err == nil {
			lec.Status = step.to
			continue
		}
		if errors.Is(err, sentinel.ErrStatusChanged) {
			current, ferr := s.lectures.FindByID(ctx, lec.ID)
			if ferr != nil {
				return fmt.Errorf("reload lecture after status race: %w", ferr)
			}
			if current.Status.Rank() < step.to.Rank() {
				return fmt.Errorf("advance lecture %s to %s: %w", lec.ID, step.to, err)
			}
			lec.Status = current.Status
			continue
		}
		return fmt.Errorf("advance lecture %s to %s: %w", lec.ID, step.to, err)
	}
	return nil
}

// validateOutput enforces the generator contract: exactly one result per
// roster member, no strays, no duplicates, confidences in [0,1].
func validateOutput(output *generator.Output, roster []*enrollment.Enrollment) error {
	if output == nil {
		return errors.New("nil output")
	}
	rosterIDs := make(map[id.StudentID]bool, len(roster))
	for _, enr := range roster {
		rosterIDs[enr.StudentID] = true
	}
	if len(output.Results) != len(roster) {
		return fmt.Errorf("got %d results for %d roster students", len(output.Results), len(roster))
	}
	seen := make(map[id.StudentID]bool, len(output.Results))
	for _, res := range output.Results {
		if !rosterIDs[res.StudentID] {
			return fmt.Errorf("result for student %s not on roster", res.StudentID)
		}
		if seen[res.StudentID] {
			return fmt.Errorf("duplicate result for student %s", res.StudentID)
		}
		seen[res.StudentID] = true
		if !res.Status.Valid() {
			return fmt.Errorf("invalid entry status %q for student %s", res.Status, res.StudentID)
		}
		if res.ConfidenceScore < 0 || res.ConfidenceScore > 1 {
			return fmt.Errorf("confidence %f out of range for student %s", res.ConfidenceScore, res.StudentID)
		}
	}
	if output.AggregateScore < 0 || output.AggregateScore > 1 {
		return fmt.Errorf("aggregate confidence %f out of range", output.AggregateScore)
	}
	return nil
}

// GetRecord returns the lecture's attendance record with its entries.
func (s *Service) GetRecord(ctx context.Context, lectureID id.LectureID) (*attendance.Record, []*attendance.Entry, error) {
	rec, err := s.records.FindRecordByLecture(ctx, lectureID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, domainerrors.New(domainerrors.CodeNotFound, "attendance record not found")
		}
		return nil, nil, fmt.Errorf("find record: %w", err)
	}
	entries, err := s.records.ListEntriesByRecord(ctx, rec.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list entries: %w", err)
	}
	return rec, entries, nil
}
