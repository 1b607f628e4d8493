package gmt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gmtsync/gmt/internal/model"
	"github.com/gmtsync/gmt/internal/timesheet"
)

// Gateway is the remote surface the reconciler drives. *Client satisfies
// it; tests substitute fakes.
type Gateway interface {
	CreateEntry(ctx context.Context, cand Candidate) error
	DeleteEntry(ctx context.Context, id int) error
	FetchPage(ctx context.Context, start time.Time) ([]model.RemoteEntry, error)
}

// Result holds per-pass counters. Unresolved counts rows whose entry was
// created remotely but whose id could not be recovered; they are a subset
// of Created.
type Result struct {
	Processed  int
	Created    int
	Deleted    int
	Skipped    int
	Failed     int
	Unresolved int
}

// Reconciler applies the pending actions encoded in a timesheet's sentinel
// IDs against the remote service and rewrites the file to reflect the
// outcome. One pass is strictly sequential; the gateway's own throttling
// paces the remote calls.
type Reconciler struct {
	gw        Gateway
	validator *Validator
	logger    *zap.Logger

	// DryRun performs read-only lookups but suppresses creates, deletes,
	// and the file rewrite.
	DryRun bool
	// Force relaxes the override-able validation rules.
	Force bool
}

// NewReconciler builds a reconciliation driver.
func NewReconciler(gw Gateway, validator *Validator, logger *zap.Logger) *Reconciler {
	return &Reconciler{gw: gw, validator: validator, logger: logger}
}

// Run reconciles the timesheet at path. Reading the file or publishing the
// rewrite can fail the whole pass; anything that goes wrong while handling
// a single row is confined to that row. On a non-dry-run pass the original
// file survives as path + ".bak".
func (r *Reconciler) Run(ctx context.Context, path string) (Result, error) {
	rows, err := timesheet.ReadFile(path)
	if err != nil {
		return Result{}, err
	}

	result := r.ReconcileRows(ctx, rows)

	if r.DryRun {
		return result, nil
	}
	if err := timesheet.Rewrite(path, rows); err != nil {
		return result, fmt.Errorf("rewriting timesheet: %w", err)
	}
	return result, nil
}

// ReconcileRows processes every row in input order, mutating rows in place:
// successful creates gain their recovered id, successful deletes are
// flagged for exclusion, and failed rows are left exactly as read so a
// retry of the rewritten file is safe.
func (r *Reconciler) ReconcileRows(ctx context.Context, rows []*timesheet.Row) Result {
	log := r.logger.With(zap.String("run_id", uuid.NewString()))

	result := Result{Processed: len(rows)}
	for i, row := range rows {
		rowLog := log.With(
			zap.Int("row", i+1),
			zap.String("date", row.Date),
			zap.String("customer", row.Customer),
			zap.String("activity", row.Activity),
		)
		r.processRow(ctx, rowLog, row, &result)
	}
	return result
}

// processRow handles one row. A panic while handling the row must never
// corrupt or lose the rest of the file, so it is recovered here and the
// row passes through unchanged.
func (r *Reconciler) processRow(ctx context.Context, log *zap.Logger, row *timesheet.Row, result *Result) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("row handling panicked; row left unchanged", zap.Any("panic", p))
			result.Failed++
		}
	}()

	action, id := timesheet.Classify(row)
	switch action {
	case timesheet.ActionSkip:
		result.Skipped++

	case timesheet.ActionDelete:
		r.deleteRow(ctx, log, row, id, result)

	case timesheet.ActionCreate:
		r.createRow(ctx, log, row, result)
	}
}

func (r *Reconciler) deleteRow(ctx context.Context, log *zap.Logger, row *timesheet.Row, id int, result *Result) {
	if r.DryRun {
		log.Info("dry-run: would delete entry", zap.Int("id", id))
		result.Deleted++
		return
	}
	if err := r.gw.DeleteEntry(ctx, id); err != nil {
		log.Error("delete failed; row left unchanged", zap.Int("id", id), zap.Error(err))
		result.Failed++
		return
	}
	row.MarkDeleted()
	result.Deleted++
}

func (r *Reconciler) createRow(ctx context.Context, log *zap.Logger, row *timesheet.Row, result *Result) {
	cand, err := candidateFromRow(row)
	if err != nil {
		log.Error("invalid row; left unchanged", zap.Error(err))
		result.Failed++
		return
	}

	if err := r.validator.Validate(cand, r.Force); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			log.Warn("validation failed; row left unchanged",
				zap.String("reason", string(verr.Reason)), zap.Error(verr))
		} else {
			log.Warn("validation failed; row left unchanged", zap.Error(err))
		}
		result.Failed++
		return
	}

	if r.DryRun {
		log.Info("dry-run: would create entry")
		result.Created++
		return
	}

	if err := r.gw.CreateEntry(ctx, cand); err != nil {
		log.Error("create failed; row left unchanged", zap.Error(err))
		result.Failed++
		return
	}
	result.Created++

	r.resolveID(ctx, log, row, cand, result)
}

// resolveID re-fetches the 24-hour window around the new entry's date and
// fuzzy-matches it to recover the server-assigned id. A miss only degrades
// a future re-run (the row would be treated as new again), so it is a
// warning, not a failure.
func (r *Reconciler) resolveID(ctx context.Context, log *zap.Logger, row *timesheet.Row, cand Candidate, result *Result) {
	day := cand.Date
	entries, err := FetchEntries(ctx, r.gw, day, day.Add(24*time.Hour)).Collect()
	if err != nil {
		log.Warn("id recovery fetch failed; entry is remote but row keeps no id", zap.Error(err))
		result.Unresolved++
		return
	}

	match, count := FindMatch(cand.Customer, cand.Activity, cand.Hours(), entries)
	if match == nil {
		log.Warn("id recovery failed; entry is remote but row keeps no id",
			zap.Error(&MatchNotFoundError{Date: day, Customer: cand.Customer, Activity: cand.Activity}))
		result.Unresolved++
		return
	}
	if count > 1 {
		log.Warn("multiple remote entries match the created one; using the first",
			zap.Int("candidates", count), zap.Int("id", match.ID))
	}
	row.ID = strconv.Itoa(match.ID)
}

// candidateFromRow converts a timesheet row into a submission candidate.
func candidateFromRow(row *timesheet.Row) (Candidate, error) {
	date, err := row.ParsedDate()
	if err != nil {
		return Candidate{}, err
	}
	minutes, err := row.Minutes()
	if err != nil {
		return Candidate{}, err
	}
	return Candidate{
		Date:     date,
		Customer: row.Customer,
		Activity: row.Activity,
		Comments: row.Notes,
		Minutes:  minutes,
		Billable: row.IsBillable(),
	}, nil
}
