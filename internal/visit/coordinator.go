package visit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	deleteEntriesSQL = `DELETE FROM sfa_visitdet WHERE id_visit = ?`
	deleteHeaderSQL  = `DELETE FROM sfa_visit WHERE id_visit = ?`
	insertHeaderSQL  = `INSERT INTO sfa_visit
		(id_visit, tanggal, idspv, idpelanggan, latitude, longitude, mulai, selesai, catatan, idsales, nocall)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertEntrySQL = `INSERT INTO sfa_visitdet
		(id_visit, id_feature, id_featuredetail, id_featuresubdetail, checklist)
		VALUES (?, ?, ?, ?, ?)`
)

// Coordinator persists visit submissions. Each submission replaces any
// previously stored visit with the same id inside a single transaction, so a
// resent submission is safe and readers never see a header without its entries.
type Coordinator struct {
	provider Provider
	timeout  time.Duration
	lockStmt string
	locks    *keyedLock
	metrics  *Metrics
	logger   *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTimeout bounds the whole submission, including the wait for the
// per-visit lock. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

// WithAdvisoryLock sets a statement, taking the visit id as its only argument,
// that is executed first in every transaction to serialize same-visit writers
// across processes.
func WithAdvisoryLock(stmt string) Option {
	return func(c *Coordinator) { c.lockStmt = stmt }
}

// WithVisitSerialization makes concurrent submissions of the same visit id
// within this process wait for each other.
func WithVisitSerialization(enabled bool) Option {
	return func(c *Coordinator) {
		if enabled {
			c.locks = newKeyedLock()
		} else {
			c.locks = nil
		}
	}
}

// WithMetrics records outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// NewCoordinator creates a coordinator over the given provider.
func NewCoordinator(p Provider, opts ...Option) *Coordinator {
	c := &Coordinator{provider: p, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit validates p and replaces the stored visit with it.
// Errors are always *Error; use KindOf to classify them.
func (c *Coordinator) Submit(ctx context.Context, p *Payload) (res Result, err error) {
	start := time.Now()
	defer func() { c.metrics.observe(err, time.Since(start)) }()

	header, err := p.Validate()
	if err != nil {
		c.logger.Warn("visit rejected", "id_visit", string(p.VisitID), "error", err)
		return Result{}, err
	}
	entries := p.Entries()

	c.logger.Debug("visit received",
		"id_visit", header.VisitID,
		"details", len(p.Details),
		"entries", len(entries),
	)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if c.locks != nil {
		unlock, err := c.locks.Lock(ctx, header.VisitID)
		if err != nil {
			c.logger.Warn("visit lock wait abandoned", "id_visit", header.VisitID, "error", err)
			return Result{}, newError(KindConnection, "visit is busy, try again", err)
		}
		defer unlock()
	}

	conn, err := c.provider.Acquire(ctx)
	if err != nil {
		c.logger.Error("visit connection failed", "id_visit", header.VisitID, "error", err)
		return Result{}, newError(KindConnection, "database connection failed", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			c.logger.Warn("releasing connection", "id_visit", header.VisitID, "error", cerr)
		}
	}()

	tx, err := conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		c.logger.Error("visit transaction failed to start", "id_visit", header.VisitID, "error", err)
		return Result{}, newError(KindTransaction, "transaction failed to start", err)
	}

	if err := c.replace(ctx, tx, header, entries); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			c.logger.Error("visit rollback failed", "id_visit", header.VisitID, "error", rbErr)
		}
		c.logger.Error("visit submission rolled back", "id_visit", header.VisitID, "error", err)
		return Result{}, newError(KindQuery, "submission failed", err)
	}

	if err := tx.Commit(); err != nil {
		c.logger.Error("visit commit failed", "id_visit", header.VisitID, "error", err)
		return Result{}, newError(KindTransaction, "commit failed", err)
	}

	c.logger.Info("visit saved", "id_visit", header.VisitID, "entries", len(entries))
	return Result{VisitID: header.VisitID, Entries: len(entries)}, nil
}

// replace deletes the stored visit (children first) and inserts the new one.
func (c *Coordinator) replace(ctx context.Context, tx Tx, h *Header, entries []ChecklistEntry) error {
	if c.lockStmt != "" {
		if err := tx.Exec(ctx, c.lockStmt, h.VisitID); err != nil {
			return fmt.Errorf("locking visit: %w", err)
		}
	}

	if err := tx.Exec(ctx, deleteEntriesSQL, h.VisitID); err != nil {
		return fmt.Errorf("deleting checklist entries: %w", err)
	}
	if err := tx.Exec(ctx, deleteHeaderSQL, h.VisitID); err != nil {
		return fmt.Errorf("deleting visit: %w", err)
	}

	if err := tx.Exec(ctx, insertHeaderSQL,
		h.VisitID,
		h.Date,
		h.SupervisorID,
		h.CustomerID,
		h.Latitude,
		h.Longitude,
		h.Start,
		h.End,
		nullString(h.Notes),
		h.SalesID,
		h.CallNumber,
	); err != nil {
		return fmt.Errorf("inserting visit: %w", err)
	}

	for i, e := range entries {
		if err := tx.Exec(ctx, insertEntrySQL,
			e.VisitID,
			nullString(e.FeatureID),
			e.DetailID,
			e.SubDetailID,
			e.Checked,
		); err != nil {
			return fmt.Errorf("inserting checklist entry %d (%s/%s): %w", i+1, e.DetailID, e.SubDetailID, err)
		}
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
