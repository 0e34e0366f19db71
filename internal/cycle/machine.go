package cycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seedprocure-backend/internal/apperr"
	"seedprocure-backend/internal/audit"
	"seedprocure-backend/internal/logger"
	"seedprocure-backend/internal/metrics"
	"seedprocure-backend/internal/models"

	"gorm.io/gorm"
)

// Change builds the column updates for an operation from the row as it was
// read inside the transaction. It must not touch "status".
type Change func(cur *models.CropCycle) (map[string]any, error)

// Machine applies operations to crop cycles. Each application is one
// conditional UPDATE guarded on the current status, so of two racing callers
// exactly one matches and the other gets InvalidTransition.
type Machine struct {
	db      *gorm.DB
	log     *logger.Logger
	metrics *metrics.Recorder
	now     func() time.Time
}

func NewMachine(db *gorm.DB, log *logger.Logger, rec *metrics.Recorder) *Machine {
	return &Machine{
		db:      db,
		log:     log,
		metrics: rec,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source. Tests use it to pin "now".
func (m *Machine) WithClock(now func() time.Time) *Machine {
	cp := *m
	cp.now = now
	return &cp
}

func (m *Machine) Now() time.Time { return m.now() }

func (m *Machine) DB() *gorm.DB { return m.db }

func (m *Machine) Logger() *logger.Logger { return m.log }

func (m *Machine) Metrics() *metrics.Recorder { return m.metrics }

// Apply runs op against one cycle in its own transaction.
func (m *Machine) Apply(ctx context.Context, actorID, cycleID uint, op Operation, change Change) (*models.CropCycle, error) {
	var out *models.CropCycle
	err := m.InTx(ctx, func(tx *gorm.DB) error {
		c, err := m.ApplyTx(tx, actorID, cycleID, op, change)
		out = c
		return err
	})
	m.Observe(op.Name, cycleID, actorID, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// InTx runs fn in a transaction and normalises its error to an *apperr.Error.
func (m *Machine) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if err := m.db.WithContext(ctx).Transaction(fn); err != nil {
		return apperr.Storage("transaction", err)
	}
	return nil
}

// ApplyTx runs op inside an existing transaction. Callers that link a cycle
// change with other rows (shipments) use this so both commit together.
func (m *Machine) ApplyTx(tx *gorm.DB, actorID, cycleID uint, op Operation, change Change) (*models.CropCycle, error) {
	if op.RequiresActor && actorID == 0 {
		return nil, apperr.Unauthorized(op.Name + " requires an authenticated employee")
	}

	before, err := LoadTx(tx, cycleID)
	if err != nil {
		return nil, err
	}
	if !Active(before.Status) {
		return nil, apperr.InvalidTransition("%s: cycle %d is %s and accepts no further changes", op.Name, cycleID, before.Status)
	}
	if !op.accepts(before.Status) {
		return nil, apperr.InvalidTransition("%s: cycle %d is %s", op.Name, cycleID, before.Status)
	}
	if op.To != "" {
		if err := checkEdge(before.Status, op.To); err != nil {
			return nil, apperr.InvalidTransition("%s: cycle %d: %v", op.Name, cycleID, err)
		}
	}

	updates := map[string]any{}
	if change != nil {
		fields, err := change(before)
		if err != nil {
			return nil, err
		}
		for k, v := range fields {
			updates[k] = v
		}
	}
	if op.To != "" {
		updates["status"] = op.To
	}
	updates["updated_at"] = m.now()

	q := tx.Model(&models.CropCycle{}).Where("id = ? AND status IN ?", cycleID, op.From)
	if op.Guard != "" {
		q = q.Where(op.Guard)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return nil, apperr.Storage("update cycle", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.InvalidTransition("%s: cycle %d changed concurrently", op.Name, cycleID)
	}

	after, err := LoadTx(tx, cycleID)
	if err != nil {
		return nil, err
	}

	desc := fmt.Sprintf("%s: %s -> %s", op.Name, before.Status, after.Status)
	if err := audit.WriteLog(tx, audit.LogOptions{
		UserID:      actorID,
		EntityType:  models.AuditEntityCropCycle,
		EntityID:    cycleID,
		Action:      op.Name,
		Description: desc,
		Before:      before,
		After:       after,
	}); err != nil {
		return nil, apperr.Storage("audit", err)
	}
	return after, nil
}

// Observe logs and counts the outcome of an operation.
func (m *Machine) Observe(op string, cycleID, actorID uint, err error) {
	if err == nil {
		m.metrics.Transition(op, "ok")
		m.log.Info("cycle transition", "op", op, "cycle_id", cycleID, "actor_id", actorID)
		return
	}
	kind := apperr.KindOf(err)
	if kind == "" {
		kind = apperr.KindStorage
	}
	m.metrics.Transition(op, string(kind))
	if kind == apperr.KindStorage {
		m.log.Error("cycle transition failed", "op", op, "cycle_id", cycleID, "actor_id", actorID, "error", err)
		return
	}
	m.log.Warn("cycle transition rejected", "op", op, "cycle_id", cycleID, "actor_id", actorID, "kind", kind, "error", err)
}

// Load reads one cycle.
func (m *Machine) Load(ctx context.Context, cycleID uint) (*models.CropCycle, error) {
	return LoadTx(m.db.WithContext(ctx), cycleID)
}

func LoadTx(tx *gorm.DB, cycleID uint) (*models.CropCycle, error) {
	var c models.CropCycle
	if err := tx.First(&c, cycleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("cycle %d not found", cycleID)
		}
		return nil, apperr.Storage("load cycle", err)
	}
	return &c, nil
}
