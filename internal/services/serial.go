package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/vidanatural/farmacia-web/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	counterDigits = 3
	maxCounter    = 999
	serialDay     = "02012006"   // ddMMyyyy
	sequenceDay   = "2006-01-02" // yyyy-MM-dd
)

// SerialAllocator hands out invoice serials: prefix + ddMMyyyy + 3-digit counter.
//
// Allocation for a (day, kind) pair is serialized twice: a process-local mutex
// and the invoice_sequences row, which is updated inside the caller's database
// transaction and stays locked until it commits. A rolled back transaction
// therefore releases its serial.
type SerialAllocator struct {
	db    *gorm.DB
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSerialAllocator creates the allocator. Build one per process.
func NewSerialAllocator(db *gorm.DB) *SerialAllocator {
	return &SerialAllocator{db: db, locks: make(map[string]*sync.Mutex)}
}

// FormatSerial builds the serial for kind, day and counter.
func FormatSerial(kind models.Kind, day time.Time, counter int) string {
	return fmt.Sprintf("%s%s%0*d", kind.Prefix(), day.Format(serialDay), counterDigits, counter)
}

func (a *SerialAllocator) lock(key string) func() {
	a.mu.Lock()
	l, ok := a.locks[key]
	if !ok {
		l = &sync.Mutex{}
		a.locks[key] = l
	}
	a.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Allocate reserves the next serial for kind on day and runs fn with it inside a
// single database transaction. Any error from fn rolls the reservation back.
func (a *SerialAllocator) Allocate(ctx context.Context, kind models.Kind, day time.Time, fn func(tx *gorm.DB, serial string) error) error {
	if !kind.Valid() {
		return &ValidationError{Code: "invalid_kind"}
	}
	unlock := a.lock(day.Format(sequenceDay) + "/" + string(kind))
	defer unlock()

	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		serial, err := nextSerial(tx, kind, day)
		if err != nil {
			return err
		}
		return fn(tx, serial)
	})
}

// Next reserves and returns the next serial in its own transaction.
func (a *SerialAllocator) Next(ctx context.Context, kind models.Kind, day time.Time) (string, error) {
	var serial string
	err := a.Allocate(ctx, kind, day, func(_ *gorm.DB, s string) error {
		serial = s
		return nil
	})
	return serial, err
}

// nextSerial bumps the sequence row and reconciles it with the highest serial
// already stored for the day, so invoices created outside the allocator are
// never reused.
func nextSerial(tx *gorm.DB, kind models.Kind, day time.Time) (string, error) {
	seq := models.InvoiceSequence{Day: day.Format(sequenceDay), Kind: kind, Counter: 1}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "day"}, {Name: "kind"}},
		DoUpdates: clause.Assignments(map[string]any{"counter": gorm.Expr("invoice_sequences.counter + 1")}),
	}).Create(&seq).Error
	if err != nil {
		return "", fmt.Errorf("%w: reserve serial: %w", ErrPersistence, err)
	}
	if err := tx.Where("day = ? AND kind = ?", seq.Day, kind).First(&seq).Error; err != nil {
		return "", fmt.Errorf("%w: read sequence: %w", ErrPersistence, err)
	}

	last, err := lastStoredCounter(tx, kind, day)
	if err != nil {
		return "", err
	}
	if last >= seq.Counter {
		seq.Counter = last + 1
		if err := tx.Model(&models.InvoiceSequence{}).
			Where("day = ? AND kind = ?", seq.Day, kind).
			Update("counter", seq.Counter).Error; err != nil {
			return "", fmt.Errorf("%w: update sequence: %w", ErrPersistence, err)
		}
	}
	if seq.Counter > maxCounter {
		return "", fmt.Errorf("%w: %s %s", ErrSerialOverflow, kind, seq.Day)
	}
	return FormatSerial(kind, day, seq.Counter), nil
}

// lastStoredCounter parses the trailing digits of the highest serial of the day.
func lastStoredCounter(tx *gorm.DB, kind models.Kind, day time.Time) (int, error) {
	var inv models.Invoice
	err := tx.Select("serial").
		Where("type = ? AND serial LIKE ?", kind, kind.Prefix()+day.Format(serialDay)+"%").
		Order("serial DESC").
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: read last serial: %w", ErrPersistence, err)
	}
	if len(inv.Serial) < counterDigits {
		return 0, fmt.Errorf("%w: malformed serial %q", ErrPersistence, inv.Serial)
	}
	n, err := strconv.Atoi(inv.Serial[len(inv.Serial)-counterDigits:])
	if err != nil {
		return 0, fmt.Errorf("%w: malformed serial %q", ErrPersistence, inv.Serial)
	}
	return n, nil
}
