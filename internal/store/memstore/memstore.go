// Package memstore keeps the whole Team Brain schema in process memory. It
// reports the same sentinels as the PostgreSQL stores and is used for local
// runs without a database and by the service and API tests.
package memstore

import (
	"bytes"
	"context"
	"maps"
	"sync"
	"time"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("teambrain.store.memstore")

// DB holds every table. Each exported store is a view onto it.
//
// txMu is held for the whole of a transaction and for every store call made
// outside one, so a rollback never discards another caller's committed work.
// mu guards the maps themselves.
type DB struct {
	mu   sync.Mutex
	txMu sync.Mutex
	last time.Time

	clients       map[uuid.UUID]domain.APIClient
	teams         map[uuid.UUID]domain.Team
	members       map[uuid.UUID]map[string]domain.Membership
	hypotheses    map[uuid.UUID]domain.Hypothesis
	verifications map[uuid.UUID]domain.Verification
	scores        map[uuid.UUID]domain.QualityScoreRecord
	suggestions   map[uuid.UUID]domain.SharingSuggestion

	Tx            *Transactor
	Clients       *APIClientStore
	Teams         *TeamStore
	Hypotheses    *HypothesisStore
	Verifications *VerificationStore
	QualityScores *QualityScoreStore
	Suggestions   *SuggestionStore
}

func New() *DB {
	db := &DB{
		clients:       make(map[uuid.UUID]domain.APIClient),
		teams:         make(map[uuid.UUID]domain.Team),
		members:       make(map[uuid.UUID]map[string]domain.Membership),
		hypotheses:    make(map[uuid.UUID]domain.Hypothesis),
		verifications: make(map[uuid.UUID]domain.Verification),
		scores:        make(map[uuid.UUID]domain.QualityScoreRecord),
		suggestions:   make(map[uuid.UUID]domain.SharingSuggestion),
	}
	db.Tx = &Transactor{db: db}
	db.Clients = &APIClientStore{db: db}
	db.Teams = &TeamStore{db: db}
	db.Hypotheses = &HypothesisStore{db: db}
	db.Verifications = &VerificationStore{db: db}
	db.QualityScores = &QualityScoreStore{db: db}
	db.Suggestions = &SuggestionStore{db: db}
	return db
}

// now returns a strictly increasing timestamp at microsecond precision, so
// rows created back to back keep their insertion order. Callers hold mu.
func (db *DB) now() time.Time {
	t := time.Now().UTC().Truncate(time.Microsecond)
	if !t.After(db.last) {
		t = db.last.Add(time.Microsecond)
	}
	db.last = t
	return t
}

type snapshot struct {
	clients       map[uuid.UUID]domain.APIClient
	teams         map[uuid.UUID]domain.Team
	members       map[uuid.UUID]map[string]domain.Membership
	hypotheses    map[uuid.UUID]domain.Hypothesis
	verifications map[uuid.UUID]domain.Verification
	scores        map[uuid.UUID]domain.QualityScoreRecord
	suggestions   map[uuid.UUID]domain.SharingSuggestion
}

// Rows are stored by value and replaced on update, so copying the maps is
// enough to restore them.
func (db *DB) snapshot() snapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	members := make(map[uuid.UUID]map[string]domain.Membership, len(db.members))
	for id, m := range db.members {
		members[id] = maps.Clone(m)
	}
	return snapshot{
		clients:       maps.Clone(db.clients),
		teams:         maps.Clone(db.teams),
		members:       members,
		hypotheses:    maps.Clone(db.hypotheses),
		verifications: maps.Clone(db.verifications),
		scores:        maps.Clone(db.scores),
		suggestions:   maps.Clone(db.suggestions),
	}
}

func (db *DB) restore(s snapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.clients = s.clients
	db.teams = s.teams
	db.members = s.members
	db.hypotheses = s.hypotheses
	db.verifications = s.verifications
	db.scores = s.scores
	db.suggestions = s.suggestions
}

type txKey struct{}

func (db *DB) inTx(ctx context.Context) bool {
	return ctx.Value(txKey{}) == db
}

// lock acquires the table locks for one store call. Calls carried by a
// transaction context already own txMu.
func (db *DB) lock(ctx context.Context) func() {
	if db.inTx(ctx) {
		db.mu.Lock()
		return db.mu.Unlock
	}
	db.txMu.Lock()
	db.mu.Lock()
	return func() {
		db.mu.Unlock()
		db.txMu.Unlock()
	}
}

// Transactor runs transactions one at a time. A failed transaction restores
// every table to its state when the transaction began; no other writer can
// commit in between because store calls outside a transaction wait on txMu.
type Transactor struct {
	db *DB
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if t.db.inTx(ctx) {
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, "memstore.WithinTx", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	t.db.txMu.Lock()
	defer t.db.txMu.Unlock()

	before := t.db.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, t.db)); err != nil {
		t.db.restore(before)
		span.RecordError(err)
		span.SetStatus(codes.Error, "rolled back")
		return err
	}
	return nil
}

func idLess(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

func limit[T any](rows []T, n int) []T {
	if n > 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}
