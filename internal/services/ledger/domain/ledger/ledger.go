package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/louisbranch/spinvault/internal/platform/errors"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/event"
	"github.com/louisbranch/spinvault/internal/services/ledger/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/spinvault/internal/services/ledger/domain/ledger"

// Ledger serializes actions over the shared tables.
type Ledger struct {
	mu        sync.RWMutex
	journal   storage.Journal
	clock     func() time.Time
	tracer    trace.Tracer
	appliers  map[event.Type]Applier
	accounts  *Table[Address, Account]
	sequences *Table[string, uint64]
	seq       uint64
	lastHash  string

	subMu   sync.Mutex
	subs    map[int]chan event.Event
	nextSub int
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithJournal persists committed events to j. The default is an in-memory journal.
func WithJournal(j storage.Journal) Option {
	return func(l *Ledger) {
		if j != nil {
			l.journal = j
		}
	}
}

// WithClock overrides the wall clock used for action timestamps.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithTracer overrides the tracer used for action spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(l *Ledger) {
		if tracer != nil {
			l.tracer = tracer
		}
	}
}

// New returns an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		journal:   storage.NewMemory(),
		clock:     time.Now,
		tracer:    otel.Tracer(tracerName),
		appliers:  make(map[event.Type]Applier),
		accounts:  NewTable[Address, Account]("accounts"),
		sequences: NewTable[string, uint64]("sequences"),
		subs:      make(map[int]chan event.Event),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Register installs the applier for typ. Registering a type twice panics.
func (l *Ledger) Register(typ event.Type, apply Applier) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.appliers[typ]; dup {
		panic(fmt.Sprintf("ledger: applier for %s registered twice", typ))
	}
	l.appliers[typ] = apply
}

func (l *Ledger) begin(ctx context.Context, actor Address, now time.Time, readOnly bool) *Tx {
	return &Tx{
		ctx:      ctx,
		now:      event.NormalizeTime(now),
		actor:    actor,
		readOnly: readOnly,
		ledger:   l,
		staged:   make(map[any]stager),
	}
}

// Execute runs fn as one atomic action on behalf of actor and returns the
// committed events. If fn or the journal append fails, no table changes.
func (l *Ledger) Execute(ctx context.Context, action string, actor Address, fn func(*Tx) error) ([]event.Event, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := l.tracer.Start(ctx, "ledger."+action,
		trace.WithAttributes(attribute.String("ledger.actor", string(actor))))
	defer span.End()

	events, err := l.execute(ctx, actor, fn)
	if err != nil {
		span.SetAttributes(attribute.String("ledger.error_code", string(apperrors.CodeOf(err))))
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("ledger.events", len(events)))
	return events, nil
}

func (l *Ledger) execute(ctx context.Context, actor Address, fn func(*Tx) error) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	tx := l.begin(ctx, actor, l.clock(), false)
	if err := fn(tx); err != nil {
		return nil, err
	}
	if len(tx.events) == 0 {
		return nil, nil
	}

	sealed := event.Seal(tx.events, l.seq, l.lastHash)
	if err := l.journal.Append(ctx, sealed); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUnknown, "append journal", err)
	}
	tx.flush()
	last := sealed[len(sealed)-1]
	l.seq, l.lastHash = last.Seq, last.Hash
	l.publish(sealed)
	return sealed, nil
}

// Read runs fn against committed state. Emitting from fn fails with ErrReadOnly.
func (l *Ledger) Read(fn func(*Tx) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fn(l.begin(context.Background(), "", l.clock(), true))
}

// Now returns the ledger clock reading used for query-time arithmetic.
func (l *Ledger) Now() time.Time {
	return event.NormalizeTime(l.clock())
}

// Head returns the sequence and hash of the last committed event.
func (l *Ledger) Head() (uint64, string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.seq, l.lastHash
}

// Replay folds every journaled event into the tables, verifying the hash
// chain as it goes. It must run before the first action and returns the
// number of events applied.
func (l *Ledger) Replay(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seq != 0 {
		return 0, fmt.Errorf("replay on a ledger that already holds %d events", l.seq)
	}

	count := 0
	err := l.journal.Scan(ctx, 0, func(evt event.Event) error {
		if err := event.VerifyLink(evt, l.seq, l.lastHash); err != nil {
			return err
		}
		tx := l.begin(ctx, Address(evt.Actor), evt.Timestamp, false)
		if err := tx.apply(evt); err != nil {
			return fmt.Errorf("replay seq %d: %w", evt.Seq, err)
		}
		tx.flush()
		l.seq, l.lastHash = evt.Seq, evt.Hash
		count++
		return nil
	})
	if err != nil {
		return count, err
	}
	return count, nil
}

// EventsSince calls fn for each committed event after afterSeq, in order.
func (l *Ledger) EventsSince(ctx context.Context, afterSeq uint64, fn func(event.Event) error) error {
	return l.journal.Scan(ctx, afterSeq, fn)
}
