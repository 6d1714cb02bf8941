package gen

import (
	"errors"
	"time"

	"forgechain/core/events"
)

var (
	errNilState = errors.New("gen engine: state not configured")

	// ErrQuotaExceeded is returned when an account already used its daily
	// generation quota.
	ErrQuotaExceeded = errors.New("gen engine: daily generation limit reached")
	// ErrNotFound marks an unknown generation id.
	ErrNotFound = errors.New("gen engine: generation not found")
	// ErrUnauthorized marks a completion attempt from anyone but the
	// designated operator account.
	ErrUnauthorized = errors.New("gen engine: caller is not the operator")
)

// payloadSeparator joins description and category into the single event
// payload the worker parses, preserving the original wire format.
var payloadSeparator = []byte("|||")

type engineState interface {
	quotaState
	GenerationGet(id uint64) (*Generation, bool, error)
	GenerationPut(record *Generation) error
	GenerationNextID() (uint64, error)
	LifetimeCountGet(addr [20]byte) (uint64, error)
	LifetimeCountPut(addr [20]byte, count uint64) error
}

// Engine tracks generation requests and their resolution by the off-ledger
// worker. All mutations are guard-first: nothing is written until every
// precondition passed.
type Engine struct {
	state    engineState
	limiter  *RateLimiter
	emitter  events.Emitter
	nowFn    func() int64
	operator [20]byte
}

// NewEngine constructs a generation engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) {
	e.state = state
	if state != nil {
		e.limiter = NewRateLimiter(state)
	} else {
		e.limiter = nil
	}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source. Primarily intended for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetOperator configures the trusted account allowed to report completions.
func (e *Engine) SetOperator(addr [20]byte) { e.operator = addr }

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() uint64 {
	if e == nil || e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	ts := e.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

// RequestGeneration records a new pending generation request for caller and
// announces it to the off-ledger worker. Returns the allocated id.
func (e *Engine) RequestGeneration(caller [20]byte, description, category []byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	now := e.now()
	ok, err := e.limiter.TryConsume(caller, now)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrQuotaExceeded
	}
	id, err := e.state.GenerationNextID()
	if err != nil {
		return 0, err
	}
	record := &Generation{
		ID:          id,
		Creator:     caller,
		Description: append([]byte(nil), description...),
		Category:    append([]byte(nil), category...),
		Timestamp:   now,
		Status:      StatusPending,
	}
	if err := e.state.GenerationPut(record); err != nil {
		return 0, err
	}
	lifetime, err := e.state.LifetimeCountGet(caller)
	if err != nil {
		return 0, err
	}
	if err := e.state.LifetimeCountPut(caller, lifetime+1); err != nil {
		return 0, err
	}
	payload := append(append(append([]byte(nil), description...), payloadSeparator...), category...)
	e.emit(GenerationRequested{ID: id, Creator: caller, Payload: payload})
	return id, nil
}

// CompleteGeneration applies the operator's verdict to a generation. A second
// completion call on an already-resolved generation overwrites status and
// code hash; the oracle account is trusted to not replay its own reports.
func (e *Engine) CompleteGeneration(caller [20]byte, id uint64, codeHash []byte, success bool) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if caller != e.operator {
		return ErrUnauthorized
	}
	record, ok, err := e.state.GenerationGet(id)
	if err != nil {
		return err
	}
	if !ok || record == nil {
		return ErrNotFound
	}
	if success {
		record.Status = StatusCompleted
	} else {
		record.Status = StatusFailed
	}
	record.CodeHash = append([]byte(nil), codeHash...)
	if err := e.state.GenerationPut(record); err != nil {
		return err
	}
	e.emit(GenerationCompleted{ID: id, Creator: record.Creator, Success: success, CodeHash: record.CodeHash})
	return nil
}

// Generation returns the record for id without mutating state.
func (e *Engine) Generation(id uint64) (*Generation, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, ok, err := e.state.GenerationGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return nil, ErrNotFound
	}
	return record.Clone(), nil
}

// GenerationsToday reports the requests caller made within the current quota
// day, applying the day rollover virtually.
func (e *Engine) GenerationsToday(addr [20]byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.limiter.UsedToday(addr, e.now())
}

// LifetimeCount reports the total generations ever requested by addr.
func (e *Engine) LifetimeCount(addr [20]byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.LifetimeCountGet(addr)
}
