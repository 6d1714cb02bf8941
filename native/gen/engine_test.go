package gen

import (
	"bytes"
	"errors"
	"testing"

	"forgechain/core/events"
)

type mockState struct {
	generations map[uint64]*Generation
	counters    map[[20]byte]*RateCounter
	lifetime    map[[20]byte]uint64
	nextID      uint64
	limit       uint64
}

func newMockState() *mockState {
	return &mockState{
		generations: make(map[uint64]*Generation),
		counters:    make(map[[20]byte]*RateCounter),
		lifetime:    make(map[[20]byte]uint64),
		limit:       3,
	}
}

func (m *mockState) GenerationGet(id uint64) (*Generation, bool, error) {
	record, ok := m.generations[id]
	if !ok {
		return nil, false, nil
	}
	return record.Clone(), true, nil
}

func (m *mockState) GenerationPut(record *Generation) error {
	if record == nil {
		return nil
	}
	m.generations[record.ID] = record.Clone()
	return nil
}

func (m *mockState) GenerationNextID() (uint64, error) {
	id := m.nextID
	m.nextID++
	return id, nil
}

func (m *mockState) RateCounterGet(addr [20]byte) (*RateCounter, bool, error) {
	counter, ok := m.counters[addr]
	if !ok {
		return nil, false, nil
	}
	return counter.Clone(), true, nil
}

func (m *mockState) RateCounterPut(addr [20]byte, counter *RateCounter) error {
	if counter == nil {
		delete(m.counters, addr)
		return nil
	}
	m.counters[addr] = counter.Clone()
	return nil
}

func (m *mockState) DailyLimit() (uint64, error) { return m.limit, nil }

func (m *mockState) LifetimeCountGet(addr [20]byte) (uint64, error) {
	return m.lifetime[addr], nil
}

func (m *mockState) LifetimeCountPut(addr [20]byte, count uint64) error {
	m.lifetime[addr] = count
	return nil
}

type captureEmitter struct {
	events []events.Event
}

func (c *captureEmitter) Emit(evt events.Event) {
	c.events = append(c.events, evt)
}

func newTestEngine(state *mockState) (*Engine, *captureEmitter) {
	engine := NewEngine()
	engine.SetState(state)
	emitter := &captureEmitter{}
	engine.SetEmitter(emitter)
	return engine, emitter
}

func addr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

func TestRequestGenerationAllocatesSequentialIDs(t *testing.T) {
	state := newMockState()
	engine, emitter := newTestEngine(state)
	engine.SetNowFunc(func() int64 { return 1_000_000 })
	caller := addr(1)

	first, err := engine.RequestGeneration(caller, []byte("a todo app"), []byte("web"))
	if err != nil {
		t.Fatalf("request generation: %v", err)
	}
	if first != 0 {
		t.Fatalf("expected first id 0, got %d", first)
	}
	second, err := engine.RequestGeneration(caller, []byte("a parser"), []byte("tooling"))
	if err != nil {
		t.Fatalf("request generation: %v", err)
	}
	if second != 1 {
		t.Fatalf("expected second id 1, got %d", second)
	}

	record, err := engine.Generation(first)
	if err != nil {
		t.Fatalf("load generation: %v", err)
	}
	if record.Status != StatusPending {
		t.Fatalf("expected pending status, got %v", record.Status)
	}
	if record.Creator != caller {
		t.Fatalf("unexpected creator")
	}
	if record.Timestamp != 1_000_000 {
		t.Fatalf("unexpected timestamp %d", record.Timestamp)
	}

	if len(emitter.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(emitter.events))
	}
	requested, ok := emitter.events[0].(GenerationRequested)
	if !ok {
		t.Fatalf("unexpected event type %T", emitter.events[0])
	}
	if !bytes.Equal(requested.Payload, []byte("a todo app|||web")) {
		t.Fatalf("unexpected payload %q", requested.Payload)
	}

	lifetime, err := engine.LifetimeCount(caller)
	if err != nil {
		t.Fatalf("lifetime count: %v", err)
	}
	if lifetime != 2 {
		t.Fatalf("expected lifetime 2, got %d", lifetime)
	}
}

func TestRequestGenerationEnforcesDailyLimit(t *testing.T) {
	state := newMockState()
	engine, _ := newTestEngine(state)
	now := int64(5 * secondsPerDay)
	engine.SetNowFunc(func() int64 { return now })
	caller := addr(2)

	for i := 0; i < 3; i++ {
		if _, err := engine.RequestGeneration(caller, []byte("req"), []byte("cat")); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if _, err := engine.RequestGeneration(caller, []byte("req"), []byte("cat")); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	used, err := engine.GenerationsToday(caller)
	if err != nil {
		t.Fatalf("generations today: %v", err)
	}
	if used != 3 {
		t.Fatalf("expected 3 used, got %d", used)
	}

	// Next day the counter resets lazily on first use.
	now += secondsPerDay
	used, err = engine.GenerationsToday(caller)
	if err != nil {
		t.Fatalf("generations today: %v", err)
	}
	if used != 0 {
		t.Fatalf("expected rollover to report 0, got %d", used)
	}
	if _, err := engine.RequestGeneration(caller, []byte("req"), []byte("cat")); err != nil {
		t.Fatalf("request after rollover: %v", err)
	}
}

func TestRequestGenerationQuotaIsPerAccount(t *testing.T) {
	state := newMockState()
	engine, _ := newTestEngine(state)
	engine.SetNowFunc(func() int64 { return secondsPerDay })

	for i := 0; i < 3; i++ {
		if _, err := engine.RequestGeneration(addr(3), []byte("req"), []byte("cat")); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if _, err := engine.RequestGeneration(addr(4), []byte("req"), []byte("cat")); err != nil {
		t.Fatalf("other account should not be limited: %v", err)
	}
}

func TestCompleteGenerationOperatorOnly(t *testing.T) {
	state := newMockState()
	engine, _ := newTestEngine(state)
	engine.SetNowFunc(func() int64 { return secondsPerDay })
	operator := addr(9)
	engine.SetOperator(operator)
	caller := addr(5)

	id, err := engine.RequestGeneration(caller, []byte("req"), []byte("cat"))
	if err != nil {
		t.Fatalf("request generation: %v", err)
	}
	if err := engine.CompleteGeneration(caller, id, []byte{0x01}, true); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := engine.CompleteGeneration(operator, 42, []byte{0x01}, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := engine.CompleteGeneration(operator, id, []byte{0xaa, 0xbb}, true); err != nil {
		t.Fatalf("complete generation: %v", err)
	}

	record, err := engine.Generation(id)
	if err != nil {
		t.Fatalf("load generation: %v", err)
	}
	if record.Status != StatusCompleted {
		t.Fatalf("expected completed, got %v", record.Status)
	}
	if !bytes.Equal(record.CodeHash, []byte{0xaa, 0xbb}) {
		t.Fatalf("unexpected code hash %x", record.CodeHash)
	}
}

func TestCompleteGenerationOverwritesPriorVerdict(t *testing.T) {
	state := newMockState()
	engine, emitter := newTestEngine(state)
	engine.SetNowFunc(func() int64 { return secondsPerDay })
	operator := addr(9)
	engine.SetOperator(operator)

	id, err := engine.RequestGeneration(addr(6), []byte("req"), []byte("cat"))
	if err != nil {
		t.Fatalf("request generation: %v", err)
	}
	if err := engine.CompleteGeneration(operator, id, []byte{0x01}, true); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	if err := engine.CompleteGeneration(operator, id, nil, false); err != nil {
		t.Fatalf("second completion: %v", err)
	}

	record, err := engine.Generation(id)
	if err != nil {
		t.Fatalf("load generation: %v", err)
	}
	if record.Status != StatusFailed {
		t.Fatalf("expected failed after overwrite, got %v", record.Status)
	}
	if len(record.CodeHash) != 0 {
		t.Fatalf("expected cleared code hash, got %x", record.CodeHash)
	}

	completions := 0
	for _, evt := range emitter.events {
		if evt.EventType() == TypeGenerationCompleted {
			completions++
		}
	}
	if completions != 2 {
		t.Fatalf("expected 2 completion events, got %d", completions)
	}
}
