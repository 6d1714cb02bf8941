package achievements

import (
	"testing"

	"forgechain/core/events"
)

type captureEmitter struct {
	events []events.Event
}

func (c *captureEmitter) Emit(evt events.Event) {
	c.events = append(c.events, evt)
}

func newTestTracker() (*Tracker, *captureEmitter) {
	tracker := NewTracker()
	emitter := &captureEmitter{}
	tracker.SetEmitter(emitter)
	return tracker, emitter
}

func labels(emitter *captureEmitter) []string {
	var out []string
	for _, evt := range emitter.events {
		if earned, ok := evt.(AchievementEarned); ok {
			out = append(out, earned.Label)
		}
	}
	return out
}

func TestCheckFirstGenerationFiresOnExactlyOne(t *testing.T) {
	tracker, emitter := newTestTracker()
	var subject [20]byte
	subject[19] = 1

	tracker.CheckFirstGeneration(subject, 0)
	tracker.CheckFirstGeneration(subject, 2)
	if len(emitter.events) != 0 {
		t.Fatalf("expected no events, got %d", len(emitter.events))
	}

	tracker.CheckFirstGeneration(subject, 1)
	got := labels(emitter)
	if len(got) != 1 || got[0] != LabelFirstGeneration {
		t.Fatalf("unexpected labels %v", got)
	}
	earned := emitter.events[0].(AchievementEarned)
	if earned.Subject != subject {
		t.Fatalf("unexpected subject")
	}
}

func TestRecordSaleFiresEveryTime(t *testing.T) {
	tracker, emitter := newTestTracker()
	var seller [20]byte
	seller[19] = 2

	tracker.RecordSale(seller)
	tracker.RecordSale(seller)
	got := labels(emitter)
	if len(got) != 2 || got[0] != LabelFirstSale || got[1] != LabelFirstSale {
		t.Fatalf("unexpected labels %v", got)
	}
}

func TestCheckPopularTemplateFiresAtThresholdOnly(t *testing.T) {
	tracker, emitter := newTestTracker()

	tracker.CheckPopularTemplate(7, PopularTemplateThreshold-1)
	tracker.CheckPopularTemplate(7, PopularTemplateThreshold+1)
	if len(emitter.events) != 0 {
		t.Fatalf("expected no events, got %d", len(emitter.events))
	}

	tracker.CheckPopularTemplate(7, PopularTemplateThreshold)
	got := labels(emitter)
	if len(got) != 1 || got[0] != LabelPopularTemplate {
		t.Fatalf("unexpected labels %v", got)
	}
	earned := emitter.events[0].(AchievementEarned)
	if earned.TokenNonce != 7 {
		t.Fatalf("unexpected token nonce %d", earned.TokenNonce)
	}
	if earned.Subject != ([20]byte{}) {
		t.Fatalf("expected zero subject for template milestone")
	}
}
