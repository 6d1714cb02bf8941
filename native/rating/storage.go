package rating

import (
	"errors"
	"fmt"

	"forgechain/core/events"
)

// storage abstracts the subset of state manager functionality required by the
// rating ledger.
type storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

var (
	aggregatePrefix  = []byte("rating/aggregate/")
	userRatingPrefix = []byte("rating/user/")
)

func aggregateKey(nonce uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", aggregatePrefix, nonce))
}

func userRatingKey(rater [20]byte, nonce uint64) []byte {
	return []byte(fmt.Sprintf("%s%x/%d", userRatingPrefix, rater, nonce))
}

var (
	// ErrInvalidRating marks a rating outside the 1..5 range.
	ErrInvalidRating = errors.New("rating: rating must be between 1 and 5")
	// ErrAlreadyRated marks a second rating from the same account for the
	// same token nonce. Ratings are write-once.
	ErrAlreadyRated = errors.New("rating: template already rated by caller")

	errNilStore = errors.New("rating: storage unavailable")
)

// Aggregate accumulates all ratings recorded for one token nonce.
type Aggregate struct {
	TotalRating uint64 `json:"totalRating"`
	RatingCount uint64 `json:"ratingCount"`
}

// Ledger persists write-once template ratings and their per-nonce aggregate.
// Any account may rate any nonce once; ownership of the template is not
// verified, matching the marketplace's open rating policy.
type Ledger struct {
	store   storage
	emitter events.Emitter
}

// NewLedger constructs a ledger bound to the provided storage backend.
func NewLedger(store storage) *Ledger {
	return &Ledger{store: store, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if l == nil {
		return
	}
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// Rate records the caller's rating for a token nonce and folds it into the
// aggregate. The per-(account, nonce) record is write-once; its presence
// alone blocks re-rating.
func (l *Ledger) Rate(caller [20]byte, nonce uint64, rating uint8) (*Aggregate, error) {
	if l == nil || l.store == nil {
		return nil, errNilStore
	}
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	key := userRatingKey(caller, nonce)
	exists, err := l.store.KVGet(key, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyRated
	}
	if err := l.store.KVPut(key, rating); err != nil {
		return nil, err
	}
	aggregate := &Aggregate{}
	if _, err := l.store.KVGet(aggregateKey(nonce), aggregate); err != nil {
		return nil, err
	}
	aggregate.TotalRating += uint64(rating)
	aggregate.RatingCount++
	if err := l.store.KVPut(aggregateKey(nonce), aggregate); err != nil {
		return nil, err
	}
	if l.emitter != nil {
		l.emitter.Emit(TemplateRated{Nonce: nonce, Rater: caller, Rating: rating})
	}
	return &Aggregate{TotalRating: aggregate.TotalRating, RatingCount: aggregate.RatingCount}, nil
}

// Aggregate returns the accumulated rating for a token nonce. Unrated nonces
// yield a zero aggregate.
func (l *Ledger) Aggregate(nonce uint64) (*Aggregate, error) {
	if l == nil || l.store == nil {
		return nil, errNilStore
	}
	aggregate := &Aggregate{}
	if _, err := l.store.KVGet(aggregateKey(nonce), aggregate); err != nil {
		return nil, err
	}
	return aggregate, nil
}

// UserRating returns the rating caller recorded for nonce, if any.
func (l *Ledger) UserRating(caller [20]byte, nonce uint64) (uint8, bool, error) {
	if l == nil || l.store == nil {
		return 0, false, errNilStore
	}
	var rating uint8
	ok, err := l.store.KVGet(userRatingKey(caller, nonce), &rating)
	if err != nil {
		return 0, false, err
	}
	return rating, ok, nil
}
