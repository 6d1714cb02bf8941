package market

import (
	"errors"
	"math/big"

	"forgechain/core/events"
	"forgechain/core/types"
	"forgechain/crypto"
	"forgechain/native/achievements"
	"forgechain/native/templates"
)

var (
	errNilState = errors.New("market engine: state not configured")
	errNilVault = errors.New("market engine: module vault not configured")

	// ErrTemplateNotFound marks an unknown token nonce.
	ErrTemplateNotFound = errors.New("market engine: template not found")
	// ErrNotTokenOwner marks a listing attempt for a token the caller does
	// not hold.
	ErrNotTokenOwner = errors.New("market engine: caller does not own the token")
	// ErrInvalidPrice marks a zero or negative asking price.
	ErrInvalidPrice = errors.New("market engine: price must be greater than zero")
	// ErrListingNotFound marks an unknown listing id.
	ErrListingNotFound = errors.New("market engine: listing not found")
	// ErrListingInactive marks an operation on a consumed listing.
	ErrListingInactive = errors.New("market engine: listing not active")
	// ErrInsufficientPayment marks a purchase payment below the price.
	ErrInsufficientPayment = errors.New("market engine: insufficient payment")
	// ErrInsufficientFunds marks a buyer balance below the attached payment.
	ErrInsufficientFunds = errors.New("market engine: insufficient balance")
	// ErrSelfTrade marks a buyer attempting to purchase their own listing.
	ErrSelfTrade = errors.New("market engine: cannot buy your own template")
	// ErrUnauthorized marks a cancel attempt from anyone but the owner.
	ErrUnauthorized = errors.New("market engine: caller is not the owner")
)

const feeDenominator = 10_000

type engineState interface {
	ListingGet(id uint64) (*Listing, bool, error)
	ListingPut(record *Listing) error
	ListingNextID() (uint64, error)
	TemplateGet(nonce uint64) (*templates.Template, bool, error)
	TemplatePut(record *templates.Template) error
	PlatformFeeBps() (uint64, error)
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Engine runs the escrowed template marketplace. The module vault account
// holds both the escrowed token units of active listings and the retained
// platform fees. Internal state transitions always commit before any value
// leaves the vault, so a re-entrant recipient would observe the listing
// already consumed.
type Engine struct {
	state   engineState
	emitter events.Emitter
	tracker *achievements.Tracker
	vault   [20]byte
	owner   [20]byte
}

// NewEngine constructs a marketplace engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		tracker: achievements.NewTracker(),
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetTracker configures the achievement tracker invoked after purchases.
func (e *Engine) SetTracker(tracker *achievements.Tracker) {
	if tracker == nil {
		tracker = achievements.NewTracker()
	}
	e.tracker = tracker
}

// SetVault configures the escrow and fee custody account.
func (e *Engine) SetVault(addr [20]byte) { e.vault = addr }

// SetOwner configures the administrative account allowed to cancel listings.
func (e *Engine) SetOwner(addr [20]byte) { e.owner = addr }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func formatAddr(addr [20]byte) string {
	return crypto.MustNewAddress(crypto.ForgePrefix, addr[:]).String()
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{BalanceForge: big.NewInt(0)}
	}
	if acc.BalanceForge == nil {
		acc.BalanceForge = big.NewInt(0)
	}
	return acc
}

func (e *Engine) transferNative(from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	fromAcc, err := e.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	fromAcc = ensureAccount(fromAcc)
	if fromAcc.BalanceForge.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	toAcc, err := e.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	toAcc = ensureAccount(toAcc)
	fromAcc.BalanceForge = new(big.Int).Sub(fromAcc.BalanceForge, amount)
	toAcc.BalanceForge = new(big.Int).Add(toAcc.BalanceForge, amount)
	if err := e.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to[:], toAcc)
}

// List escrows one unit of the caller's template token and creates an active
// listing at the asked price. Returns the allocated listing id.
func (e *Engine) List(caller [20]byte, tokenNonce uint64, price *big.Int) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if e.vault == ([20]byte{}) {
		return 0, errNilVault
	}
	if price == nil || price.Sign() <= 0 {
		return 0, ErrInvalidPrice
	}
	template, ok, err := e.state.TemplateGet(tokenNonce)
	if err != nil {
		return 0, err
	}
	if !ok || template == nil {
		return 0, ErrTemplateNotFound
	}
	if template.Owner != caller {
		return 0, ErrNotTokenOwner
	}
	template.Owner = e.vault
	if err := e.state.TemplatePut(template); err != nil {
		return 0, err
	}
	id, err := e.state.ListingNextID()
	if err != nil {
		return 0, err
	}
	listing := &Listing{
		ID:         id,
		Seller:     caller,
		TokenNonce: tokenNonce,
		Price:      new(big.Int).Set(price),
		Active:     true,
	}
	if err := e.state.ListingPut(listing); err != nil {
		return 0, err
	}
	e.emit(TemplateListedEvent(id, tokenNonce, formatAddr(caller), listing.Price))
	return id, nil
}

// Purchase settles an active listing: the buyer's payment moves into the
// vault, the listing is consumed, the seller is paid price minus the platform
// fee and the escrowed token unit is released to the buyer. Overpayment above
// the asking price is retained alongside the fee.
func (e *Engine) Purchase(caller [20]byte, listingID uint64, payment *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.vault == ([20]byte{}) {
		return errNilVault
	}
	listing, ok, err := e.state.ListingGet(listingID)
	if err != nil {
		return err
	}
	if !ok || listing == nil {
		return ErrListingNotFound
	}
	if !listing.Active {
		return ErrListingInactive
	}
	if payment == nil || payment.Cmp(listing.Price) < 0 {
		return ErrInsufficientPayment
	}
	if caller == listing.Seller {
		return ErrSelfTrade
	}
	template, ok, err := e.state.TemplateGet(listing.TokenNonce)
	if err != nil {
		return err
	}
	if !ok || template == nil {
		return ErrTemplateNotFound
	}
	if err := e.transferNative(caller, e.vault, payment); err != nil {
		return err
	}
	listing.Active = false
	if err := e.state.ListingPut(listing); err != nil {
		return err
	}
	template.Uses++
	if err := e.state.TemplatePut(template); err != nil {
		return err
	}
	feeBps, err := e.state.PlatformFeeBps()
	if err != nil {
		return err
	}
	platformFee := new(big.Int).Mul(listing.Price, new(big.Int).SetUint64(feeBps))
	platformFee.Div(platformFee, big.NewInt(feeDenominator))
	sellerAmount := new(big.Int).Sub(listing.Price, platformFee)
	if err := e.transferNative(e.vault, listing.Seller, sellerAmount); err != nil {
		return err
	}
	template.Owner = caller
	if err := e.state.TemplatePut(template); err != nil {
		return err
	}
	e.tracker.RecordSale(listing.Seller)
	e.tracker.CheckPopularTemplate(listing.TokenNonce, template.Uses)
	e.emit(TemplatePurchasedEvent(listingID, formatAddr(caller), formatAddr(listing.Seller), listing.Price))
	return nil
}

// Cancel deactivates an active listing and returns the escrowed token unit to
// the seller. Restricted to the contract owner.
func (e *Engine) Cancel(caller [20]byte, listingID uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if caller != e.owner {
		return ErrUnauthorized
	}
	listing, ok, err := e.state.ListingGet(listingID)
	if err != nil {
		return err
	}
	if !ok || listing == nil {
		return ErrListingNotFound
	}
	if !listing.Active {
		return ErrListingInactive
	}
	template, ok, err := e.state.TemplateGet(listing.TokenNonce)
	if err != nil {
		return err
	}
	if !ok || template == nil {
		return ErrTemplateNotFound
	}
	listing.Active = false
	if err := e.state.ListingPut(listing); err != nil {
		return err
	}
	template.Owner = listing.Seller
	if err := e.state.TemplatePut(template); err != nil {
		return err
	}
	e.emit(ListingCancelledEvent(listingID, listing.TokenNonce, formatAddr(listing.Seller)))
	return nil
}

// Listing returns the record for id without mutating state.
func (e *Engine) Listing(id uint64) (*Listing, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, ok, err := e.state.ListingGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return nil, ErrListingNotFound
	}
	return record.Clone(), nil
}
