package templates

import (
	"errors"
	"math/big"
	"time"

	"forgechain/core/events"
	"forgechain/core/types"
	"forgechain/crypto"
	"forgechain/native/achievements"
	"forgechain/native/gen"
)

var (
	errNilState = errors.New("templates engine: state not configured")
	errNilVault = errors.New("templates engine: module vault not configured")

	// ErrTokenNotConfigured is returned while the owner has not registered
	// the template token identifier yet.
	ErrTokenNotConfigured = errors.New("templates engine: template token not configured")
	// ErrInsufficientFee marks a mint payment below the configured fee.
	ErrInsufficientFee = errors.New("templates engine: insufficient minting fee")
	// ErrInsufficientFunds marks a caller balance below the attached payment.
	ErrInsufficientFunds = errors.New("templates engine: insufficient balance")
	// ErrGenerationNotFound marks an unknown generation id.
	ErrGenerationNotFound = errors.New("templates engine: generation not found")
	// ErrNotCompleted marks a mint attempt on a generation that is not in
	// the completed state.
	ErrNotCompleted = errors.New("templates engine: generation not completed")
	// ErrNotCreator marks a mint attempt by anyone but the requester.
	ErrNotCreator = errors.New("templates engine: caller is not the creator")
	// ErrAlreadyMinted marks a second mint attempt on the same generation.
	ErrAlreadyMinted = errors.New("templates engine: template already minted")
	// ErrTemplateNotFound marks an unknown token nonce.
	ErrTemplateNotFound = errors.New("templates engine: template not found")
)

// royaltyBps is the fixed royalty embedded in every minted template token.
const royaltyBps = 250

type engineState interface {
	GenerationGet(id uint64) (*gen.Generation, bool, error)
	GenerationPut(record *gen.Generation) error
	TemplateGet(nonce uint64) (*Template, bool, error)
	TemplatePut(record *Template) error
	TemplateNextNonce() (uint64, error)
	TemplateTokenID() (string, error)
	MintFee() (*big.Int, error)
	LifetimeCountGet(addr [20]byte) (uint64, error)
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Engine mints template tokens from completed generations and answers token
// ledger queries. Each nonce has a supply of exactly one unit.
type Engine struct {
	state   engineState
	emitter events.Emitter
	tracker *achievements.Tracker
	nowFn   func() int64
	vault   [20]byte
}

// NewEngine constructs a template engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		tracker: achievements.NewTracker(),
		nowFn:   func() int64 { return time.Now().Unix() },
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

// SetTracker configures the achievement tracker invoked after mints.
func (e *Engine) SetTracker(tracker *achievements.Tracker) {
	if tracker == nil {
		tracker = achievements.NewTracker()
	}
	e.tracker = tracker
}

// SetNowFunc overrides the time source. Primarily intended for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetVault configures the module account that retains minting fees.
func (e *Engine) SetVault(addr [20]byte) { e.vault = addr }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
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

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{BalanceForge: big.NewInt(0)}
	}
	if acc.BalanceForge == nil {
		acc.BalanceForge = big.NewInt(0)
	}
	return acc
}

// MintTemplate turns a completed, unminted generation into one template token
// unit owned by the caller. The attached payment must cover the minting fee;
// overpayment is retained by the module vault, not refunded.
func (e *Engine) MintTemplate(caller [20]byte, generationID uint64, name string, payment *big.Int) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if e.vault == ([20]byte{}) {
		return 0, errNilVault
	}
	tokenID, err := e.state.TemplateTokenID()
	if err != nil {
		return 0, err
	}
	if tokenID == "" {
		return 0, ErrTokenNotConfigured
	}
	fee, err := e.state.MintFee()
	if err != nil {
		return 0, err
	}
	if payment == nil || payment.Cmp(fee) < 0 {
		return 0, ErrInsufficientFee
	}
	record, ok, err := e.state.GenerationGet(generationID)
	if err != nil {
		return 0, err
	}
	if !ok || record == nil {
		return 0, ErrGenerationNotFound
	}
	if record.Status != gen.StatusCompleted {
		return 0, ErrNotCompleted
	}
	if record.Creator != caller {
		return 0, ErrNotCreator
	}
	if record.TokenNonce != 0 {
		return 0, ErrAlreadyMinted
	}
	callerAcc, err := e.state.GetAccount(caller[:])
	if err != nil {
		return 0, err
	}
	callerAcc = ensureAccount(callerAcc)
	if callerAcc.BalanceForge.Cmp(payment) < 0 {
		return 0, ErrInsufficientFunds
	}
	callerAcc.BalanceForge = new(big.Int).Sub(callerAcc.BalanceForge, payment)
	vaultAcc, err := e.state.GetAccount(e.vault[:])
	if err != nil {
		return 0, err
	}
	vaultAcc = ensureAccount(vaultAcc)
	vaultAcc.BalanceForge = new(big.Int).Add(vaultAcc.BalanceForge, payment)
	if err := e.state.PutAccount(caller[:], callerAcc); err != nil {
		return 0, err
	}
	if err := e.state.PutAccount(e.vault[:], vaultAcc); err != nil {
		return 0, err
	}
	nonce, err := e.state.TemplateNextNonce()
	if err != nil {
		return 0, err
	}
	template := &Template{
		Nonce:      nonce,
		Name:       name,
		Owner:      caller,
		RoyaltyBps: royaltyBps,
		Attributes: Attributes{
			GenerationID: generationID,
			Category:     append([]byte(nil), record.Category...),
			CodeHash:     append([]byte(nil), record.CodeHash...),
			CreationDate: record.Timestamp,
		},
	}
	if err := e.state.TemplatePut(template); err != nil {
		return 0, err
	}
	record.TokenNonce = nonce
	if err := e.state.GenerationPut(record); err != nil {
		return 0, err
	}
	lifetime, err := e.state.LifetimeCountGet(caller)
	if err != nil {
		return 0, err
	}
	e.tracker.CheckFirstGeneration(caller, lifetime)
	creatorAddr := crypto.MustNewAddress(crypto.ForgePrefix, caller[:]).String()
	e.emit(TemplateMintedEvent(generationID, nonce, creatorAddr, tokenID))
	return nonce, nil
}

// Template returns the token record for nonce without mutating state.
func (e *Engine) Template(nonce uint64) (*Template, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, ok, err := e.state.TemplateGet(nonce)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return nil, ErrTemplateNotFound
	}
	return record.Clone(), nil
}

// Uses reports the completed purchases recorded against nonce.
func (e *Engine) Uses(nonce uint64) (uint64, error) {
	record, err := e.Template(nonce)
	if err != nil {
		return 0, err
	}
	return record.Uses, nil
}
