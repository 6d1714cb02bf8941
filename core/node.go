package core

import (
	"errors"
	"math/big"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"forgechain/core/events"
	"forgechain/core/state"
	"forgechain/native/achievements"
	"forgechain/native/gen"
	"forgechain/native/market"
	"forgechain/native/rating"
	"forgechain/native/templates"
	"forgechain/storage"
)

// ErrOwnerOnly marks an administrative call from anyone but the owner.
var ErrOwnerOnly = errors.New("node: owner only")

// ModuleVaultAddress is the deterministic account holding escrowed tokens,
// minting fees and platform fees until the owner withdraws them.
func ModuleVaultAddress() [20]byte {
	var out [20]byte
	digest := ethcrypto.Keccak256([]byte("forgechain/module-vault"))
	copy(out[:], digest[12:])
	return out
}

// Node wires the state manager, the native engines and the event recorder
// into the single serialized entry point for every operation. The surrounding
// environment guarantees one operation at a time; the mutex preserves that
// discipline if a concurrent transport is ever put in front.
type Node struct {
	mu sync.Mutex

	state    *state.Manager
	recorder *events.Recorder

	genEngine      *gen.Engine
	templateEngine *templates.Engine
	marketEngine   *market.Engine
	ratingLedger   *rating.Ledger
	tracker        *achievements.Tracker

	owner    [20]byte
	operator [20]byte
	vault    [20]byte
}

// Options carries the role accounts and limits the node boots with.
type Options struct {
	Owner           [20]byte
	Operator        [20]byte
	TemplateTokenID string
	EventBuffer     int
}

// NewNode builds a node on top of the provided database, seeding genesis
// parameters on first boot.
func NewNode(db storage.Database, opts Options) (*Node, error) {
	manager := state.NewManager(db)
	if err := manager.SeedDefaults(); err != nil {
		return nil, err
	}
	if opts.TemplateTokenID != "" {
		current, err := manager.TemplateTokenID()
		if err != nil {
			return nil, err
		}
		if current == "" {
			if err := manager.SetTemplateTokenID(opts.TemplateTokenID); err != nil {
				return nil, err
			}
		}
	}

	node := &Node{
		state:    manager,
		recorder: events.NewRecorder(opts.EventBuffer),
		owner:    opts.Owner,
		operator: opts.Operator,
		vault:    ModuleVaultAddress(),
	}

	node.tracker = achievements.NewTracker()
	node.tracker.SetEmitter(node.recorder)

	node.genEngine = gen.NewEngine()
	node.genEngine.SetState(manager)
	node.genEngine.SetEmitter(node.recorder)
	node.genEngine.SetOperator(opts.Operator)

	node.templateEngine = templates.NewEngine()
	node.templateEngine.SetState(manager)
	node.templateEngine.SetEmitter(node.recorder)
	node.templateEngine.SetTracker(node.tracker)
	node.templateEngine.SetVault(node.vault)

	node.marketEngine = market.NewEngine()
	node.marketEngine.SetState(manager)
	node.marketEngine.SetEmitter(node.recorder)
	node.marketEngine.SetTracker(node.tracker)
	node.marketEngine.SetVault(node.vault)
	node.marketEngine.SetOwner(opts.Owner)

	node.ratingLedger = rating.NewLedger(manager)
	node.ratingLedger.SetEmitter(node.recorder)

	return node, nil
}

// SetNowFunc overrides the time source of the time-dependent engines.
// Intended for tests.
func (n *Node) SetNowFunc(now func() int64) {
	n.genEngine.SetNowFunc(now)
	n.templateEngine.SetNowFunc(now)
}

// --- Operations ---

// RequestGeneration submits a new code-generation request for caller.
func (n *Node) RequestGeneration(caller [20]byte, description, category []byte) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.genEngine.RequestGeneration(caller, description, category)
}

// CompleteGeneration applies the operator's verdict for a generation.
func (n *Node) CompleteGeneration(caller [20]byte, id uint64, codeHash []byte, success bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.genEngine.CompleteGeneration(caller, id, codeHash, success)
}

// MintTemplate mints the template token for a completed generation.
func (n *Node) MintTemplate(caller [20]byte, generationID uint64, name string, payment *big.Int) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.templateEngine.MintTemplate(caller, generationID, name, payment)
}

// ListTemplate escrows a token unit and opens a listing.
func (n *Node) ListTemplate(caller [20]byte, tokenNonce uint64, price *big.Int) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.marketEngine.List(caller, tokenNonce, price)
}

// PurchaseTemplate settles an active listing for caller.
func (n *Node) PurchaseTemplate(caller [20]byte, listingID uint64, payment *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.marketEngine.Purchase(caller, listingID, payment)
}

// CancelListing returns an escrowed token to its seller. Owner only, enforced
// by the market engine.
func (n *Node) CancelListing(caller [20]byte, listingID uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.marketEngine.Cancel(caller, listingID)
}

// RateTemplate records a write-once rating for caller.
func (n *Node) RateTemplate(caller [20]byte, tokenNonce uint64, value uint8) (*rating.Aggregate, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ratingLedger.Rate(caller, tokenNonce, value)
}

// --- Administration (owner only) ---

func (n *Node) requireOwner(caller [20]byte) error {
	if caller != n.owner {
		return ErrOwnerOnly
	}
	return nil
}

// SetDailyLimit updates the per-account daily generation quota.
func (n *Node) SetDailyLimit(caller [20]byte, limit uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.requireOwner(caller); err != nil {
		return err
	}
	return n.state.SetDailyLimit(limit)
}

// SetMintFee updates the template minting fee.
func (n *Node) SetMintFee(caller [20]byte, fee *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.requireOwner(caller); err != nil {
		return err
	}
	return n.state.SetMintFee(fee)
}

// SetPlatformFeeBps updates the marketplace fee in basis points.
func (n *Node) SetPlatformFeeBps(caller [20]byte, bps uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.requireOwner(caller); err != nil {
		return err
	}
	return n.state.SetPlatformFeeBps(bps)
}

// SetTemplateTokenID registers the template token identifier.
func (n *Node) SetTemplateTokenID(caller [20]byte, id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.requireOwner(caller); err != nil {
		return err
	}
	return n.state.SetTemplateTokenID(id)
}

// WithdrawFees sweeps the module vault's native balance to the owner and
// returns the swept amount. Token escrow is unaffected: escrowed units live
// in the token ledger, not in the native balance.
func (n *Node) WithdrawFees(caller [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.requireOwner(caller); err != nil {
		return nil, err
	}
	vaultAcc, err := n.state.GetAccount(n.vault[:])
	if err != nil {
		return nil, err
	}
	amount := new(big.Int).Set(vaultAcc.BalanceForge)
	if amount.Sign() == 0 {
		return amount, nil
	}
	ownerAcc, err := n.state.GetAccount(n.owner[:])
	if err != nil {
		return nil, err
	}
	vaultAcc.BalanceForge = big.NewInt(0)
	ownerAcc.BalanceForge = new(big.Int).Add(ownerAcc.BalanceForge, amount)
	if err := n.state.PutAccount(n.vault[:], vaultAcc); err != nil {
		return nil, err
	}
	if err := n.state.PutAccount(n.owner[:], ownerAcc); err != nil {
		return nil, err
	}
	return amount, nil
}

// Credit funds an account's native balance. Used for genesis allocations and
// tests; not exposed through RPC.
func (n *Node) Credit(addr [20]byte, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if amount == nil || amount.Sign() <= 0 {
		return errors.New("node: credit amount must be positive")
	}
	account, err := n.state.GetAccount(addr[:])
	if err != nil {
		return err
	}
	account.BalanceForge = new(big.Int).Add(account.BalanceForge, amount)
	return n.state.PutAccount(addr[:], account)
}

// --- Views ---

// Generation returns the generation record for id.
func (n *Node) Generation(id uint64) (*gen.Generation, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.genEngine.Generation(id)
}

// GenerationCount reports how many generation ids have been allocated.
func (n *Node) GenerationCount() (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.GenerationCount()
}

// GenerationsToday reports addr's request count within the current quota day.
func (n *Node) GenerationsToday(addr [20]byte) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.genEngine.GenerationsToday(addr)
}

// LifetimeGenerationCount reports addr's total generation requests.
func (n *Node) LifetimeGenerationCount(addr [20]byte) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.genEngine.LifetimeCount(addr)
}

// Template returns the token record for nonce.
func (n *Node) Template(nonce uint64) (*templates.Template, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.templateEngine.Template(nonce)
}

// TemplateUses reports the completed purchases recorded against nonce.
func (n *Node) TemplateUses(nonce uint64) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.templateEngine.Uses(nonce)
}

// Listing returns the marketplace listing for id.
func (n *Node) Listing(id uint64) (*market.Listing, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.marketEngine.Listing(id)
}

// RatingAggregate returns the accumulated rating for nonce.
func (n *Node) RatingAggregate(nonce uint64) (*rating.Aggregate, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ratingLedger.Aggregate(nonce)
}

// UserRating returns the rating addr recorded for nonce, if any.
func (n *Node) UserRating(addr [20]byte, nonce uint64) (uint8, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ratingLedger.UserRating(addr, nonce)
}

// DailyLimit returns the configured per-account daily quota.
func (n *Node) DailyLimit() (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.DailyLimit()
}

// MintFee returns the configured template minting fee.
func (n *Node) MintFee() (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.MintFee()
}

// PlatformFeeBps returns the marketplace fee in basis points.
func (n *Node) PlatformFeeBps() (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.PlatformFeeBps()
}

// TemplateTokenID returns the registered template token identifier.
func (n *Node) TemplateTokenID() (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.TemplateTokenID()
}

// Balance returns addr's native balance.
func (n *Node) Balance(addr [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	account, err := n.state.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(account.BalanceForge), nil
}

// VaultBalance returns the module vault's native balance (retained fees).
func (n *Node) VaultBalance() (*big.Int, error) {
	return n.Balance(n.vault)
}

// EventsSince returns every recorded event with a sequence beyond cursor.
func (n *Node) EventsSince(cursor uint64) []events.RecordedEvent {
	return n.recorder.Since(cursor)
}
