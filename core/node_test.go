package core

import (
	"errors"
	"math/big"
	"testing"

	"forgechain/native/market"
	"forgechain/storage"
)

func addr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

var (
	testOwner    = addr(0xa1)
	testOperator = addr(0xb2)
)

func newTestNode(t *testing.T) *Node {
	t.Helper()
	node, err := NewNode(storage.NewMemDB(), Options{
		Owner:           testOwner,
		Operator:        testOperator,
		TemplateTokenID: "TMPL-abcdef",
		EventBuffer:     64,
	})
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	node.SetNowFunc(func() int64 { return 1_700_000_000 })
	if err := node.SetMintFee(testOwner, big.NewInt(50)); err != nil {
		t.Fatalf("set mint fee: %v", err)
	}
	return node
}

func mustBalance(t *testing.T, node *Node, a [20]byte) *big.Int {
	t.Helper()
	balance, err := node.Balance(a)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return balance
}

func TestNodeFullLifecycle(t *testing.T) {
	node := newTestNode(t)
	creator := addr(1)
	buyer := addr(2)
	if err := node.Credit(creator, big.NewInt(1000)); err != nil {
		t.Fatalf("credit creator: %v", err)
	}
	if err := node.Credit(buyer, big.NewInt(5000)); err != nil {
		t.Fatalf("credit buyer: %v", err)
	}

	id, err := node.RequestGeneration(creator, []byte("a todo app"), []byte("web"))
	if err != nil {
		t.Fatalf("request generation: %v", err)
	}
	if id != 0 {
		t.Fatalf("expected generation id 0, got %d", id)
	}
	if err := node.CompleteGeneration(testOperator, id, []byte{0xaa}, true); err != nil {
		t.Fatalf("complete generation: %v", err)
	}

	nonce, err := node.MintTemplate(creator, id, "Todo Starter", big.NewInt(50))
	if err != nil {
		t.Fatalf("mint template: %v", err)
	}
	if nonce != 1 {
		t.Fatalf("expected token nonce 1, got %d", nonce)
	}

	listingID, err := node.ListTemplate(creator, nonce, big.NewInt(1000))
	if err != nil {
		t.Fatalf("list template: %v", err)
	}
	if err := node.PurchaseTemplate(buyer, listingID, big.NewInt(1000)); err != nil {
		t.Fatalf("purchase template: %v", err)
	}

	// Creator paid the 50 mint fee and netted 975 from the 1000 sale after
	// the 2.5% platform fee. The vault holds fee plus commission.
	if got := mustBalance(t, node, creator); got.Cmp(big.NewInt(1925)) != 0 {
		t.Fatalf("unexpected creator balance %s", got)
	}
	if got := mustBalance(t, node, buyer); got.Cmp(big.NewInt(4000)) != 0 {
		t.Fatalf("unexpected buyer balance %s", got)
	}
	vault, err := node.VaultBalance()
	if err != nil {
		t.Fatalf("vault balance: %v", err)
	}
	if vault.Cmp(big.NewInt(75)) != 0 {
		t.Fatalf("unexpected vault balance %s", vault)
	}

	template, err := node.Template(nonce)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if template.Owner != buyer {
		t.Fatalf("expected buyer to own the token")
	}
	if template.Uses != 1 {
		t.Fatalf("expected usage counter 1, got %d", template.Uses)
	}

	aggregate, err := node.RateTemplate(buyer, nonce, 5)
	if err != nil {
		t.Fatalf("rate template: %v", err)
	}
	if aggregate.TotalRating != 5 || aggregate.RatingCount != 1 {
		t.Fatalf("unexpected aggregate %+v", aggregate)
	}

	swept, err := node.WithdrawFees(testOwner)
	if err != nil {
		t.Fatalf("withdraw fees: %v", err)
	}
	if swept.Cmp(big.NewInt(75)) != 0 {
		t.Fatalf("unexpected sweep amount %s", swept)
	}
	if got := mustBalance(t, node, testOwner); got.Cmp(big.NewInt(75)) != 0 {
		t.Fatalf("unexpected owner balance %s", got)
	}
	vault, err = node.VaultBalance()
	if err != nil {
		t.Fatalf("vault balance: %v", err)
	}
	if vault.Sign() != 0 {
		t.Fatalf("expected drained vault, got %s", vault)
	}

	wantTypes := []string{
		"gen.requested",
		"gen.completed",
		"achievement.earned",
		"template.minted",
		"market.listed",
		"achievement.earned",
		"market.purchased",
		"rating.recorded",
	}
	recorded := node.EventsSince(0)
	if len(recorded) != len(wantTypes) {
		t.Fatalf("expected %d events, got %d", len(wantTypes), len(recorded))
	}
	for i, want := range wantTypes {
		if recorded[i].Event.Type != want {
			t.Fatalf("event %d: expected %s, got %s", i, want, recorded[i].Event.Type)
		}
	}

	// Cursor paging resumes mid-stream.
	tail := node.EventsSince(recorded[5].Sequence)
	if len(tail) != 2 || tail[0].Event.Type != "market.purchased" {
		t.Fatalf("unexpected tail %v", tail)
	}
}

func TestNodeAdminRequiresOwner(t *testing.T) {
	node := newTestNode(t)
	stranger := addr(9)

	if err := node.SetDailyLimit(stranger, 5); !errors.Is(err, ErrOwnerOnly) {
		t.Fatalf("expected ErrOwnerOnly, got %v", err)
	}
	if err := node.SetMintFee(stranger, big.NewInt(1)); !errors.Is(err, ErrOwnerOnly) {
		t.Fatalf("expected ErrOwnerOnly, got %v", err)
	}
	if err := node.SetPlatformFeeBps(stranger, 100); !errors.Is(err, ErrOwnerOnly) {
		t.Fatalf("expected ErrOwnerOnly, got %v", err)
	}
	if err := node.SetTemplateTokenID(stranger, "TMPL-x"); !errors.Is(err, ErrOwnerOnly) {
		t.Fatalf("expected ErrOwnerOnly, got %v", err)
	}
	if _, err := node.WithdrawFees(stranger); !errors.Is(err, ErrOwnerOnly) {
		t.Fatalf("expected ErrOwnerOnly, got %v", err)
	}

	if err := node.SetDailyLimit(testOwner, 5); err != nil {
		t.Fatalf("owner set daily limit: %v", err)
	}
	limit, err := node.DailyLimit()
	if err != nil {
		t.Fatalf("daily limit: %v", err)
	}
	if limit != 5 {
		t.Fatalf("expected limit 5, got %d", limit)
	}
}

func TestNodeCancelListingOwnerOnly(t *testing.T) {
	node := newTestNode(t)
	creator := addr(1)
	if err := node.Credit(creator, big.NewInt(100)); err != nil {
		t.Fatalf("credit: %v", err)
	}

	id, err := node.RequestGeneration(creator, []byte("req"), []byte("cat"))
	if err != nil {
		t.Fatalf("request generation: %v", err)
	}
	if err := node.CompleteGeneration(testOperator, id, []byte{0x01}, true); err != nil {
		t.Fatalf("complete generation: %v", err)
	}
	nonce, err := node.MintTemplate(creator, id, "tmpl", big.NewInt(50))
	if err != nil {
		t.Fatalf("mint template: %v", err)
	}
	listingID, err := node.ListTemplate(creator, nonce, big.NewInt(10))
	if err != nil {
		t.Fatalf("list template: %v", err)
	}

	if err := node.CancelListing(creator, listingID); !errors.Is(err, market.ErrUnauthorized) {
		t.Fatalf("expected market.ErrUnauthorized for seller, got %v", err)
	}
	if err := node.CancelListing(testOwner, listingID); err != nil {
		t.Fatalf("owner cancel: %v", err)
	}
	template, err := node.Template(nonce)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if template.Owner != creator {
		t.Fatalf("expected escrow returned to seller")
	}
}

func TestNodePersistsAcrossRestart(t *testing.T) {
	db := storage.NewMemDB()
	node, err := NewNode(db, Options{Owner: testOwner, Operator: testOperator, TemplateTokenID: "TMPL-abcdef"})
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	node.SetNowFunc(func() int64 { return 1_700_000_000 })
	creator := addr(1)
	id, err := node.RequestGeneration(creator, []byte("req"), []byte("cat"))
	if err != nil {
		t.Fatalf("request generation: %v", err)
	}

	// A second node over the same database sees the stored state, and the
	// configured token id is not overwritten by the boot seed.
	reopened, err := NewNode(db, Options{Owner: testOwner, Operator: testOperator, TemplateTokenID: "TMPL-other"})
	if err != nil {
		t.Fatalf("reopen node: %v", err)
	}
	record, err := reopened.Generation(id)
	if err != nil {
		t.Fatalf("load generation: %v", err)
	}
	if record.Creator != creator {
		t.Fatalf("unexpected creator after reopen")
	}
	tokenID, err := reopened.TemplateTokenID()
	if err != nil {
		t.Fatalf("template token id: %v", err)
	}
	if tokenID != "TMPL-abcdef" {
		t.Fatalf("expected original token id preserved, got %s", tokenID)
	}
}
