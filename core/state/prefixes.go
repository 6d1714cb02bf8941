package state

import "fmt"

var (
	accountPrefix     = []byte("account/")
	generationPrefix  = []byte("gen/record/")
	generationNextKey = []byte("gen/next-id")
	rateCounterPrefix = []byte("gen/rate/")
	lifetimePrefix    = []byte("gen/lifetime/")
	templatePrefix    = []byte("template/record/")
	templateNonceKey  = []byte("template/next-nonce")
	listingPrefix     = []byte("market/listing/")
	listingNextKey    = []byte("market/next-id")
	paramPrefix       = []byte("params/")
)

func accountKey(addr []byte) []byte {
	return append(append([]byte{}, accountPrefix...), addr...)
}

func generationKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", generationPrefix, id))
}

func rateCounterKey(addr [20]byte) []byte {
	return append(append([]byte{}, rateCounterPrefix...), addr[:]...)
}

func lifetimeKey(addr [20]byte) []byte {
	return append(append([]byte{}, lifetimePrefix...), addr[:]...)
}

func templateKey(nonce uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", templatePrefix, nonce))
}

func listingKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", listingPrefix, id))
}

func paramKey(name string) []byte {
	return append(append([]byte{}, paramPrefix...), name...)
}
