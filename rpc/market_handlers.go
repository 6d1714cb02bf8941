package rpc

import (
	"encoding/json"
	"errors"
	"net/http"

	"forgechain/native/market"
)

type marketListParams struct {
	Caller     string `json:"caller"`
	TokenNonce uint64 `json:"tokenNonce"`
	Price      string `json:"price"`
}

type marketPurchaseParams struct {
	Caller    string `json:"caller"`
	ListingID uint64 `json:"listingId"`
	Payment   string `json:"payment"`
}

type marketCancelParams struct {
	Caller    string `json:"caller"`
	ListingID uint64 `json:"listingId"`
}

type marketGetParams struct {
	ListingID uint64 `json:"listingId"`
}

type listingResult struct {
	ListingID  uint64 `json:"listingId"`
	Seller     string `json:"seller"`
	TokenNonce uint64 `json:"tokenNonce"`
	Price      string `json:"price"`
	Active     bool   `json:"active"`
}

func formatListing(record *market.Listing) listingResult {
	return listingResult{
		ListingID:  record.ID,
		Seller:     formatAddress(record.Seller),
		TokenNonce: record.TokenNonce,
		Price:      bigString(record.Price),
		Active:     record.Active,
	}
}

func (s *Server) handleListTemplate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params marketListParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	price, err := parseAmount(params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := s.node.ListTemplate(callerAddr, params.TokenNonce, price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "failed to list template", err.Error())
		return
	}
	record, err := s.node.Listing(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load listing", err.Error())
		return
	}
	writeResult(w, req.ID, formatListing(record))
}

func (s *Server) handlePurchaseTemplate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params marketPurchaseParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	payment, err := parseAmount(params.Payment)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.PurchaseTemplate(callerAddr, params.ListingID, payment); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "failed to purchase template", err.Error())
		return
	}
	record, err := s.node.Listing(params.ListingID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load listing", err.Error())
		return
	}
	writeResult(w, req.ID, formatListing(record))
}

func (s *Server) handleCancelListing(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params marketCancelParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.node.CancelListing(callerAddr, params.ListingID); err != nil {
		status := http.StatusBadRequest
		code := codeServerError
		if errors.Is(err, market.ErrUnauthorized) {
			status = http.StatusForbidden
			code = codeUnauthorized
		}
		writeError(w, status, req.ID, code, "failed to cancel listing", err.Error())
		return
	}
	record, err := s.node.Listing(params.ListingID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load listing", err.Error())
		return
	}
	writeResult(w, req.ID, formatListing(record))
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params marketGetParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	record, err := s.node.Listing(params.ListingID)
	if err != nil {
		writeError(w, http.StatusNotFound, req.ID, codeServerError, "listing not found", err.Error())
		return
	}
	writeResult(w, req.ID, formatListing(record))
}
