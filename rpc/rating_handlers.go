package rpc

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"forgechain/native/rating"
)

type ratingSubmitParams struct {
	Caller     string `json:"caller"`
	TokenNonce uint64 `json:"tokenNonce"`
	Rating     uint8  `json:"rating"`
}

type ratingGetParams struct {
	TokenNonce uint64 `json:"tokenNonce"`
	Address    string `json:"address,omitempty"`
}

type ratingResult struct {
	TokenNonce  uint64  `json:"tokenNonce"`
	TotalRating uint64  `json:"totalRating"`
	RatingCount uint64  `json:"ratingCount"`
	Average     float64 `json:"average"`
	UserRating  *uint8  `json:"userRating,omitempty"`
}

func formatRating(nonce uint64, aggregate *rating.Aggregate) ratingResult {
	result := ratingResult{TokenNonce: nonce}
	if aggregate != nil {
		result.TotalRating = aggregate.TotalRating
		result.RatingCount = aggregate.RatingCount
		if aggregate.RatingCount > 0 {
			result.Average = float64(aggregate.TotalRating) / float64(aggregate.RatingCount)
		}
	}
	return result
}

func (s *Server) handleRateTemplate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params ratingSubmitParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	aggregate, err := s.node.RateTemplate(callerAddr, params.TokenNonce, params.Rating)
	if err != nil {
		code := codeServerError
		if errors.Is(err, rating.ErrInvalidRating) || errors.Is(err, rating.ErrAlreadyRated) {
			code = codeInvalidParams
		}
		writeError(w, http.StatusBadRequest, req.ID, code, "failed to rate template", err.Error())
		return
	}
	result := formatRating(params.TokenNonce, aggregate)
	result.UserRating = &params.Rating
	writeResult(w, req.ID, result)
}

func (s *Server) handleGetRating(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params ratingGetParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	aggregate, err := s.node.RatingAggregate(params.TokenNonce)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load rating", err.Error())
		return
	}
	result := formatRating(params.TokenNonce, aggregate)
	if strings.TrimSpace(params.Address) != "" {
		addr, err := decodeBech32(params.Address)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
			return
		}
		value, ok, err := s.node.UserRating(addr, params.TokenNonce)
		if err != nil {
			writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load user rating", err.Error())
			return
		}
		if ok {
			result.UserRating = &value
		}
	}
	writeResult(w, req.ID, result)
}
