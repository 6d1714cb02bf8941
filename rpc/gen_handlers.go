package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"forgechain/native/gen"
)

type generationRequestParams struct {
	Caller      string `json:"caller"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type generationCompleteParams struct {
	Caller       string `json:"caller"`
	GenerationID uint64 `json:"generationId"`
	CodeHash     string `json:"codeHash"`
	Success      bool   `json:"success"`
}

type generationGetParams struct {
	GenerationID uint64 `json:"generationId"`
}

type quotaParams struct {
	Address string `json:"address"`
}

type generationResult struct {
	ID          uint64 `json:"id"`
	Creator     string `json:"creator"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Timestamp   uint64 `json:"timestamp"`
	Status      string `json:"status"`
	CodeHash    string `json:"codeHash,omitempty"`
	TokenNonce  uint64 `json:"tokenNonce,omitempty"`
}

type quotaResult struct {
	Address    string `json:"address"`
	UsedToday  uint64 `json:"usedToday"`
	DailyLimit uint64 `json:"dailyLimit"`
	Remaining  uint64 `json:"remaining"`
	Lifetime   uint64 `json:"lifetime"`
}

func formatGeneration(record *gen.Generation) generationResult {
	result := generationResult{
		ID:          record.ID,
		Creator:     formatAddress(record.Creator),
		Description: string(record.Description),
		Category:    string(record.Category),
		Timestamp:   record.Timestamp,
		Status:      record.Status.String(),
		TokenNonce:  record.TokenNonce,
	}
	if len(record.CodeHash) > 0 {
		result.CodeHash = "0x" + hex.EncodeToString(record.CodeHash)
	}
	return result
}

func decodeHexString(value string) ([]byte, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	if cleaned == "" {
		return nil, nil
	}
	if len(cleaned)%2 == 1 {
		cleaned = "0" + cleaned
	}
	return hex.DecodeString(cleaned)
}

func (s *Server) handleRequestGeneration(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params generationRequestParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	id, err := s.node.RequestGeneration(callerAddr, []byte(params.Description), []byte(params.Category))
	if err != nil {
		if errors.Is(err, gen.ErrQuotaExceeded) {
			writeError(w, http.StatusTooManyRequests, req.ID, codeRateLimited, "daily generation limit reached", err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "failed to request generation", err.Error())
		return
	}
	record, err := s.node.Generation(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load generation", err.Error())
		return
	}
	writeResult(w, req.ID, formatGeneration(record))
}

func (s *Server) handleCompleteGeneration(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params generationCompleteParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	codeHash, err := decodeHexString(params.CodeHash)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid codeHash", err.Error())
		return
	}
	if err := s.node.CompleteGeneration(callerAddr, params.GenerationID, codeHash, params.Success); err != nil {
		status := http.StatusBadRequest
		code := codeServerError
		if errors.Is(err, gen.ErrUnauthorized) {
			status = http.StatusForbidden
			code = codeUnauthorized
		}
		writeError(w, status, req.ID, code, "failed to complete generation", err.Error())
		return
	}
	record, err := s.node.Generation(params.GenerationID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load generation", err.Error())
		return
	}
	writeResult(w, req.ID, formatGeneration(record))
}

func (s *Server) handleGetGeneration(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params generationGetParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	record, err := s.node.Generation(params.GenerationID)
	if err != nil {
		writeError(w, http.StatusNotFound, req.ID, codeServerError, "generation not found", err.Error())
		return
	}
	writeResult(w, req.ID, formatGeneration(record))
}

func (s *Server) handleGetQuota(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params quotaParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	addr, err := decodeBech32(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	used, err := s.node.GenerationsToday(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load quota", err.Error())
		return
	}
	limit, err := s.node.DailyLimit()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load daily limit", err.Error())
		return
	}
	lifetime, err := s.node.LifetimeGenerationCount(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load lifetime count", err.Error())
		return
	}
	remaining := uint64(0)
	if limit > used {
		remaining = limit - used
	}
	writeResult(w, req.ID, quotaResult{
		Address:    params.Address,
		UsedToday:  used,
		DailyLimit: limit,
		Remaining:  remaining,
		Lifetime:   lifetime,
	})
}
