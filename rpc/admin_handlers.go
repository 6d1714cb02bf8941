package rpc

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"forgechain/core"
)

type balanceParams struct {
	Address string `json:"address"`
}

type balanceResult struct {
	Address      string `json:"address"`
	BalanceForge string `json:"balanceForge"`
}

type paramsResult struct {
	DailyLimit       uint64 `json:"dailyLimit"`
	MintFee          string `json:"mintFee"`
	PlatformFeeBps   uint64 `json:"platformFeeBps"`
	TemplateTokenID  string `json:"templateTokenId"`
	VaultBalance     string `json:"vaultBalance"`
	TotalGenerations uint64 `json:"totalGenerations"`
}

type setDailyLimitParams struct {
	Caller string `json:"caller"`
	Limit  uint64 `json:"limit"`
}

type setMintFeeParams struct {
	Caller string `json:"caller"`
	Fee    string `json:"fee"`
}

type setPlatformFeeParams struct {
	Caller string `json:"caller"`
	Bps    uint64 `json:"bps"`
}

type setTemplateTokenParams struct {
	Caller  string `json:"caller"`
	TokenID string `json:"tokenId"`
}

type withdrawFeesParams struct {
	Caller string `json:"caller"`
}

type withdrawFeesResult struct {
	Owner  string `json:"owner"`
	Amount string `json:"amount"`
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params balanceParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	addr, err := decodeBech32(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	balance, err := s.node.Balance(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load balance", err.Error())
		return
	}
	writeResult(w, req.ID, balanceResult{Address: params.Address, BalanceForge: bigString(balance)})
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	limit, err := s.node.DailyLimit()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load parameters", err.Error())
		return
	}
	fee, err := s.node.MintFee()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load parameters", err.Error())
		return
	}
	bps, err := s.node.PlatformFeeBps()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load parameters", err.Error())
		return
	}
	tokenID, err := s.node.TemplateTokenID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load parameters", err.Error())
		return
	}
	vault, err := s.node.VaultBalance()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load parameters", err.Error())
		return
	}
	total, err := s.node.GenerationCount()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load parameters", err.Error())
		return
	}
	writeResult(w, req.ID, paramsResult{
		DailyLimit:       limit,
		MintFee:          bigString(fee),
		PlatformFeeBps:   bps,
		TemplateTokenID:  tokenID,
		VaultBalance:     bigString(vault),
		TotalGenerations: total,
	})
}

func writeAdminError(w http.ResponseWriter, id interface{}, action string, err error) {
	status := http.StatusBadRequest
	code := codeServerError
	if errors.Is(err, core.ErrOwnerOnly) {
		status = http.StatusForbidden
		code = codeUnauthorized
	}
	writeError(w, status, id, code, "failed to "+action, err.Error())
}

func (s *Server) handleSetDailyLimit(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params setDailyLimitParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.node.SetDailyLimit(callerAddr, params.Limit); err != nil {
		writeAdminError(w, req.ID, "set daily limit", err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"dailyLimit": params.Limit})
}

func (s *Server) handleSetMintFee(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params setMintFeeParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	fee, err := parseAmount(params.Fee)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.SetMintFee(callerAddr, fee); err != nil {
		writeAdminError(w, req.ID, "set mint fee", err)
		return
	}
	writeResult(w, req.ID, map[string]string{"mintFee": fee.String()})
}

func (s *Server) handleSetPlatformFee(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params setPlatformFeeParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if params.Bps > 10_000 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "bps must not exceed 10000", nil)
		return
	}
	if err := s.node.SetPlatformFeeBps(callerAddr, params.Bps); err != nil {
		writeAdminError(w, req.ID, "set platform fee", err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"platformFeeBps": params.Bps})
}

func (s *Server) handleSetTemplateToken(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params setTemplateTokenParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	tokenID := strings.TrimSpace(params.TokenID)
	if tokenID == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "tokenId is required", nil)
		return
	}
	if err := s.node.SetTemplateTokenID(callerAddr, tokenID); err != nil {
		writeAdminError(w, req.ID, "set template token", err)
		return
	}
	writeResult(w, req.ID, map[string]string{"templateTokenId": tokenID})
}

func (s *Server) handleWithdrawFees(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params withdrawFeesParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	amount, err := s.node.WithdrawFees(callerAddr)
	if err != nil {
		writeAdminError(w, req.ID, "withdraw fees", err)
		return
	}
	writeResult(w, req.ID, withdrawFeesResult{Owner: params.Caller, Amount: bigString(amount)})
}
