package rpc

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"forgechain/native/templates"
)

type templateMintParams struct {
	Caller       string `json:"caller"`
	GenerationID uint64 `json:"generationId"`
	Name         string `json:"name"`
	Payment      string `json:"payment"`
}

type templateGetParams struct {
	TokenNonce uint64 `json:"tokenNonce"`
}

type templateResult struct {
	TokenNonce   uint64 `json:"tokenNonce"`
	Name         string `json:"name"`
	Owner        string `json:"owner"`
	RoyaltyBps   uint64 `json:"royaltyBps"`
	GenerationID uint64 `json:"generationId"`
	Category     string `json:"category"`
	CodeHash     string `json:"codeHash,omitempty"`
	CreationDate uint64 `json:"creationDate"`
	Uses         uint64 `json:"uses"`
}

func formatTemplate(record *templates.Template) templateResult {
	result := templateResult{
		TokenNonce:   record.Nonce,
		Name:         record.Name,
		Owner:        formatAddress(record.Owner),
		RoyaltyBps:   record.RoyaltyBps,
		GenerationID: record.Attributes.GenerationID,
		Category:     string(record.Attributes.Category),
		CreationDate: record.Attributes.CreationDate,
		Uses:         record.Uses,
	}
	if len(record.Attributes.CodeHash) > 0 {
		result.CodeHash = "0x" + hex.EncodeToString(record.Attributes.CodeHash)
	}
	return result
}

func (s *Server) handleMintTemplate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params templateMintParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if strings.TrimSpace(params.Name) == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "name is required", nil)
		return
	}
	payment, err := parseAmount(params.Payment)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	nonce, err := s.node.MintTemplate(callerAddr, params.GenerationID, params.Name, payment)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "failed to mint template", err.Error())
		return
	}
	record, err := s.node.Template(nonce)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load template", err.Error())
		return
	}
	writeResult(w, req.ID, formatTemplate(record))
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params templateGetParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	record, err := s.node.Template(params.TokenNonce)
	if err != nil {
		writeError(w, http.StatusNotFound, req.ID, codeServerError, "template not found", err.Error())
		return
	}
	writeResult(w, req.ID, formatTemplate(record))
}
