package rpc

import (
	"encoding/json"
	"net/http"
)

type eventsParams struct {
	Cursor uint64 `json:"cursor"`
}

type eventResult struct {
	Sequence   uint64            `json:"sequence"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

type eventsResult struct {
	Events []eventResult `json:"events"`
	Cursor uint64        `json:"cursor"`
}

// handleEvents pages through recorded module events. Clients poll with the
// cursor from the previous response; cursor zero returns everything still
// buffered.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params eventsParams
	if len(req.Params) > 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "at most one parameter object expected", nil)
		return
	}
	if len(req.Params) == 1 {
		if err := json.Unmarshal(req.Params[0], &params); err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
			return
		}
	}
	recorded := s.node.EventsSince(params.Cursor)
	result := eventsResult{Events: make([]eventResult, 0, len(recorded)), Cursor: params.Cursor}
	for _, entry := range recorded {
		if entry.Event == nil {
			continue
		}
		result.Events = append(result.Events, eventResult{
			Sequence:   entry.Sequence,
			Type:       entry.Event.Type,
			Attributes: entry.Event.Attributes,
		})
		result.Cursor = entry.Sequence
	}
	writeResult(w, req.ID, result)
}
