package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/susu3304/kongklang/internal/ledger"
)

type rangeResponse struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

type entriesResponse struct {
	ConversationID string         `json:"conversation_id"`
	Scope          string         `json:"scope"`
	Range          rangeResponse  `json:"range"`
	Entries        []ledger.Entry `json:"entries"`
}

type summaryResponse struct {
	ConversationID string            `json:"conversation_id"`
	Scope          string            `json:"scope"`
	Range          rangeResponse     `json:"range"`
	Summary        ledger.Summary    `json:"summary"`
	Pair           ledger.Pair       `json:"pair"`
	Transfers      []ledger.Transfer `json:"transfers"`
}

// Protected handlers
func (a *API) handleListEntries(w http.ResponseWriter, r *http.Request) {
	conv := mux.Vars(r)["conversation_id"]
	scopeParam := r.URL.Query().Get("scope")
	scope, err := ledger.ParseScope(scopeParam)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rng, ok, err := a.book.Resolve(r.Context(), conv, scope)
	if err != nil {
		a.internalError(w, "failed to resolve range", err)
		return
	}
	entries := []ledger.Entry{}
	if ok {
		found, err := a.book.Entries(r.Context(), conv, scope)
		if err != nil {
			a.internalError(w, "failed to list entries", err)
			return
		}
		entries = append(entries, found...)
	}

	writeJSON(w, entriesResponse{
		ConversationID: conv,
		Scope:          scopeName(scopeParam),
		Range:          toRangeResponse(rng, ok),
		Entries:        entries,
	})
}

func (a *API) handleSummary(w http.ResponseWriter, r *http.Request) {
	conv := mux.Vars(r)["conversation_id"]
	scopeParam := r.URL.Query().Get("scope")
	scope, err := ledger.ParseScope(scopeParam)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rng, ok, err := a.book.Resolve(r.Context(), conv, scope)
	if err != nil {
		a.internalError(w, "failed to resolve range", err)
		return
	}
	summary, err := a.book.Summarize(r.Context(), conv, scope)
	if err != nil {
		a.internalError(w, "failed to summarize", err)
		return
	}
	if summary.Advances == nil {
		summary.Advances = []ledger.AuthorTotal{}
	}
	transfers := ledger.SettleAll(summary)
	if transfers == nil {
		transfers = []ledger.Transfer{}
	}

	writeJSON(w, summaryResponse{
		ConversationID: conv,
		Scope:          scopeName(scopeParam),
		Range:          toRangeResponse(rng, ok),
		Summary:        summary,
		Pair:           ledger.SettlePair(summary),
		Transfers:      transfers,
	})
}

func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	conv := mux.Vars(r)["conversation_id"]
	entries, err := a.book.Export(r.Context(), conv)
	if err != nil {
		a.internalError(w, "failed to export entries", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "backup-"+conv+".csv"))
	if err := ledger.WriteCSV(w, entries, a.book.Location()); err != nil {
		slog.Error("failed to write export", "conversation_id", conv, "error", err)
	}
}

func (a *API) internalError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, msg, http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func scopeName(param string) string {
	if param == "" {
		return "today"
	}
	return param
}

func toRangeResponse(r ledger.Range, ok bool) rangeResponse {
	if !ok {
		return rangeResponse{}
	}
	return rangeResponse{Start: &r.Start, End: &r.End}
}
