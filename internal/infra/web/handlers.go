package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bank-gateways-hub/internal/domain"
	"bank-gateways-hub/internal/infra/metrics"
	"bank-gateways-hub/internal/provider"
)

// bankReturn is what a bank callback carries once the gateway-specific
// parameter names are stripped away.
type bankReturn struct {
	Reference string
	Cancelled bool
}

// extractReturn maps each bank's callback parameters onto a bankReturn.
// Banks call back with GET query strings or POST forms; r.FormValue covers
// both.
func extractReturn(bank string, r *http.Request) (bankReturn, bool) {
	switch bank {
	case provider.BankZarinpal:
		authority := r.FormValue("Authority")
		if authority == "" {
			return bankReturn{}, false
		}
		return bankReturn{Reference: authority, Cancelled: r.FormValue("Status") != "OK"}, true
	case provider.BankZibal:
		trackID := r.FormValue("trackId")
		if trackID == "" {
			return bankReturn{}, false
		}
		return bankReturn{Reference: trackID, Cancelled: r.FormValue("success") == "0"}, true
	case provider.BankIDPay:
		id := r.FormValue("id")
		if id == "" {
			return bankReturn{}, false
		}
		ref := id
		if orderID := r.FormValue("order_id"); orderID != "" {
			ref = id + ":" + orderID
		}
		return bankReturn{Reference: ref, Cancelled: r.FormValue("status") == "7"}, true
	default:
		return bankReturn{}, false
	}
}

type callbackResponse struct {
	Bank      string `json:"bank"`
	Reference string `json:"reference"`
	Status    string `json:"status"` // verified | failed | cancelled
}

// callbackHandler receives the payer returning from the bank, records the
// return, and runs verification unless the bank already reported a cancel.
func (s *Server) callbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		bank := chi.URLParam(r, "bank")

		gw, ok := s.gateways[bank]
		if !ok {
			http.Error(w, "unknown gateway", http.StatusNotFound)
			return
		}

		ret, ok := extractReturn(bank, r)
		if !ok {
			s.log.Warn().Str("bank", bank).Msg("callback without a usable reference")
			http.Error(w, "missing callback parameters", http.StatusBadRequest)
			return
		}

		gw.MarkReturned(ctx, ret.Reference)

		resp := callbackResponse{Bank: bank, Reference: ret.Reference}
		if ret.Cancelled {
			// The payer backed out at the bank; the reconciler settles the
			// stored record through inquiry.
			resp.Status = "cancelled"
			metrics.IncPaymentOp(bank, "callback", "cancelled")
			writeJSON(w, http.StatusOK, resp)
			return
		}

		verified, err := gw.VerifyPayment(ctx, ret.Reference)
		switch {
		case err == nil && verified:
			resp.Status = "verified"
			metrics.IncPaymentOp(bank, "callback", "verified")
			writeJSON(w, http.StatusOK, resp)
		case err == nil:
			resp.Status = "failed"
			metrics.IncPaymentOp(bank, "callback", "failed")
			writeJSON(w, http.StatusOK, resp)
		case errors.Is(err, domain.ErrTransactionNotFound):
			metrics.IncPaymentOp(bank, "callback", "unknown")
			http.Error(w, "unknown reference", http.StatusNotFound)
		default:
			s.log.Error().Err(err).Str("bank", bank).Str("reference", ret.Reference).Msg("verification failed")
			metrics.IncPaymentOp(bank, "callback", "error")
			http.Error(w, "verification failed", http.StatusBadGateway)
		}
	}
}

func (s *Server) loginHandler() http.HandlerFunc {
	type loginRequest struct {
		Secret string `json:"secret"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if !s.auth.CheckSecret(req.Secret) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		token, err := s.auth.Mint(w)
		if err != nil {
			http.Error(w, "Failed to mint session", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

func (s *Server) logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.auth.Clear(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

// inquiryHandler asks the bank for the live status of a reference.
func (s *Server) inquiryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		bank := chi.URLParam(r, "bank")
		reference := chi.URLParam(r, "reference")

		gw, ok := s.gateways[bank]
		if !ok {
			http.Error(w, "unknown gateway", http.StatusNotFound)
			return
		}

		result, err := gw.InquiryPayment(ctx, reference)
		if err != nil {
			if errors.Is(err, domain.ErrTransactionNotFound) {
				http.Error(w, "unknown reference", http.StatusNotFound)
				return
			}
			s.log.Error().Err(err).Str("bank", bank).Str("reference", reference).Msg("inquiry failed")
			http.Error(w, "inquiry failed", http.StatusBadGateway)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"bank":              bank,
			"reference":         reference,
			"status":            result.Status,
			"extra_information": result.ExtraInformation,
		})
	}
}

// reverseHandler voids an authorized but unverified payment.
func (s *Server) reverseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		bank := chi.URLParam(r, "bank")
		reference := chi.URLParam(r, "reference")

		gw, ok := s.gateways[bank]
		if !ok {
			http.Error(w, "unknown gateway", http.StatusNotFound)
			return
		}

		reversed, err := gw.ReversePayment(ctx, reference)
		switch {
		case errors.Is(err, domain.ErrOperationNotSupported):
			http.Error(w, "gateway does not support reversal", http.StatusNotImplemented)
		case errors.Is(err, domain.ErrTransactionNotFound):
			http.Error(w, "unknown reference", http.StatusNotFound)
		case err != nil:
			s.log.Error().Err(err).Str("bank", bank).Str("reference", reference).Msg("reversal failed")
			http.Error(w, "reversal failed", http.StatusBadGateway)
		default:
			metrics.IncPaymentOp(bank, "reverse", outcome(reversed))
			writeJSON(w, http.StatusOK, map[string]any{"bank": bank, "reference": reference, "reversed": reversed})
		}
	}
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "refused"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
