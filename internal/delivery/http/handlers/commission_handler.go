package handlers

import (
	"net/http"

	"github.com/LavaJover/shvark-ib-service/internal/delivery/http/dto/request"
	"github.com/LavaJover/shvark-ib-service/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-ib-service/internal/domain"
	commissiondto "github.com/LavaJover/shvark-ib-service/internal/usecase/dto/commission"
	plandto "github.com/LavaJover/shvark-ib-service/internal/usecase/dto/plan"
	withdrawaldto "github.com/LavaJover/shvark-ib-service/internal/usecase/dto/withdrawal"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePlanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	structure, err := req.Structure.Levels()
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	p, err := h.svc.Plans.CreatePlan(r.Context(), &plandto.CreatePlanInput{
		OwnerIBID:   req.OwnerIBID,
		Name:        req.Name,
		LevelsCount: req.LevelsCount,
		Structure:   structure,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, response.FromPlan(p))
}

func (h *Handler) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	var req request.UpdatePlanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	structure, err := req.Structure.Levels()
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	p, err := h.svc.Plans.UpdatePlan(r.Context(), &plandto.UpdatePlanInput{
		PlanID:      chi.URLParam(r, "id"),
		Name:        req.Name,
		LevelsCount: req.LevelsCount,
		Structure:   structure,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.FromPlan(p))
}

func (h *Handler) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Plans.DeletePlan(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Plans.GetPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.FromPlan(p))
}

func (h *Handler) handleGetPlanByToken(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Plans.GetPlanByLinkToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.FromPlan(p))
}

func (h *Handler) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.Plans.ListPlansByOwner(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	out := make([]response.Plan, len(plans))
	for i, p := range plans {
		out[i] = response.FromPlan(p)
	}
	respondWithJSON(w, http.StatusOK, out)
}

// handleProcessTrade ingests one trade over HTTP, for platforms that do not
// publish to kafka and for manual replays.
func (h *Handler) handleProcessTrade(w http.ResponseWriter, r *http.Request) {
	var event domain.TradeVolumeEvent
	if err := decodeJSON(r, &event); err != nil {
		respondWithError(w, r, err)
		return
	}

	out, err := h.svc.Commission.ProcessTrade(r.Context(), event)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	code := http.StatusOK
	if out.Outcome == commissiondto.TradeRecorded {
		code = http.StatusCreated
	}
	respondWithJSON(w, code, response.ProcessTrade{
		TradeID:  out.TradeID,
		Outcome:  string(out.Outcome),
		DirectIB: out.DirectIB,
		Inserted: out.Inserted,
		Total:    out.Total,
		Entries:  response.FromLedgerEntries(out.Entries),
	})
}

func (h *Handler) handleGetTradeBreakdown(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Commission.GetTradeBreakdown(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.FromLedgerEntries(entries))
}

func (h *Handler) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Commission.GetSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.FromSummary(summary))
}

func (h *Handler) handleListLedger(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	from, err := queryTime(r, "from")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	out, err := h.svc.Commission.ListEntries(r.Context(), domain.LedgerFilter{
		IBID:     chi.URLParam(r, "id"),
		Kind:     domain.CommissionKind(r.URL.Query().Get("kind")),
		DateFrom: from,
		DateTo:   to,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.Page[response.LedgerEntry]{
		Items: response.FromLedgerEntries(out.Entries),
		Total: out.Total,
		Page:  out.Page,
		Limit: out.Limit,
	})
}

func (h *Handler) handleListDistributions(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	out, err := h.svc.Commission.ListDistributions(r.Context(), chi.URLParam(r, "id"), page, limit)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	items := make([]response.Distribution, len(out.Distributions))
	for i, d := range out.Distributions {
		items[i] = response.FromDistribution(d)
	}
	respondWithJSON(w, http.StatusOK, response.Page[response.Distribution]{
		Items: items,
		Total: out.Total,
		Page:  out.Page,
		Limit: out.Limit,
	})
}

func (h *Handler) handleDistribute(w http.ResponseWriter, r *http.Request) {
	var req request.DistributeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	d, err := h.svc.Commission.Distribute(r.Context(), &commissiondto.DistributeInput{
		IBID:   chi.URLParam(r, "id"),
		Amount: req.Amount,
		Note:   req.Note,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, response.FromDistribution(d))
}

func (h *Handler) handleRequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req request.WithdrawalRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	wr, err := h.svc.Withdrawals.RequestWithdrawal(r.Context(), &withdrawaldto.RequestWithdrawalInput{
		IBID:           req.IBID,
		Amount:         req.Amount,
		PaymentMethod:  req.PaymentMethod,
		PaymentDetails: req.PaymentDetails,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, response.FromWithdrawal(wr))
}

func (h *Handler) handleListWithdrawals(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	out, err := h.svc.Withdrawals.ListWithdrawals(r.Context(), domain.WithdrawalFilter{
		IBID:   r.URL.Query().Get("ib_id"),
		Status: domain.WithdrawalStatus(r.URL.Query().Get("status")),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	items := make([]response.Withdrawal, len(out.Withdrawals))
	for i, wr := range out.Withdrawals {
		items[i] = response.FromWithdrawal(wr)
	}
	respondWithJSON(w, http.StatusOK, response.Page[response.Withdrawal]{
		Items: items,
		Total: out.Total,
		Page:  out.Page,
		Limit: out.Limit,
	})
}

func (h *Handler) handleGetWithdrawal(w http.ResponseWriter, r *http.Request) {
	wr, err := h.svc.Withdrawals.GetWithdrawal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.FromWithdrawal(wr))
}

func (h *Handler) handleApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	wr, err := h.svc.Withdrawals.ApproveWithdrawal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.FromWithdrawal(wr))
}

func (h *Handler) handleRejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req request.RejectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	wr, err := h.svc.Withdrawals.RejectWithdrawal(r.Context(), &withdrawaldto.RejectWithdrawalInput{
		WithdrawalID: chi.URLParam(r, "id"),
		Reason:       req.Reason,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.FromWithdrawal(wr))
}

func (h *Handler) handleStartReconcile(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.Reconcile.StartJob(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, response.FromReconcileJob(job))
}

func (h *Handler) handleGetReconcileJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.Reconcile.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.FromReconcileJob(job))
}
