package handlers

import (
	"net/http"

	"github.com/LavaJover/shvark-ib-service/internal/delivery/http/dto/request"
	"github.com/LavaJover/shvark-ib-service/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-ib-service/internal/domain"
	"github.com/LavaJover/shvark-ib-service/internal/usecase/catalog"
	"github.com/LavaJover/shvark-ib-service/internal/usecase/commission"
	clientdto "github.com/LavaJover/shvark-ib-service/internal/usecase/dto/client"
	ibrequestdto "github.com/LavaJover/shvark-ib-service/internal/usecase/dto/ibrequest"
	"github.com/LavaJover/shvark-ib-service/internal/usecase/ibrequest"
	"github.com/LavaJover/shvark-ib-service/internal/usecase/plan"
	"github.com/LavaJover/shvark-ib-service/internal/usecase/reconcile"
	"github.com/LavaJover/shvark-ib-service/internal/usecase/referral"
	"github.com/LavaJover/shvark-ib-service/internal/usecase/withdrawal"
	"github.com/go-chi/chi/v5"
)

type Services struct {
	IBRequests  ibrequest.IBRequestUsecase
	Graph       referral.GraphUsecase
	Clients     referral.ClientUsecase
	Commission  commission.CommissionUsecase
	Withdrawals withdrawal.WithdrawalUsecase
	Plans       plan.PlanUsecase
	Catalog     catalog.CatalogUsecase
	Reconcile   reconcile.ReconcileUsecase
}

type Handler struct {
	svc Services
}

func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) handleSubmitIBRequest(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitIBRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	ib, err := h.svc.IBRequests.SubmitIBRequest(r.Context(), &ibrequestdto.SubmitIBRequestInput{
		UserID:        req.UserID,
		PlanLinkToken: req.PlanLinkToken,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, response.FromIBRequest(ib))
}

func (h *Handler) handleListIBRequests(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	out, err := h.svc.IBRequests.ListIBRequests(r.Context(), domain.IBRequestFilter{
		Status: domain.IBRequestStatus(r.URL.Query().Get("status")),
		IBType: domain.IBType(r.URL.Query().Get("ib_type")),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.Page[response.IBRequest]{
		Items: response.FromIBRequests(out.Requests),
		Total: out.Total,
		Page:  out.Page,
		Limit: out.Limit,
	})
}

func (h *Handler) handleGetIBRequest(w http.ResponseWriter, r *http.Request) {
	ib, err := h.svc.IBRequests.GetIBRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.FromIBRequest(ib))
}

func (h *Handler) handleApproveIBRequest(w http.ResponseWriter, r *http.Request) {
	var req request.ApproveIBRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	ib, err := h.svc.IBRequests.ApproveIBRequest(r.Context(), &ibrequestdto.ApproveIBRequestInput{
		RequestID:               chi.URLParam(r, "id"),
		IBType:                  domain.IBType(req.IBType),
		ReferrerID:              req.ReferrerID,
		GroupRates:              req.GroupRates,
		PlanType:                domain.PlanType(req.PlanType),
		ShowCommissionStructure: req.ShowCommissionStructure,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.FromIBRequest(ib))
}

func (h *Handler) handleRejectIBRequest(w http.ResponseWriter, r *http.Request) {
	var req request.RejectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	ib, err := h.svc.IBRequests.RejectIBRequest(r.Context(), &ibrequestdto.RejectIBRequestInput{
		RequestID: chi.URLParam(r, "id"),
		Reason:    req.Reason,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.FromIBRequest(ib))
}

func (h *Handler) handleChangeIBType(w http.ResponseWriter, r *http.Request) {
	var req request.ChangeIBTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	ib, err := h.svc.IBRequests.ChangeIBType(r.Context(), &ibrequestdto.ChangeIBTypeInput{
		RequestID:  chi.URLParam(r, "id"),
		IBType:     domain.IBType(req.IBType),
		ReferrerID: req.ReferrerID,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.FromIBRequest(ib))
}

func (h *Handler) handleSetBanned(w http.ResponseWriter, r *http.Request) {
	var req request.SetBannedRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	ib, err := h.svc.IBRequests.SetBanned(r.Context(), &ibrequestdto.SetBannedInput{
		RequestID: chi.URLParam(r, "id"),
		Banned:    req.Banned,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.FromIBRequest(ib))
}

func (h *Handler) handleGetGroupRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.svc.IBRequests.GetGroupRates(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.FromGroupRates(rates))
}

func (h *Handler) handleSetGroupRates(w http.ResponseWriter, r *http.Request) {
	var req request.SetGroupRatesRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	rates, err := h.svc.IBRequests.SetGroupRates(r.Context(), &ibrequestdto.SetGroupRatesInput{
		IBID:       chi.URLParam(r, "id"),
		GroupRates: req.GroupRates,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.FromGroupRates(rates))
}

func (h *Handler) handleSetReferrer(w http.ResponseWriter, r *http.Request) {
	var req request.SetReferrerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	ib, err := h.svc.Graph.SetReferrer(r.Context(), chi.URLParam(r, "id"), req.ReferrerID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.FromIBRequest(ib))
}

func (h *Handler) handleGetAncestors(w http.ResponseWriter, r *http.Request) {
	chain, err := h.svc.Graph.AncestorsOf(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.FromIBRequests(chain))
}

func (h *Handler) handleGetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.svc.Graph.SubtreeOf(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.FromReferralTree(tree))
}

func (h *Handler) handleRegisterClient(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterClientRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	ref, err := h.svc.Clients.RegisterClient(r.Context(), &clientdto.RegisterClientInput{
		ClientUserID:  req.ClientUserID,
		IBID:          req.IBID,
		PlanLinkToken: req.PlanLinkToken,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, response.FromClientReferral(ref))
}

func (h *Handler) handleGetClient(w http.ResponseWriter, r *http.Request) {
	ref, err := h.svc.Clients.GetClientReferral(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.FromClientReferral(ref))
}

func (h *Handler) handleListClients(w http.ResponseWriter, r *http.Request) {
	refs, err := h.svc.Clients.ListClientsByIB(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	out := make([]response.ClientReferral, len(refs))
	for i, ref := range refs {
		out[i] = response.FromClientReferral(ref)
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (h *Handler) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.Catalog.ListGroups(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.FromTradingGroups(groups))
}

func (h *Handler) handleUpsertGroups(w http.ResponseWriter, r *http.Request) {
	var req request.UpsertGroupsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	groups := make([]domain.TradingGroup, len(req.Groups))
	for i, g := range req.Groups {
		groups[i] = domain.TradingGroup{ID: g.ID, Name: g.Name}
	}
	if err := h.svc.Catalog.UpsertGroups(r.Context(), groups); err != nil {
		respondWithError(w, r, err)
		return
	}

	all, err := h.svc.Catalog.ListGroups(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, response.FromTradingGroups(all))
}
