package httptransport

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"job-ledger/internal/entity"
	"job-ledger/internal/ledger"
	"job-ledger/internal/metrics"
	"job-ledger/internal/service"
)

type Handler struct {
	ledger   *service.JobService
	commands *service.CommandService
	metrics  *metrics.Metrics
}

// NewHandler wires the HTTP surface. commands and m may be nil: the async
// routes then answer 503 and /metrics is not mounted.
func NewHandler(ledgerSvc *service.JobService, commands *service.CommandService, m *metrics.Metrics) *Handler {
	return &Handler{ledger: ledgerSvc, commands: commands, metrics: m}
}

type createJobDTO struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Budget      entity.Amount `json:"budget" swaggertype:"string" example:"100"`
}

type createJobResp struct {
	JobID      uint64             `json:"job_id"`
	Attributes []entity.Attribute `json:"attributes"`
}

type submitProposalDTO struct {
	BidAmount   entity.Amount `json:"bid_amount" swaggertype:"string" example:"80"`
	CoverLetter string        `json:"cover_letter"`
}

type acceptProposalDTO struct {
	Freelancer string `json:"freelancer"`
}

// jobListEntry is one row of GET /jobs; the id is the listing's, not the job's.
type jobListEntry struct {
	ID uint64 `json:"id"`
	entity.Job
}

type submitCommandResp struct {
	ID string `json:"id"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Message: "invalid json: " + err.Error(), Kind: ledger.KindInvalidInput})
		return false
	}
	return true
}

func jobIDParam(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// Health godoc
// @Summary Liveness, including the store
// @Tags system
// @Success 200 {string} string "ok"
// @Failure 503 {object} apiError
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Ping(r.Context()); err != nil {
		writeErr(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	_, _ = w.Write([]byte("ok"))
}

// Instantiate godoc
// @Summary Initialize the ledger
// @Description Sets the job counter to zero. Fails with 409 once the ledger exists.
// @Tags ledger
// @Accept json
// @Produce json
// @Param X-Sender header string true "caller identity"
// @Param request body ledger.InstantiateMsg true "instantiate message"
// @Success 200 {object} attributesResp
// @Failure 409 {object} apiError
// @Router /instantiate [post]
func (h *Handler) Instantiate(w http.ResponseWriter, r *http.Request) {
	var msg ledger.InstantiateMsg
	if !decode(w, r, &msg) {
		return
	}
	resp, err := h.ledger.Instantiate(r.Context(), senderFrom(r.Context()), msg)
	if err != nil {
		writeLedgerErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attributesResp{Attributes: resp.Attributes})
}

// Execute godoc
// @Summary Apply an execute message
// @Description Body is externally tagged, e.g. {"PostJob":{"title":"...","description":"...","budget":"100"}}.
// @Tags ledger
// @Accept json
// @Produce json
// @Param X-Sender header string true "caller identity"
// @Param request body ledger.ExecuteMsg true "exactly one variant"
// @Success 200 {object} attributesResp
// @Failure 400 {object} apiError
// @Failure 403 {object} apiError
// @Failure 404 {object} apiError
// @Router /execute [post]
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	var msg ledger.ExecuteMsg
	if !decode(w, r, &msg) {
		return
	}
	h.execute(w, r, msg)
}

func (h *Handler) execute(w http.ResponseWriter, r *http.Request, msg ledger.ExecuteMsg) {
	resp, err := h.ledger.Execute(r.Context(), senderFrom(r.Context()), msg)
	if err != nil {
		writeLedgerErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attributesResp{Attributes: resp.Attributes})
}

// Query godoc
// @Summary Answer a query message
// @Description Body is externally tagged: {"GetJobDetails":{"job_id":0}} or {"GetJobProposals":{"job_id":0}}.
// @Tags ledger
// @Accept json
// @Produce json
// @Param request body ledger.QueryMsg true "exactly one variant"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} apiError
// @Failure 404 {object} apiError
// @Router /query [post]
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var msg ledger.QueryMsg
	if !decode(w, r, &msg) {
		return
	}
	out, err := h.ledger.Query(r.Context(), msg)
	if err != nil {
		writeLedgerErr(w, r, err)
		return
	}
	writeRawJSON(w, http.StatusOK, out)
}

// ListJobs godoc
// @Summary List all jobs in id order
// @Tags jobs
// @Produce json
// @Success 200 {array} jobListEntry
// @Router /jobs [get]
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.ListJobs(r.Context())
	if err != nil {
		writeLedgerErr(w, r, err)
		return
	}
	out := make([]jobListEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, jobListEntry{ID: e.ID, Job: e.Job})
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateJob godoc
// @Summary Post a job
// @Description Creates an Open job owned by the sender.
// @Tags jobs
// @Accept json
// @Produce json
// @Param X-Sender header string true "caller identity"
// @Param request body createJobDTO true "job payload"
// @Success 201 {object} createJobResp
// @Failure 400 {object} apiError
// @Router /jobs [post]
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var dto createJobDTO
	if !decode(w, r, &dto) {
		return
	}

	id, resp, err := h.ledger.PostJob(r.Context(), senderFrom(r.Context()), ledger.PostJob{
		Title:       dto.Title,
		Description: dto.Description,
		Budget:      dto.Budget,
	})
	if err != nil {
		writeLedgerErr(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createJobResp{JobID: id, Attributes: resp.Attributes})
}

// GetJob godoc
// @Summary Get job by id
// @Tags jobs
// @Produce json
// @Param id path int true "job id"
// @Success 200 {object} entity.Job
// @Failure 400 {object} apiError
// @Failure 404 {object} apiError
// @Router /jobs/{id} [get]
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDParam(w, r)
	if !ok {
		return
	}
	job, err := h.ledger.GetJob(r.Context(), id)
	if err != nil {
		writeLedgerErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// GetProposals godoc
// @Summary List a job's proposals in submission order
// @Description An unknown job yields an empty list.
// @Tags jobs
// @Produce json
// @Param id path int true "job id"
// @Success 200 {array} entity.Proposal
// @Router /jobs/{id}/proposals [get]
func (h *Handler) GetProposals(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDParam(w, r)
	if !ok {
		return
	}
	proposals, err := h.ledger.GetProposals(r.Context(), id)
	if err != nil {
		writeLedgerErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proposals)
}

// SubmitProposal godoc
// @Summary Bid on an Open job
// @Tags jobs
// @Accept json
// @Produce json
// @Param X-Sender header string true "caller identity"
// @Param id path int true "job id"
// @Param request body submitProposalDTO true "proposal"
// @Success 200 {object} attributesResp
// @Failure 400 {object} apiError
// @Failure 404 {object} apiError
// @Router /jobs/{id}/proposals [post]
func (h *Handler) SubmitProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDParam(w, r)
	if !ok {
		return
	}
	var dto submitProposalDTO
	if !decode(w, r, &dto) {
		return
	}
	h.execute(w, r, ledger.ExecuteMsg{SubmitProposal: &ledger.SubmitProposal{
		JobID:       id,
		BidAmount:   dto.BidAmount,
		CoverLetter: dto.CoverLetter,
	}})
}

// AcceptProposal godoc
// @Summary Assign a freelancer to an Open job
// @Description Poster only. The freelancer does not have to have bid.
// @Tags jobs
// @Accept json
// @Produce json
// @Param X-Sender header string true "caller identity"
// @Param id path int true "job id"
// @Param request body acceptProposalDTO true "freelancer to assign"
// @Success 200 {object} attributesResp
// @Failure 400 {object} apiError
// @Failure 403 {object} apiError
// @Failure 404 {object} apiError
// @Router /jobs/{id}/accept [post]
func (h *Handler) AcceptProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDParam(w, r)
	if !ok {
		return
	}
	var dto acceptProposalDTO
	if !decode(w, r, &dto) {
		return
	}
	h.execute(w, r, ledger.ExecuteMsg{AcceptProposal: &ledger.AcceptProposal{
		JobID:      id,
		Freelancer: dto.Freelancer,
	}})
}

// CompleteJob godoc
// @Summary Mark an InProgress job Completed
// @Description Assigned freelancer only.
// @Tags jobs
// @Produce json
// @Param X-Sender header string true "caller identity"
// @Param id path int true "job id"
// @Success 200 {object} attributesResp
// @Failure 400 {object} apiError
// @Failure 403 {object} apiError
// @Failure 404 {object} apiError
// @Router /jobs/{id}/complete [post]
func (h *Handler) CompleteJob(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDParam(w, r)
	if !ok {
		return
	}
	h.execute(w, r, ledger.ExecuteMsg{CompleteJob: &ledger.CompleteJob{JobID: id}})
}

// SubmitCommand godoc
// @Summary Queue an execute message
// @Description Stores the command (pending) and enqueues it for the worker.
// @Tags commands
// @Accept json
// @Produce json
// @Param X-Sender header string true "caller identity"
// @Param request body ledger.ExecuteMsg true "exactly one variant"
// @Success 202 {object} submitCommandResp
// @Failure 400 {object} apiError
// @Failure 503 {object} apiError
// @Router /commands [post]
func (h *Handler) SubmitCommand(w http.ResponseWriter, r *http.Request) {
	if h.commands == nil {
		writeErr(w, http.StatusServiceUnavailable, "async commands are disabled")
		return
	}
	var msg ledger.ExecuteMsg
	if !decode(w, r, &msg) {
		return
	}
	id, err := h.commands.Submit(r.Context(), senderFrom(r.Context()), msg)
	if err != nil {
		writeLedgerErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, submitCommandResp{ID: id.String()})
}

// GetCommand godoc
// @Summary Get a queued command and its outcome
// @Tags commands
// @Produce json
// @Param id path string true "command id (uuid)"
// @Success 200 {object} entity.Command
// @Failure 400 {object} apiError
// @Failure 404 {object} apiError
// @Failure 503 {object} apiError
// @Router /commands/{id} [get]
func (h *Handler) GetCommand(w http.ResponseWriter, r *http.Request) {
	if h.commands == nil {
		writeErr(w, http.StatusServiceUnavailable, "async commands are disabled")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}
	cmd, err := h.commands.GetCommand(r.Context(), id)
	if err != nil {
		writeLedgerErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cmd)
}
