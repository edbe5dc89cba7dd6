package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/beatmarket-backend/internal/http/handlers/common"
	"github.com/ignatzorin/beatmarket-backend/internal/http/middleware"
	"github.com/ignatzorin/beatmarket-backend/internal/usecase/dispute"
)

// DisputeHandler споры участников и их разбор админом.
type DisputeHandler struct {
	create      *dispute.CreateDisputeUseCase
	get         *dispute.GetDisputeUseCase
	listMine    *dispute.ListAccountDisputesUseCase
	listAll     *dispute.ListDisputesUseCase
	startReview *dispute.StartReviewUseCase
	resolve     *dispute.ResolveDisputeUseCase
	closeCase   *dispute.CloseDisputeUseCase
}

func NewDisputeHandler(deps dispute.Deps) *DisputeHandler {
	return &DisputeHandler{
		create:      dispute.NewCreateDisputeUseCase(deps),
		get:         dispute.NewGetDisputeUseCase(deps),
		listMine:    dispute.NewListAccountDisputesUseCase(deps),
		listAll:     dispute.NewListDisputesUseCase(deps),
		startReview: dispute.NewStartReviewUseCase(deps),
		resolve:     dispute.NewResolveDisputeUseCase(deps),
		closeCase:   dispute.NewCloseDisputeUseCase(deps),
	}
}

// Create POST /api/disputes. Заявитель это текущий аккаунт.
func (h *DisputeHandler) Create(c *gin.Context) {
	complainantID, err := common.CurrentAccountID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req struct {
		PurchaseID   uuid.UUID `json:"purchase_id" binding:"required"`
		RespondentID uuid.UUID `json:"respondent_id" binding:"required"`
		DisputeType  string    `json:"dispute_type" binding:"required"`
		Description  string    `json:"description" binding:"required"`
		Evidence     *string   `json:"evidence"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	created, err := h.create.Execute(c.Request.Context(), dispute.CreateDisputeInput{
		PurchaseID:    req.PurchaseID,
		ComplainantID: complainantID,
		RespondentID:  req.RespondentID,
		DisputeType:   req.DisputeType,
		Description:   req.Description,
		Evidence:      req.Evidence,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListMine GET /api/disputes
func (h *DisputeHandler) ListMine(c *gin.Context) {
	accountID, err := common.CurrentAccountID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	items, err := h.listMine.Execute(c.Request.Context(), accountID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"disputes": items})
}

// Get GET /api/disputes/:id
func (h *DisputeHandler) Get(c *gin.Context) {
	accountID, err := common.CurrentAccountID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	item, err := h.get.Execute(c.Request.Context(), disputeID, accountID, common.IsAdmin(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// AdminList GET /api/admin/disputes?status=&type=
func (h *DisputeHandler) AdminList(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	items, err := h.listAll.Execute(c.Request.Context(), dispute.ListFilterInput{
		Status:      c.Query("status"),
		DisputeType: c.Query("type"),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"disputes": items, "limit": limit, "offset": offset})
}

// StartReview POST /api/admin/disputes/:id/review
func (h *DisputeHandler) StartReview(c *gin.Context) {
	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	updated, err := h.startReview.Execute(c.Request.Context(), disputeID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Resolve POST /api/admin/disputes/:id/resolve
// outcome: none, buyer (возврат покупателю) или seller (освобождение продавцу).
func (h *DisputeHandler) Resolve(c *gin.Context) {
	adminID, err := common.CurrentAccountID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req struct {
		Resolution string `json:"resolution" binding:"required"`
		Outcome    string `json:"outcome"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	result, err := h.resolve.Execute(c.Request.Context(), dispute.ResolveInput{
		DisputeID:  disputeID,
		Resolution: req.Resolution,
		ResolvedBy: adminID,
		Outcome:    req.Outcome,
	})
	if err != nil && result == nil {
		common.RespondAppError(c, err)
		return
	}
	if err != nil {
		// спор уже разрешён, escrow нужно довести вручную
		_ = c.Error(err)
		_, body := middleware.ErrorResponse(err)
		c.JSON(http.StatusOK, gin.H{"result": result, "escrow_error": body})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// Close POST /api/admin/disputes/:id/close
func (h *DisputeHandler) Close(c *gin.Context) {
	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	updated, err := h.closeCase.Execute(c.Request.Context(), disputeID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
