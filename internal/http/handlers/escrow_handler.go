package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/http/handlers/common"
	"github.com/ignatzorin/beatmarket-backend/internal/usecase/escrow"
)

// EscrowHandler защищённые сделки покупателя и админские release/refund.
type EscrowHandler struct {
	create     *escrow.CreateEscrowUseCase
	get        *escrow.GetEscrowUseCase
	list       *escrow.ListEscrowsUseCase
	transition *escrow.TransitionEscrowUseCase
}

func NewEscrowHandler(deps escrow.Deps) *EscrowHandler {
	return &EscrowHandler{
		create:     escrow.NewCreateEscrowUseCase(deps),
		get:        escrow.NewGetEscrowUseCase(deps),
		list:       escrow.NewListEscrowsUseCase(deps),
		transition: escrow.NewTransitionEscrowUseCase(deps),
	}
}

type createEscrowRequest struct {
	PurchaseID        uuid.UUID                 `json:"purchase_id" binding:"required"`
	SellerID          uuid.UUID                 `json:"seller_id" binding:"required"`
	Amount            string                    `json:"amount" binding:"required"`
	ReleaseConditions *entity.ReleaseConditions `json:"release_conditions"`
}

// Create POST /api/escrow. Покупатель это текущий аккаунт.
func (h *EscrowHandler) Create(c *gin.Context) {
	buyerID, err := common.CurrentAccountID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req createEscrowRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	// сумма строкой, чтобы не терять точность на float64
	amount, err := valueobject.NewAmount(req.Amount)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	created, err := h.create.Execute(c.Request.Context(), escrow.CreateEscrowInput{
		PurchaseID:        req.PurchaseID,
		BuyerID:           buyerID,
		SellerID:          req.SellerID,
		Amount:            amount,
		ReleaseConditions: req.ReleaseConditions,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// List GET /api/escrow?status=
func (h *EscrowHandler) List(c *gin.Context) {
	accountID, err := common.CurrentAccountID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	items, err := h.list.Execute(c.Request.Context(), accountID, c.Query("status"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"escrows": items})
}

// Get GET /api/escrow/:id. Видят только участники сделки и админ.
func (h *EscrowHandler) Get(c *gin.Context) {
	accountID, err := common.CurrentAccountID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	escrowID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	item, err := h.get.Execute(c.Request.Context(), escrowID, accountID, common.IsAdmin(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Release POST /api/escrow/:id/release
func (h *EscrowHandler) Release(c *gin.Context) {
	h.apply(c, valueobject.EscrowActionRelease, escrow.ActorBuyer)
}

// Refund POST /api/escrow/:id/refund
func (h *EscrowHandler) Refund(c *gin.Context) {
	h.apply(c, valueobject.EscrowActionRefund, escrow.ActorBuyer)
}

// AdminRelease POST /api/admin/escrow/:id/release
func (h *EscrowHandler) AdminRelease(c *gin.Context) {
	h.apply(c, valueobject.EscrowActionRelease, escrow.ActorAdmin)
}

// AdminRefund POST /api/admin/escrow/:id/refund
func (h *EscrowHandler) AdminRefund(c *gin.Context) {
	h.apply(c, valueobject.EscrowActionRefund, escrow.ActorAdmin)
}

func (h *EscrowHandler) apply(c *gin.Context, action valueobject.EscrowAction, kind escrow.ActorKind) {
	accountID, err := common.CurrentAccountID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	escrowID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	updated, err := h.transition.Execute(c.Request.Context(), escrow.TransitionInput{
		EscrowID: escrowID,
		Action:   action,
		Actor:    escrow.Actor{Kind: kind, AccountID: accountID},
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
