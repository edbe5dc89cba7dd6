package handlers

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/beatmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/http/handlers/common"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/beatmarket-backend/internal/storage"
	"github.com/ignatzorin/beatmarket-backend/internal/usecase/verification"
)

// AdminHandler модерация заявок на верификацию и ручная правка доверия.
type AdminHandler struct {
	listRequests  *verification.ListRequestsUseCase
	getRequest    *verification.GetRequestUseCase
	approve       *verification.ApproveRequestUseCase
	reject        *verification.RejectRequestUseCase
	override      *verification.AdminOverrideTrustUseCase
	listOverrides *verification.ListOverridesUseCase
	documents     *storage.EvidenceStorage
}

func NewAdminHandler(deps verification.Deps, documents *storage.EvidenceStorage) *AdminHandler {
	return &AdminHandler{
		listRequests:  verification.NewListRequestsUseCase(deps),
		getRequest:    verification.NewGetRequestUseCase(deps),
		approve:       verification.NewApproveRequestUseCase(deps),
		reject:        verification.NewRejectRequestUseCase(deps),
		override:      verification.NewAdminOverrideTrustUseCase(deps),
		listOverrides: verification.NewListOverridesUseCase(deps),
		documents:     documents,
	}
}

// ListRequests GET /api/admin/verification/pro-requests?status=
func (h *AdminHandler) ListRequests(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	items, err := h.listRequests.Execute(c.Request.Context(), repository.VerificationRequestFilter{
		Status: valueobject.VerificationRequestStatus(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": items, "limit": limit, "offset": offset})
}

type reviewRequest struct {
	Notes string `json:"notes"`
}

// Approve POST /api/admin/verification/pro-requests/:id/approve
func (h *AdminHandler) Approve(c *gin.Context) {
	adminID, err := common.CurrentAccountID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	// тело необязательно
	var req reviewRequest
	if c.Request.ContentLength > 0 {
		if err := common.BindJSON(c, &req); err != nil {
			common.RespondAppError(c, err)
			return
		}
	}

	result, err := h.approve.Execute(c.Request.Context(), requestID, adminID, req.Notes)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Reject POST /api/admin/verification/pro-requests/:id/reject
func (h *AdminHandler) Reject(c *gin.Context) {
	adminID, err := common.CurrentAccountID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req reviewRequest
	if c.Request.ContentLength > 0 {
		if err := common.BindJSON(c, &req); err != nil {
			common.RespondAppError(c, err)
			return
		}
	}

	rejected, err := h.reject.Execute(c.Request.Context(), requestID, adminID, req.Notes)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, rejected)
}

// Document GET /api/admin/verification/pro-requests/:id/document
func (h *AdminHandler) Document(c *gin.Context) {
	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	ctx := c.Request.Context()
	req, err := h.getRequest.Execute(ctx, requestID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	if req.EvidenceDocumentRef == "" {
		common.RespondAppError(c, apperror.NotFound("к заявке не приложен документ"))
		return
	}

	f, err := h.documents.Open(ctx, req.EvidenceDocumentRef)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		common.RespondAppError(c, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось прочитать документ"))
		return
	}

	contentType := req.DocumentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", `attachment; filename="`+path.Base(req.EvidenceDocumentRef)+`"`)
	c.DataFromReader(http.StatusOK, info.Size(), contentType, f, nil)
}

// OverrideTrust PUT /api/admin/accounts/:id/trust
// Ручная правка балла и бейджа, каждая правка пишется в журнал.
func (h *AdminHandler) OverrideTrust(c *gin.Context) {
	adminID, err := common.CurrentAccountID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	accountID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req struct {
		TrustScore        *int   `json:"trust_score" binding:"required"`
		VerificationBadge string `json:"verification_badge" binding:"required"`
		Reason            string `json:"reason" binding:"required"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	account, audit, err := h.override.Execute(c.Request.Context(), verification.AdminOverrideInput{
		AccountID: accountID,
		AdminID:   adminID,
		Score:     *req.TrustScore,
		Badge:     req.VerificationBadge,
		Reason:    req.Reason,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "override": audit})
}

// ListOverrides GET /api/admin/accounts/:id/trust/overrides
func (h *AdminHandler) ListOverrides(c *gin.Context) {
	accountID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	items, err := h.listOverrides.Execute(c.Request.Context(), accountID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"overrides": items})
}
