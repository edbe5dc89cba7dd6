package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/beatmarket-backend/internal/http/handlers/common"
	"github.com/ignatzorin/beatmarket-backend/internal/logger"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/beatmarket-backend/internal/storage"
	"github.com/ignatzorin/beatmarket-backend/internal/usecase/verification"
)

// VerificationHandler заявки на PRO-верификацию и статус доверия.
type VerificationHandler struct {
	submit      *verification.SubmitRequestUseCase
	status      *verification.GetStatusUseCase
	recalculate *verification.RecalculateTrustUseCase
	documents   *storage.EvidenceStorage
	log         logrus.FieldLogger
}

func NewVerificationHandler(deps verification.Deps, documents *storage.EvidenceStorage) *VerificationHandler {
	return &VerificationHandler{
		submit:      verification.NewSubmitRequestUseCase(deps),
		status:      verification.NewGetStatusUseCase(deps),
		recalculate: verification.NewRecalculateTrustUseCase(deps),
		documents:   documents,
		log:         logger.OrDefault(deps.Log),
	}
}

// SubmitProRequest POST /api/verification/pro-requests
// multipart: pro_type, member_number, document
func (h *VerificationHandler) SubmitProRequest(c *gin.Context) {
	accountID, err := common.CurrentAccountID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	// запас на остальные поля формы
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.documents.MaxUploadBytes()+64<<10)

	fileHeader, err := c.FormFile("document")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.RespondAppError(c, apperror.Validation("файл превышает допустимый размер"))
			return
		}
		common.RespondAppError(c, apperror.Validation("документ обязателен"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.RespondAppError(c, apperror.Wrap(err, apperror.ErrCodeBadRequest, "не удалось прочитать документ"))
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	doc, err := h.documents.Save(ctx, accountID, file)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	req, err := h.submit.Execute(ctx, verification.SubmitRequestInput{
		AccountID:    accountID,
		ProType:      c.PostForm("pro_type"),
		MemberNumber: c.PostForm("member_number"),
		EvidenceRef:  doc.Ref,
		DocumentType: doc.MIMEType,
	})
	if err != nil {
		// заявка не создана, документ больше никому не нужен
		if delErr := h.documents.Delete(ctx, doc.Ref); delErr != nil {
			h.log.WithField("ref", doc.Ref).WithError(delErr).Warn("не удалось удалить документ отклонённой заявки")
		}
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, req)
}

// GetStatus GET /api/accounts/:id/verification
func (h *VerificationHandler) GetStatus(c *gin.Context) {
	accountID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	status, err := h.status.Execute(c.Request.Context(), accountID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Recalculate POST /api/verification/recalculate
func (h *VerificationHandler) Recalculate(c *gin.Context) {
	accountID, err := common.CurrentAccountID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	status, err := h.recalculate.Execute(c.Request.Context(), accountID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
