package handler

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"plantao/backend/internal/dto"
	"plantao/backend/internal/service"
	"plantao/backend/pkg/response"
)

// WebhookSecretHeader carries the shared secret of the messaging gateway
const WebhookSecretHeader = "X-Webhook-Secret"

// PostingHandler substitution posting HTTP handler
type PostingHandler struct {
	postingSvc    service.PostingService
	webhookSecret string
}

// NewPostingHandler creates a PostingHandler. An empty webhookSecret disables the reply webhook.
func NewPostingHandler(postingSvc service.PostingService, webhookSecret string) *PostingHandler {
	return &PostingHandler{postingSvc: postingSvc, webhookSecret: webhookSecret}
}

// CreatePosting creates a DRAFT posting
// POST /api/v1/postings
func (h *PostingHandler) CreatePosting(c *gin.Context) {
	var req dto.CreatePostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeBadRequest, "parâmetros inválidos")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	posting, err := h.postingSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, posting)
}

// PublishPosting opens a posting to applications
// POST /api/v1/postings/:id/publish
func (h *PostingHandler) PublishPosting(c *gin.Context) {
	id, ok := pathID(c, "id", "id da vaga")
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	posting, err := h.postingSvc.Publish(c.Request.Context(), id, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, posting)
}

// GetPosting posting detail; counts a view
// GET /api/v1/postings/:id
func (h *PostingHandler) GetPosting(c *gin.Context) {
	id, ok := pathID(c, "id", "id da vaga")
	if !ok {
		return
	}

	posting, err := h.postingSvc.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.postingSvc.RecordView(c.Request.Context(), id)

	response.OK(c, posting)
}

// ListPostings paged listing
// GET /api/v1/postings?status=OPEN&specialty=...&mine=true
func (h *PostingHandler) ListPostings(c *gin.Context) {
	var q dto.ListPostingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, codeBadRequest, "parâmetros inválidos")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.postingSvc.List(c.Request.Context(), &q, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OKPage(c, list, total, q.GetPage(), q.GetPageSize())
}

// ListApplications candidates of a posting, for its owner
// GET /api/v1/postings/:id/applications
func (h *PostingHandler) ListApplications(c *gin.Context) {
	id, ok := pathID(c, "id", "id da vaga")
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	apps, err := h.postingSvc.ListApplications(c.Request.Context(), id, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": apps})
}

// ChooseCandidate picks an application and sends the confirmation request to the clinic
// POST /api/v1/postings/:id/choose
func (h *PostingHandler) ChooseCandidate(c *gin.Context) {
	id, ok := pathID(c, "id", "id da vaga")
	if !ok {
		return
	}
	var req dto.ChooseCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeBadRequest, "application_id é obrigatório")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	posting, err := h.postingSvc.Choose(c.Request.Context(), id, req.ApplicationID, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, posting)
}

// CancelPosting cancels a posting that is not yet confirmed
// POST /api/v1/postings/:id/cancel
func (h *PostingHandler) CancelPosting(c *gin.Context) {
	id, ok := pathID(c, "id", "id da vaga")
	if !ok {
		return
	}
	var req dto.CancelPostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeBadRequest, "informe o motivo do cancelamento")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	posting, err := h.postingSvc.Cancel(c.Request.Context(), id, req.Reason, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, posting)
}

// ConfirmSubstitution the clinic's answer through the deep link. No JWT: the code is the credential.
// POST /api/v1/public/postings/:id/confirm
func (h *PostingHandler) ConfirmSubstitution(c *gin.Context) {
	id, ok := pathID(c, "id", "id da vaga")
	if !ok {
		return
	}
	var req dto.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeBadRequest, "informe o código de 6 dígitos e a resposta")
		return
	}

	result, err := h.postingSvc.Confirm(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// ReplyWebhook inbound WhatsApp reply ("APROVAR 123456") relayed by the messaging gateway
// POST /api/v1/public/webhooks/whatsapp
func (h *PostingHandler) ReplyWebhook(c *gin.Context) {
	secret := c.GetHeader(WebhookSecretHeader)
	if h.webhookSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.webhookSecret)) != 1 {
		response.Unauthorized(c, 10002, "assinatura do webhook inválida")
		return
	}

	var req dto.ReplyWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeBadRequest, "parâmetros inválidos")
		return
	}

	result, err := h.postingSvc.ConfirmByReply(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}
