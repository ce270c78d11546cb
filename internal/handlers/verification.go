package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/trustreach/verifyd/internal/audit"
	"github.com/trustreach/verifyd/internal/notify"
	"github.com/trustreach/verifyd/internal/verification"
	appErrors "github.com/trustreach/verifyd/pkg/errors"
	"github.com/trustreach/verifyd/pkg/logger"
	"github.com/trustreach/verifyd/pkg/metrics"
	"github.com/trustreach/verifyd/pkg/response"
)

// VerificationHandler exposes the OTP issuance and validation endpoints.
type VerificationHandler struct {
	verifier *verification.Service
	notifier notify.Notifier
	audit    *audit.Service
	log      *zap.Logger

	// exposeCode echoes the issued code in the API response. Only ever
	// enabled in development mode.
	exposeCode bool
}

// HandlerOption customises a VerificationHandler.
type HandlerOption func(*VerificationHandler)

// WithAudit records verification events to the audit trail.
func WithAudit(svc *audit.Service) HandlerOption {
	return func(h *VerificationHandler) {
		h.audit = svc
	}
}

// WithExposedCodes includes the generated code in issuance responses so
// local clients can complete the flow without a mailbox.
func WithExposedCodes() HandlerOption {
	return func(h *VerificationHandler) {
		h.exposeCode = true
	}
}

// NewVerificationHandler wires the verification service and notifier into
// HTTP handlers.
func NewVerificationHandler(verifier *verification.Service, notifier notify.Notifier, opts ...HandlerOption) *VerificationHandler {
	h := &VerificationHandler{
		verifier: verifier,
		notifier: notifier,
		log:      logger.WithModule("handlers.verification"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type requestOTPPayload struct {
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,phone"`
}

type verifyOTPPayload struct {
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,phone"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

// Request handles POST /api/verification/request. It issues a fresh code for
// the email and phone pair and dispatches it to the email address. A repeat
// request replaces any outstanding code for the same pair.
func (h *VerificationHandler) Request(c *gin.Context) {
	var payload requestOTPPayload
	if !bindAndValidate(c, &payload) {
		return
	}

	ctx := c.Request.Context()

	code, err := h.verifier.Issue(ctx, payload.Email, payload.Phone)
	if err != nil {
		h.log.Error("issue code", zap.Error(err))
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	metrics.CodesIssued.Inc()
	h.recordEvent(c, audit.EventCodeIssued, payload, "issued", nil)

	htmlBody, textBody := notify.OTPEmail(code, h.verifier.CodeTTL())
	err = h.notifier.Send(ctx, notify.Message{
		To:       payload.Email,
		Subject:  notify.OTPSubject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
	if err != nil {
		// The record stays issued; the client may retry delivery by
		// requesting again, which replaces the code.
		metrics.Deliveries.WithLabelValues("failure").Inc()
		h.log.Error("deliver code", zap.Error(err), zap.String("recipient", payload.Email))
		h.recordEvent(c, audit.EventDeliveryFailed, payload, "failure", map[string]any{
			"reason": err.Error(),
		})
		response.Error(c, appErrors.ErrDeliveryFailed)
		return
	}

	metrics.Deliveries.WithLabelValues("success").Inc()

	data := gin.H{
		"expires_in_seconds": int(h.verifier.CodeTTL().Seconds()),
	}
	if h.exposeCode {
		data["code"] = code
	}

	response.SuccessWithMessage(c, http.StatusOK, "OTP sent to your email address.", data)
}

// Verify handles POST /api/verification/verify. It checks the submitted code
// against the outstanding record for the email and phone pair.
func (h *VerificationHandler) Verify(c *gin.Context) {
	var payload verifyOTPPayload
	if !bindAndValidate(c, &payload) {
		return
	}

	status, err := h.verifier.Validate(c.Request.Context(), payload.Email, payload.Phone, payload.OTP)
	if err != nil {
		h.log.Error("validate code", zap.Error(err))
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	metrics.Validations.WithLabelValues(status.String()).Inc()
	h.recordEvent(c, audit.EventCodeValidated, requestOTPPayload{Email: payload.Email, Phone: payload.Phone}, status.String(), nil)

	if status == verification.StatusValid {
		response.SuccessWithMessage(c, http.StatusOK, status.Message(), nil)
		return
	}

	response.Error(c, statusError(status))
}

// statusError maps a non-valid outcome to its canonical API error.
func statusError(status verification.Status) *appErrors.AppError {
	switch status {
	case verification.StatusExpired:
		return appErrors.ErrOTPExpired
	case verification.StatusLocked:
		return appErrors.ErrOTPLocked
	case verification.StatusMismatch:
		return appErrors.ErrOTPMismatch
	default:
		return appErrors.ErrOTPNotFound
	}
}

func (h *VerificationHandler) recordEvent(c *gin.Context, event string, payload requestOTPPayload, result string, metadata map[string]any) {
	if h.audit == nil {
		return
	}

	err := h.audit.Log(c.Request.Context(), audit.Entry{
		Event:     event,
		Email:     verification.NormalizeEmail(payload.Email),
		Phone:     verification.NormalizePhone(payload.Phone),
		Result:    result,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Metadata:  metadata,
	})
	if err != nil {
		h.log.Warn("record audit event", zap.String("event", event), zap.Error(err))
	}
}
