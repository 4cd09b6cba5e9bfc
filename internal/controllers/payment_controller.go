package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fitforge/internal/apperrors"
	"fitforge/internal/services"
)

// maxWebhookBody bounds what we read from the processor.
const maxWebhookBody = 1 << 20

var errWebhookTooLarge = apperrors.New("PAYLOAD_TOO_LARGE", "Webhook body too large", http.StatusRequestEntityTooLarge)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PaymentController struct {
	payments *services.PaymentService
}

func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

func (h *PaymentController) CreateIntent(c *gin.Context) {
	var input services.IntentInput
	if !bindJSON(c, &input) {
		return
	}
	res, err := h.payments.CreateIntent(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *PaymentController) Book(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var input services.BookingInput
	if !bindJSON(c, &input) {
		return
	}
	payment, err := h.payments.Book(c.Request.Context(), a, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   "Payment processed successfully",
		"paymentId": payment.ID,
		"payment":   payment,
	})
}

func (h *PaymentController) MemberBookings(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	list, err := h.payments.MemberBookings(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *PaymentController) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req services.PageRequest
	if !bindQuery(c, &req) {
		return
	}
	page, err := h.payments.ListPayments(c.Request.Context(), a, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *PaymentController) Balance(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	report, err := h.payments.Balance(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Export streams all payments as a spreadsheet download.
func (h *PaymentController) Export(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.payments.ExportPayments(c.Request.Context(), a, &buf); err != nil {
		respondError(c, err)
		return
	}
	filename := fmt.Sprintf("payments-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Webhook takes the raw body: the signature covers the exact bytes sent.
func (h *PaymentController) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, errWebhookTooLarge)
			return
		}
		respondError(c, apperrors.Validation("Could not read webhook body", nil))
		return
	}
	if err := h.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
