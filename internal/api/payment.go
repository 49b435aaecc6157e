package api

import (
	"io"

	"github.com/gin-gonic/gin"

	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/response"
	"qwiktest/internal/service"
	"qwiktest/internal/types"
)

// maxWebhookBody caps gateway notifications; real ones are a few KB.
const maxWebhookBody = 1 << 20

// Checkout creates a pending payment, or activates a free plan right away.
func Checkout(c *gin.Context) {
	var req types.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := service.Payment.Checkout(c.Request.Context(), c.GetUint("userId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

func GetPayments(c *gin.Context) {
	var q types.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}
	q.Normalize()

	payments, total, err := service.Payment.ListForUser(c.Request.Context(), c.GetUint("userId"), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, payments, total, q.Page, q.Size)
}

func GetPayment(c *gin.Context) {
	p, err := service.Payment.GetForUser(c.Request.Context(), c.GetUint("userId"), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

func GetSubscriptions(c *gin.Context) {
	subs, err := service.Subscription.ListForUser(c.Request.Context(), c.GetUint("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, subs)
}

func readWebhook(c *gin.Context) ([]byte, bool) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil || len(payload) == 0 {
		response.Error(c, apperr.BadRequest("empty webhook payload"))
		return nil, false
	}
	return payload, true
}

// StripeWebhook verifies Stripe-Signature over the raw body before anything
// is decoded.
func StripeWebhook(c *gin.Context) {
	payload, ok := readWebhook(c)
	if !ok {
		return
	}
	if err := service.Payment.HandleStripe(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "received")
}

func RazorpayWebhook(c *gin.Context) {
	payload, ok := readWebhook(c)
	if !ok {
		return
	}
	if err := service.Payment.HandleRazorpay(c.Request.Context(), payload, c.GetHeader("X-Razorpay-Signature")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "received")
}
