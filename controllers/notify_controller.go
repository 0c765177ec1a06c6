package controllers

import (
	"errors"
	"strconv"

	"github.com/Haoran-716/MallSphere/payment"
	"github.com/Haoran-716/MallSphere/utils"
	"github.com/gin-gonic/gin"
)

// AlipayNotify handles the gateway's asynchronous trade notification. The
// gateway retries until it reads the literal body "success", so the reply
// is plain text, never the JSON envelope the rest of the API uses.
func AlipayNotify(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		utils.LogError("Alipay notify: malformed form body: %v", err)
		c.String(400, "fail")
		return
	}
	values := c.Request.PostForm

	orderNo := values.Get("out_trade_no")
	tradeStatus := values.Get("trade_status")
	utils.LogInfo("Alipay notify received: order=%s trade_status=%s trade_no=%s",
		orderNo, tradeStatus, values.Get("trade_no"))

	if payVerifier == nil || !payVerifier.Verify(values) {
		utils.LogError("Alipay notify rejected: signature verification failed for order %s", orderNo)
		c.String(400, "fail")
		return
	}

	notice := payment.Notice{
		TradeNo: values.Get("trade_no"),
		PaidAt:  payment.ParseGatewayTime(values.Get("gmt_payment")),
	}
	if raw := values.Get("total_amount"); raw != "" {
		if amount, err := strconv.ParseFloat(raw, 64); err == nil {
			notice.Amount = amount
		}
	}

	outcome, err := payEngine.Apply(orderNo, tradeStatus, notice)
	if err != nil {
		if errors.Is(err, payment.ErrOrderNotFound) {
			utils.LogError("Alipay notify: no order with number %s", orderNo)
			c.String(400, "fail")
			return
		}
		utils.LogError("Alipay notify: reconciliation of order %s failed: %v", orderNo, err)
		c.String(500, "fail")
		return
	}

	if outcome.Changed {
		utils.LogInfo("Alipay notify: order %s moved %d -> %d", orderNo, outcome.PreviousStatus, outcome.Status)
	}
	// Acknowledge ignored and already-final statuses too, or the gateway
	// keeps retrying a notification we will never act on.
	c.String(200, "success")
}
