// Package payment implements the Alipay reconciliation subsystem: the
// gateway client, the notification verifier, the reconciliation engine and
// the scheduled poller that backstops missed webhooks.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/Haoran-716/MallSphere/utils"
	alipay "github.com/smartwalle/alipay/v3"
)

var (
	// ErrMissingCredentials is returned when the gateway is used without
	// app id or key material configured.
	ErrMissingCredentials = errors.New("payment: missing alipay credentials")
)

// Config carries the gateway credentials and tuning knobs.
type Config struct {
	AppID      string
	PrivateKey string
	PublicKey  string // alipay public key, used for notification verification
	NotifyURL  string
	Production bool
	Timeout    time.Duration
}

// Passback is the opaque application data attached to a trade request and
// echoed back in the asynchronous notification. A non-zero Charge marks a
// wallet recharge order.
type Passback struct {
	Username  string  `json:"username"`
	ProductID string  `json:"productId"`
	Quantity  int     `json:"sumbuy"`
	Charge    float64 `json:"charge,omitempty"`
	OrderNo   string  `json:"outTradeNo"`
}

// TradeQueryResult is the normalized answer of a gateway trade query.
// Definitive is false when the gateway answered with a business failure
// code; callers must treat that as "no status", not as non-payment.
type TradeQueryResult struct {
	Code        string
	Definitive  bool
	TradeStatus string
	TradeNo     string
	PaidAt      *time.Time
}

// Gateway trade statuses the reconciliation engine understands.
const (
	TradeStatusWaitBuyerPay = "WAIT_BUYER_PAY"
	TradeStatusSuccess      = "TRADE_SUCCESS"
	TradeStatusFinished     = "TRADE_FINISHED"
	TradeStatusClosed       = "TRADE_CLOSED"
)

const gatewaySuccessCode = "10000"

// Client wraps the Alipay SDK. A client built from an empty Config is
// valid but returns ErrMissingCredentials on every gateway operation, so
// the rest of the app can boot without gateway credentials.
type Client struct {
	app *alipay.Client
	cfg Config
}

// NewClient builds a gateway client. Key material is validated eagerly;
// missing credentials are not an error until the client is used.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	c := &Client{cfg: cfg}
	if cfg.AppID == "" || cfg.PrivateKey == "" {
		return c, nil
	}

	app, err := alipay.New(cfg.AppID, cfg.PrivateKey, cfg.Production)
	if err != nil {
		return nil, err
	}
	if cfg.PublicKey != "" {
		if err := app.LoadAliPayPublicKey(cfg.PublicKey); err != nil {
			return nil, err
		}
	}
	c.app = app
	return c, nil
}

// AppID returns the configured gateway application id.
func (c *Client) AppID() string { return c.cfg.AppID }

// PublicKey returns the gateway public key used for manual verification.
func (c *Client) PublicKey() string { return c.cfg.PublicKey }

// Configured reports whether gateway calls can be made.
func (c *Client) Configured() bool { return c.app != nil }

// CreateTradeRequest builds the signed alipay.trade.app.pay payload the
// client app uses to open the pay flow. No local side effects.
func (c *Client) CreateTradeRequest(orderNo string, amount float64, subject string, passback Passback) (string, error) {
	if c.app == nil {
		return "", ErrMissingCredentials
	}

	param := alipay.TradeAppPay{
		Trade: alipay.Trade{
			OutTradeNo:     orderNo,
			TotalAmount:    utils.FormatAmount(amount),
			Subject:        subject,
			NotifyURL:      c.cfg.NotifyURL,
			PassbackParams: EncodePassback(passback),
		},
	}

	payload, err := c.app.TradeAppPay(param)
	if err != nil {
		return "", err
	}
	return payload, nil
}

// QueryTrade performs a synchronous trade query by merchant order number.
// Transport errors (including the client-side timeout) surface as errors;
// a gateway business failure comes back as a non-definitive result.
func (c *Client) QueryTrade(ctx context.Context, orderNo string) (*TradeQueryResult, error) {
	if c.app == nil {
		return nil, ErrMissingCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	rsp, err := c.app.TradeQuery(ctx, alipay.TradeQuery{OutTradeNo: orderNo})
	if err != nil {
		return nil, err
	}

	result := &TradeQueryResult{Code: string(rsp.Code)}
	if result.Code != gatewaySuccessCode {
		utils.LogDebug("Trade query for %s not definitive: code=%s sub_msg=%s", orderNo, rsp.Code, rsp.SubMsg)
		return result, nil
	}

	result.Definitive = true
	result.TradeStatus = string(rsp.TradeStatus)
	result.TradeNo = rsp.TradeNo
	result.PaidAt = ParseGatewayTime(rsp.SendPayDate)
	return result, nil
}

// SDKVerify runs the SDK's own notification verification. Used as the
// fallback strategy after manual verification.
func (c *Client) SDKVerify(values url.Values) bool {
	if c.app == nil {
		return false
	}
	_, err := c.app.DecodeNotification(values)
	return err == nil
}

// EncodePassback serializes passback data the way it is attached to a
// trade request: JSON, then URL-encoded.
func EncodePassback(p Passback) string {
	raw, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return url.QueryEscape(string(raw))
}

// DecodePassback parses passback data echoed back by the gateway. The
// value may arrive URL-encoded once more than it was sent, so decoding is
// tried both ways.
func DecodePassback(raw string) (Passback, bool) {
	if raw == "" {
		return Passback{}, false
	}
	var p Passback
	if unescaped, err := url.QueryUnescape(raw); err == nil {
		if err := json.Unmarshal([]byte(unescaped), &p); err == nil {
			return p, true
		}
	}
	if err := json.Unmarshal([]byte(raw), &p); err == nil {
		return p, true
	}
	return Passback{}, false
}

// ParseGatewayTime parses the gateway's "2006-01-02 15:04:05" timestamps
// (send_pay_date, gmt_payment). Returns nil when absent or malformed.
func ParseGatewayTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05", value, time.Local)
	if err != nil {
		return nil
	}
	return &t
}
