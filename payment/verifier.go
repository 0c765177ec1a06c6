package payment

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"net/url"
	"sort"
	"strings"

	"github.com/Haoran-716/MallSphere/utils"
)

// Strategy is one way of validating a notification signature. Strategies
// are tried in order; the first one that accepts wins.
type Strategy interface {
	Name() string
	Verify(values url.Values) bool
}

// Verifier authenticates inbound asynchronous payment notifications. A
// rejected notification is a boolean signal, not an error: the webhook
// handler answers "fail" and the gateway retries delivery.
type Verifier struct {
	appID      string
	strategies []Strategy
}

func NewVerifier(appID string, strategies ...Strategy) *Verifier {
	return &Verifier{appID: appID, strategies: strategies}
}

// Verify checks the application id and then runs the strategies in order.
// An app id mismatch is treated as forgery regardless of signature.
func (v *Verifier) Verify(values url.Values) bool {
	if v.appID == "" || values.Get("app_id") != v.appID {
		utils.LogError("Notification app_id mismatch: got %q", values.Get("app_id"))
		return false
	}
	for _, s := range v.strategies {
		if s.Verify(values) {
			utils.LogDebug("Notification verified by %s strategy", s.Name())
			return true
		}
		utils.LogDebug("Notification rejected by %s strategy", s.Name())
	}
	return false
}

// SignContent assembles the string the gateway signed: every field except
// sign (sign_type stays in), values URL-decoded, empty values skipped,
// keys sorted lexicographically, joined as key=value pairs with "&".
func SignContent(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "sign" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		value := values.Get(k)
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		if value == "" {
			continue
		}
		pairs = append(pairs, k+"="+value)
	}
	return strings.Join(pairs, "&")
}

// rsaStrategy verifies the signature directly against the gateway public
// key, per the documented sign-string algorithm.
type rsaStrategy struct {
	pub *rsa.PublicKey
}

// NewRSAStrategy parses the gateway public key (PEM or the bare base64
// body Alipay hands out) and returns the manual verification strategy.
func NewRSAStrategy(publicKey string) (Strategy, error) {
	pub, err := parsePublicKey(publicKey)
	if err != nil {
		return nil, err
	}
	return &rsaStrategy{pub: pub}, nil
}

func (s *rsaStrategy) Name() string { return "manual" }

func (s *rsaStrategy) Verify(values url.Values) bool {
	sign := values.Get("sign")
	signType := values.Get("sign_type")
	if sign == "" || signType == "" {
		return false
	}

	signature, err := base64.StdEncoding.DecodeString(sign)
	if err != nil {
		return false
	}

	content := []byte(SignContent(values))

	switch signType {
	case "RSA2":
		digest := sha256.Sum256(content)
		return rsa.VerifyPKCS1v15(s.pub, crypto.SHA256, digest[:], signature) == nil
	case "RSA":
		digest := sha1.Sum(content)
		return rsa.VerifyPKCS1v15(s.pub, crypto.SHA1, digest[:], signature) == nil
	default:
		utils.LogError("Unsupported sign_type: %s", signType)
		return false
	}
}

// sdkStrategy defers to the gateway SDK's own verification routine. The
// SDK canonicalizes some formats differently, so it may accept what the
// manual path rejected.
type sdkStrategy struct {
	client *Client
}

func NewSDKStrategy(client *Client) Strategy {
	return &sdkStrategy{client: client}
}

func (s *sdkStrategy) Name() string { return "sdk" }

func (s *sdkStrategy) Verify(values url.Values) bool {
	return s.client.SDKVerify(values)
}

func parsePublicKey(key string) (*rsa.PublicKey, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("payment: empty public key")
	}
	if !strings.Contains(key, "-----BEGIN") {
		key = "-----BEGIN PUBLIC KEY-----\n" + key + "\n-----END PUBLIC KEY-----"
	}
	block, _ := pem.Decode([]byte(key))
	if block == nil {
		return nil, errors.New("payment: public key is not valid PEM")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("payment: public key is not RSA")
	}
	return pub, nil
}
