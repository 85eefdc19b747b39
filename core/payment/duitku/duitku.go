// Package duitku is a client for the Duitku payment gateway: payment
// method listing, transaction inquiry, status checks and callback
// verification.
package duitku

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Result codes reported by callbacks and status checks.
const (
	CodeSuccess = "00"
	CodePending = "01"
	CodeFailed  = "02"
)

// Callback result codes differ from status codes for the second value.
const (
	ResultSuccess = "00"
	ResultFailed  = "01"
	ResultExpired = "02"
)

var (
	ErrMissingCredentials = errors.New("payment gateway credentials are not configured")
	ErrInvalidSignature   = errors.New("invalid callback signature")
)

// HTTPError is returned when the gateway answers with a non 2xx status.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("duitku responded %d: %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
}

// ResponseError is returned when the gateway answers 200 with a non
// success response code.
type ResponseError struct {
	Code    string
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("duitku response code %s: %s", e.Code, e.Message)
}

type Config struct {
	BaseURL      string
	MerchantCode string
	APIKey       string
	CallbackURL  string
	ReturnURL    string
	ExpiryPeriod int
	Timeout      time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		now:  time.Now,
	}
}

func (c *Client) configured() error {
	if c == nil || c.cfg.MerchantCode == "" || c.cfg.APIKey == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Method is one payment channel with the fee charged for the amount.
type Method struct {
	Method   string      `json:"paymentMethod"`
	Name     string      `json:"paymentName"`
	Image    string      `json:"paymentImage"`
	TotalFee json.Number `json:"totalFee"`
}

// PaymentMethods lists the channels available for amount.
func (c *Client) PaymentMethods(ctx context.Context, amount int64) ([]Method, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}

	datetime := c.now().Format("2006-01-02 15:04:05")
	amt := strconv.FormatInt(amount, 10)

	req := map[string]string{
		"merchantcode": c.cfg.MerchantCode,
		"amount":       amt,
		"datetime":     datetime,
		"signature":    sha256Hex(c.cfg.MerchantCode + amt + datetime + c.cfg.APIKey),
	}

	var resp struct {
		PaymentFee      []Method `json:"paymentFee"`
		ResponseCode    string   `json:"responseCode"`
		ResponseMessage string   `json:"responseMessage"`
	}
	if err := c.post(ctx, "/paymentmethod/getpaymentmethod", req, &resp); err != nil {
		return nil, err
	}
	if resp.ResponseCode != CodeSuccess {
		return nil, &ResponseError{Code: resp.ResponseCode, Message: resp.ResponseMessage}
	}

	if resp.PaymentFee == nil {
		resp.PaymentFee = []Method{}
	}
	return resp.PaymentFee, nil
}

type InquiryRequest struct {
	OrderID        string
	Amount         int64
	PaymentMethod  string
	ProductDetails string
	Email          string
	CustomerName   string
	Phone          string
}

type Inquiry struct {
	MerchantCode  string `json:"merchantCode"`
	Reference     string `json:"reference"`
	PaymentURL    string `json:"paymentUrl"`
	VANumber      string `json:"vaNumber"`
	QRString      string `json:"qrString"`
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
}

// Inquiry opens a transaction for the order and returns where to pay it.
func (c *Client) Inquiry(ctx context.Context, in InquiryRequest) (Inquiry, error) {
	if err := c.configured(); err != nil {
		return Inquiry{}, err
	}

	amt := strconv.FormatInt(in.Amount, 10)
	req := map[string]any{
		"merchantCode":    c.cfg.MerchantCode,
		"paymentAmount":   in.Amount,
		"paymentMethod":   in.PaymentMethod,
		"merchantOrderId": in.OrderID,
		"productDetails":  in.ProductDetails,
		"email":           in.Email,
		"customerVaName":  in.CustomerName,
		"phoneNumber":     in.Phone,
		"callbackUrl":     c.cfg.CallbackURL,
		"returnUrl":       c.cfg.ReturnURL,
		"expiryPeriod":    c.cfg.ExpiryPeriod,
		"signature":       md5Hex(c.cfg.MerchantCode + in.OrderID + amt + c.cfg.APIKey),
	}

	var resp Inquiry
	if err := c.post(ctx, "/v2/inquiry", req, &resp); err != nil {
		return Inquiry{}, err
	}
	if resp.StatusCode != CodeSuccess {
		return Inquiry{}, &ResponseError{Code: resp.StatusCode, Message: resp.StatusMessage}
	}
	return resp, nil
}

type Status struct {
	MerchantOrderID string      `json:"merchantOrderId"`
	Reference       string      `json:"reference"`
	Amount          json.Number `json:"amount"`
	Fee             json.Number `json:"fee"`
	StatusCode      string      `json:"statusCode"`
	StatusMessage   string      `json:"statusMessage"`
}

// TransactionStatus asks the gateway where the order stands.
func (c *Client) TransactionStatus(ctx context.Context, orderID string) (Status, error) {
	if err := c.configured(); err != nil {
		return Status{}, err
	}

	req := map[string]string{
		"merchantCode":    c.cfg.MerchantCode,
		"merchantOrderId": orderID,
		"signature":       md5Hex(c.cfg.MerchantCode + orderID + c.cfg.APIKey),
	}

	var resp Status
	if err := c.post(ctx, "/transactionStatus", req, &resp); err != nil {
		return Status{}, err
	}
	return resp, nil
}

// Callback is the form the gateway posts when a transaction settles.
type Callback struct {
	MerchantCode    string
	Amount          string
	MerchantOrderID string
	ProductDetail   string
	PaymentCode     string
	ResultCode      string
	Reference       string
	Signature       string
	SettlementDate  string
}

// ParseCallback reads the callback form of r.
func ParseCallback(r *http.Request) (Callback, error) {
	if err := r.ParseForm(); err != nil {
		return Callback{}, fmt.Errorf("parsing callback form: %w", err)
	}

	f := r.PostForm
	cb := Callback{
		MerchantCode:    f.Get("merchantCode"),
		Amount:          f.Get("amount"),
		MerchantOrderID: f.Get("merchantOrderId"),
		ProductDetail:   f.Get("productDetail"),
		PaymentCode:     f.Get("paymentCode"),
		ResultCode:      f.Get("resultCode"),
		Reference:       f.Get("reference"),
		Signature:       f.Get("signature"),
		SettlementDate:  f.Get("settlementDate"),
	}
	if cb.MerchantOrderID == "" || cb.ResultCode == "" || cb.Signature == "" {
		return Callback{}, errors.New("callback is missing required fields")
	}
	return cb, nil
}

// Verify checks the callback was signed with our merchant key.
func (c *Client) Verify(cb Callback) error {
	if err := c.configured(); err != nil {
		return err
	}
	if cb.MerchantCode != c.cfg.MerchantCode {
		return ErrInvalidSignature
	}

	want := md5Hex(c.cfg.MerchantCode + cb.Amount + cb.MerchantOrderID + c.cfg.APIKey)
	if subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(cb.Signature))) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

// Sign returns the signature the gateway puts on a callback. It is used
// to simulate callbacks.
func (c *Client) Sign(amount, orderID string) string {
	return md5Hex(c.cfg.MerchantCode + amount + orderID + c.cfg.APIKey)
}

func (c *Client) post(ctx context.Context, path string, body any, dest any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling duitku %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading duitku response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: raw}
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decoding duitku response: %w", err)
	}
	return nil
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
