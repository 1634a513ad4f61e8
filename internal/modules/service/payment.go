package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/stickerpack-io/stickerpack/internal/config"
	"github.com/stickerpack-io/stickerpack/internal/modules/model"
	"go.uber.org/zap"
)

// Invoice is the redirectable payment handle returned to the client. The
// external processor stays authoritative for invoice state until its
// webhook fires; nothing is persisted locally.
type Invoice struct {
	PaymentID  string  `json:"payment_id"`
	PaymentURL string  `json:"payment_url"`
	OrderID    string  `json:"order_id"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
}

type PaymentService interface {
	// CreateInvoice creates an external invoice for the sticker. The
	// sticker URL is audit description only and is never trusted for
	// serving.
	CreateInvoice(ctx context.Context, stickerID uuid.UUID, stickerURL string, amount float64) (*Invoice, error)
}

type paymentService struct {
	cfg      *config.Config
	stickers StickerService
	httpc    *http.Client
	log      *zap.Logger
}

func NewPaymentService(cfg *config.Config, stickers StickerService, log *zap.Logger) PaymentService {
	return &paymentService{
		cfg:      cfg,
		stickers: stickers,
		httpc:    &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
}

func (s *paymentService) processorBaseURL(kind model.ProcessorKind) string {
	if s.cfg.Payment.BaseURL != "" {
		return s.cfg.Payment.BaseURL
	}
	if kind == model.ProcessorNOWPayments {
		return "https://api.nowpayments.io/v1"
	}
	return "https://api.cryptocloud.plus/v2"
}

func (s *paymentService) CreateInvoice(ctx context.Context, stickerID uuid.UUID, stickerURL string, amount float64) (*Invoice, error) {
	kind := model.ProcessorKind(s.cfg.Payment.Processor)
	if s.cfg.Payment.APIKey == "" || (kind == model.ProcessorCryptoCloud && s.cfg.Payment.ShopID == "") {
		return nil, model.ErrPaymentNotConfigured
	}

	// A sticker entering the payment flow must live in the durable store:
	// the webhook may arrive after a restart wiped the preview tier.
	if _, err := s.stickers.EnsureDurable(ctx, stickerID); err != nil {
		return nil, err
	}

	if amount <= 0 {
		amount = s.cfg.Payment.Price
	}
	orderID := model.OrderID(stickerID)
	successURL := s.cfg.App.BaseURL + "?payment=success"
	failURL := s.cfg.App.BaseURL + "?payment=failed"

	switch kind {
	case model.ProcessorNOWPayments:
		return s.createNOWPayments(ctx, orderID, stickerURL, amount, successURL, failURL)
	default:
		return s.createCryptoCloud(ctx, orderID, stickerURL, amount, successURL, failURL)
	}
}

type cryptoCloudInvoiceReq struct {
	ShopID     string  `json:"shop_id"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	OrderID    string  `json:"order_id"`
	SuccessURL string  `json:"success_url"`
	FailURL    string  `json:"fail_url"`
}

type cryptoCloudInvoiceResp struct {
	Status string `json:"status"`
	Result struct {
		UUID string `json:"uuid"`
		Link string `json:"link"`
	} `json:"result"`
}

func (s *paymentService) createCryptoCloud(ctx context.Context, orderID, stickerURL string, amount float64, successURL, failURL string) (*Invoice, error) {
	body := cryptoCloudInvoiceReq{
		ShopID:     s.cfg.Payment.ShopID,
		Amount:     amount,
		Currency:   s.cfg.Payment.Currency,
		OrderID:    orderID,
		SuccessURL: successURL,
		FailURL:    failURL,
	}

	respBody, status, err := s.post(ctx, s.processorBaseURL(model.ProcessorCryptoCloud)+"/invoice/create", "Token "+s.cfg.Payment.APIKey, "Authorization", body)
	if err != nil {
		return nil, err
	}

	out := cryptoCloudInvoiceResp{}
	if err := sonic.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode cryptocloud response: %w", err)
	}
	if status < 200 || status >= 300 || out.Status != "success" {
		return nil, &model.UpstreamError{Service: "cryptocloud", Status: status, Body: string(respBody)}
	}

	s.log.Info("invoice created",
		zap.String("processor", "cryptocloud"),
		zap.String("order_id", orderID),
		zap.String("sticker_url", stickerURL))
	return &Invoice{
		PaymentID:  out.Result.UUID,
		PaymentURL: out.Result.Link,
		OrderID:    orderID,
		Amount:     amount,
		Currency:   s.cfg.Payment.Currency,
	}, nil
}

type nowPaymentsInvoiceReq struct {
	PriceAmount      float64 `json:"price_amount"`
	PriceCurrency    string  `json:"price_currency"`
	OrderID          string  `json:"order_id"`
	OrderDescription string  `json:"order_description"`
	SuccessURL       string  `json:"success_url"`
	CancelURL        string  `json:"cancel_url"`
}

type nowPaymentsInvoiceResp struct {
	ID         string `json:"id"`
	InvoiceURL string `json:"invoice_url"`
}

func (s *paymentService) createNOWPayments(ctx context.Context, orderID, stickerURL string, amount float64, successURL, failURL string) (*Invoice, error) {
	body := nowPaymentsInvoiceReq{
		PriceAmount:      amount,
		PriceCurrency:    s.cfg.Payment.Currency,
		OrderID:          orderID,
		OrderDescription: "Custom sticker " + stickerURL,
		SuccessURL:       successURL,
		CancelURL:        failURL,
	}

	respBody, status, err := s.post(ctx, s.processorBaseURL(model.ProcessorNOWPayments)+"/invoice", s.cfg.Payment.APIKey, "x-api-key", body)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &model.UpstreamError{Service: "nowpayments", Status: status, Body: string(respBody)}
	}

	out := nowPaymentsInvoiceResp{}
	if err := sonic.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode nowpayments response: %w", err)
	}

	s.log.Info("invoice created",
		zap.String("processor", "nowpayments"),
		zap.String("order_id", orderID))
	return &Invoice{
		PaymentID:  out.ID,
		PaymentURL: out.InvoiceURL,
		OrderID:    orderID,
		Amount:     amount,
		Currency:   s.cfg.Payment.Currency,
	}, nil
}

func (s *paymentService) post(ctx context.Context, url, credential, credentialHeader string, body any) ([]byte, int, error) {
	b, err := sonic.Marshal(body)
	if err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(credentialHeader, credential)

	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("payment processor request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("payment processor response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}
