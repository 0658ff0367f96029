package processor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"tg_exchange/internal/domain"
	"tg_exchange/internal/domain/entity"
	"tg_exchange/pkg/errcodes"
)

// AnyPay — клиент anypay-совместимого API: GET с подписью
// sha256(method + параметры + ключ) в параметре sign.
type AnyPay struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewAnyPay(baseURL, apiKey string, httpClient *http.Client) *AnyPay {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &AnyPay{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (p *AnyPay) Name() string { return NameAnyPay }

type anyPayInvoice struct {
	TransactionID string  `json:"transaction_id"`
	Status        string  `json:"status"`
	PaymentURL    string  `json:"payment_url"`
	ExpiresAt     int64   `json:"expires_at"`
	Amount        float64 `json:"amount"`
}

type anyPayResponse struct {
	Result *anyPayInvoice `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *AnyPay) CreateInvoice(ctx context.Context, deal *entity.Deal) (*entity.Invoice, error) {
	params := url.Values{
		"pay_id":   {deal.ID},
		"amount":   {strconv.FormatFloat(deal.Total, 'f', 2, 64)},
		"currency": {"RUB"},
		"desc":     {fmt.Sprintf("Сделка %s", deal.ID)},
	}

	var resp anyPayResponse
	if err := p.call(ctx, "create-payment", params, &resp); err != nil {
		return nil, err
	}

	return p.invoice(&resp)
}

func (p *AnyPay) AvailablePaymentVariants(ctx context.Context) ([]PaymentVariant, error) {
	var resp struct {
		Result []struct {
			ID    string  `json:"id"`
			Title string  `json:"title"`
			Min   float64 `json:"min"`
			Max   float64 `json:"max"`
		} `json:"result"`
	}
	if err := p.call(ctx, "methods", url.Values{}, &resp); err != nil {
		return nil, err
	}

	variants := make([]PaymentVariant, 0, len(resp.Result))
	for _, m := range resp.Result {
		variants = append(variants, PaymentVariant{
			ID:     m.ID,
			Title:  m.Title,
			MinRub: m.Min,
			MaxRub: m.Max,
		})
	}

	return variants, nil
}

func (p *AnyPay) StartDeal(ctx context.Context, deal *entity.Deal, variantID string) (*entity.Invoice, error) {
	params := url.Values{
		"pay_id": {deal.ID},
		"amount": {strconv.FormatFloat(deal.Total, 'f', 2, 64)},
		"method": {variantID},
	}

	var resp anyPayResponse
	if err := p.call(ctx, "create-payment", params, &resp); err != nil {
		return nil, err
	}

	return p.invoice(&resp)
}

func (p *AnyPay) GetInvoice(ctx context.Context, invoiceID string) (*entity.Invoice, error) {
	params := url.Values{"trans_id": {invoiceID}}

	var resp anyPayResponse
	if err := p.call(ctx, "payments", params, &resp); err != nil {
		return nil, err
	}

	if resp.Result == nil {
		return nil, domain.NewError(errcodes.InvoiceNotFound, "счёт не найден")
	}

	return p.invoice(&resp)
}

func (p *AnyPay) CancelInvoice(ctx context.Context, invoiceID string) error {
	params := url.Values{"trans_id": {invoiceID}}

	var resp anyPayResponse

	return p.call(ctx, "cancel-payment", params, &resp)
}

func (p *AnyPay) invoice(resp *anyPayResponse) (*entity.Invoice, error) {
	if resp.Error != nil {
		return nil, domain.NewError(errcodes.ProcessorUnavailable, resp.Error.Message)
	}
	if resp.Result == nil {
		return nil, domain.NewError(errcodes.ProcessorUnavailable, "пустой ответ процессинга")
	}

	return &entity.Invoice{
		ID:         resp.Result.TransactionID,
		Status:     anyPayStatus(resp.Result.Status),
		PaymentURL: resp.Result.PaymentURL,
		ExpiresAt:  time.Unix(resp.Result.ExpiresAt, 0),
	}, nil
}

func (p *AnyPay) call(ctx context.Context, method string, params url.Values, out any) error {
	params.Set("sign", p.sign(method, params))

	endpoint := p.baseURL + "/" + method + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("http.NewRequest: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return domain.WrapError(err, errcodes.ProcessorUnavailable, "anypay недоступен")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.NewError(errcodes.ProcessorUnavailable,
			fmt.Sprintf("anypay ответил %d", resp.StatusCode))
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.WrapError(err, errcodes.ProcessorUnavailable, "не разобран ответ anypay")
	}

	return nil
}

func (p *AnyPay) sign(method string, params url.Values) string {
	sum := sha256.Sum256([]byte(method + params.Encode() + p.apiKey))
	return hex.EncodeToString(sum[:])
}

func anyPayStatus(s string) entity.InvoiceStatus {
	switch s {
	case "paid":
		return entity.InvoiceStatusPaid
	case "expired", "canceled":
		return entity.InvoiceStatusExpired
	}
	return entity.InvoiceStatusPending
}
