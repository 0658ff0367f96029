package processor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tg_exchange/internal/domain"
	"tg_exchange/internal/domain/entity"
	"tg_exchange/pkg/errcodes"
)

// PayOk — клиент payok-совместимого API: POST form-encoded, ключ в теле.
type PayOk struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewPayOk(baseURL, apiKey string, httpClient *http.Client) *PayOk {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &PayOk{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (p *PayOk) Name() string { return NamePayOk }

type payOkInvoice struct {
	ID        string  `json:"id"`
	Status    string  `json:"status"`
	URL       string  `json:"url"`
	ExpiresAt string  `json:"expires_at"` // RFC 3339
	Amount    float64 `json:"amount,string"`
}

type payOkResponse struct {
	Status  string        `json:"status"` // success | error
	Message string        `json:"message"`
	Invoice *payOkInvoice `json:"invoice"`
}

func (p *PayOk) CreateInvoice(ctx context.Context, deal *entity.Deal) (*entity.Invoice, error) {
	form := url.Values{
		"payment_id": {deal.ID},
		"amount":     {strconv.FormatFloat(deal.Total, 'f', 2, 64)},
		"currency":   {"RUB"},
	}

	var resp payOkResponse
	if err := p.call(ctx, "invoice/create", form, &resp); err != nil {
		return nil, err
	}

	return p.invoice(&resp)
}

func (p *PayOk) AvailablePaymentVariants(ctx context.Context) ([]PaymentVariant, error) {
	var resp struct {
		Status  string `json:"status"`
		Methods []struct {
			Code  string  `json:"code"`
			Name  string  `json:"name"`
			Min   float64 `json:"min,string"`
			Max   float64 `json:"max,string"`
		} `json:"methods"`
	}
	if err := p.call(ctx, "methods", url.Values{}, &resp); err != nil {
		return nil, err
	}

	variants := make([]PaymentVariant, 0, len(resp.Methods))
	for _, m := range resp.Methods {
		variants = append(variants, PaymentVariant{
			ID:     m.Code,
			Title:  m.Name,
			MinRub: m.Min,
			MaxRub: m.Max,
		})
	}

	return variants, nil
}

func (p *PayOk) StartDeal(ctx context.Context, deal *entity.Deal, variantID string) (*entity.Invoice, error) {
	form := url.Values{
		"payment_id": {deal.ID},
		"amount":     {strconv.FormatFloat(deal.Total, 'f', 2, 64)},
		"method":     {variantID},
	}

	var resp payOkResponse
	if err := p.call(ctx, "invoice/create", form, &resp); err != nil {
		return nil, err
	}

	return p.invoice(&resp)
}

func (p *PayOk) GetInvoice(ctx context.Context, invoiceID string) (*entity.Invoice, error) {
	form := url.Values{"invoice_id": {invoiceID}}

	var resp payOkResponse
	if err := p.call(ctx, "invoice/status", form, &resp); err != nil {
		return nil, err
	}

	if resp.Invoice == nil {
		return nil, domain.NewError(errcodes.InvoiceNotFound, "счёт не найден")
	}

	return p.invoice(&resp)
}

func (p *PayOk) CancelInvoice(ctx context.Context, invoiceID string) error {
	form := url.Values{"invoice_id": {invoiceID}}

	var resp payOkResponse

	return p.call(ctx, "invoice/cancel", form, &resp)
}

func (p *PayOk) invoice(resp *payOkResponse) (*entity.Invoice, error) {
	if resp.Status == "error" {
		return nil, domain.NewError(errcodes.ProcessorUnavailable, resp.Message)
	}
	if resp.Invoice == nil {
		return nil, domain.NewError(errcodes.ProcessorUnavailable, "пустой ответ процессинга")
	}

	expiresAt, _ := time.Parse(time.RFC3339, resp.Invoice.ExpiresAt)

	return &entity.Invoice{
		ID:         resp.Invoice.ID,
		Status:     payOkStatus(resp.Invoice.Status),
		PaymentURL: resp.Invoice.URL,
		ExpiresAt:  expiresAt,
	}, nil
}

func (p *PayOk) call(ctx context.Context, method string, form url.Values, out any) error {
	form.Set("api_key", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/"+method, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("http.NewRequest: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return domain.WrapError(err, errcodes.ProcessorUnavailable, "payok недоступен")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.NewError(errcodes.ProcessorUnavailable,
			fmt.Sprintf("payok ответил %d", resp.StatusCode))
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.WrapError(err, errcodes.ProcessorUnavailable, "не разобран ответ payok")
	}

	return nil
}

func payOkStatus(s string) entity.InvoiceStatus {
	switch s {
	case "paid", "success":
		return entity.InvoiceStatusPaid
	case "expired", "cancelled":
		return entity.InvoiceStatusExpired
	}
	return entity.InvoiceStatusPending
}
