package processor_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"tg_exchange/internal/domain"
	"tg_exchange/internal/domain/entity"
	"tg_exchange/internal/infrastructure/processor"
	"tg_exchange/pkg/errcodes"
)

func TestAnyPayCreateInvoice(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rq.Equal("/create-payment", r.URL.Path)
		rq.NotEmpty(r.URL.Query().Get("sign"))
		rq.Equal("d1", r.URL.Query().Get("pay_id"))

		_, _ = w.Write([]byte(`{"result":{"transaction_id":"tx-1","status":"waiting","payment_url":"https://pay/tx-1","expires_at":1717243200}}`))
	}))
	defer srv.Close()

	client := processor.NewAnyPay(srv.URL, "key", srv.Client())

	invoice, err := client.CreateInvoice(ctx, &entity.Deal{ID: "d1", Total: 5100})
	rq.NoError(err)
	rq.Equal("tx-1", invoice.ID)
	rq.Equal(entity.InvoiceStatusPending, invoice.Status)
	rq.Equal("https://pay/tx-1", invoice.PaymentURL)
	rq.False(invoice.ExpiresAt.IsZero())
}

func TestAnyPayErrorResponse(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"insufficient funds"}}`))
	}))
	defer srv.Close()

	client := processor.NewAnyPay(srv.URL, "key", srv.Client())

	_, err := client.CreateInvoice(ctx, &entity.Deal{ID: "d1", Total: 5100})
	rq.True(domain.IsCode(err, errcodes.ProcessorUnavailable))
}

func TestAnyPayGetInvoiceNotFound(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"result":null}`))
	}))
	defer srv.Close()

	client := processor.NewAnyPay(srv.URL, "key", srv.Client())

	_, err := client.GetInvoice(ctx, "tx-unknown")
	rq.True(domain.IsCode(err, errcodes.InvoiceNotFound))
}

func TestPayOkGetInvoiceStatusMapping(t *testing.T) {
	testCases := []struct {
		name   string
		status string
		want   entity.InvoiceStatus
	}{
		{name: "paid", status: "paid", want: entity.InvoiceStatusPaid},
		{name: "expired", status: "expired", want: entity.InvoiceStatusExpired},
		{name: "waiting", status: "waiting", want: entity.InvoiceStatusPending},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)
			ctx := context.Background()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				rq.NoError(r.ParseForm())
				rq.Equal("key", r.PostForm.Get("api_key"))

				_, _ = w.Write([]byte(`{"status":"success","invoice":{"id":"inv-1","status":"` + tc.status + `","url":"https://pay/inv-1","expires_at":"2024-06-01T12:00:00Z","amount":"5100"}}`))
			}))
			defer srv.Close()

			client := processor.NewPayOk(srv.URL, "key", srv.Client())

			invoice, err := client.GetInvoice(ctx, "inv-1")
			rq.NoError(err)
			rq.Equal(tc.want, invoice.Status)
		})
	}
}

func TestResolveNameSettingsOverrideEnv(t *testing.T) {
	rq := require.New(t)

	rq.Equal("payok", processor.ResolveName("payok", "anypay"))
	rq.Equal("anypay", processor.ResolveName("", "anypay"))
	rq.Equal("", processor.ResolveName("", ""))
}

func TestSelectByName(t *testing.T) {
	rq := require.New(t)

	anypay := processor.NewAnyPay("http://a", "k", nil)
	payok := processor.NewPayOk("http://p", "k", nil)

	rq.Equal(processor.NamePayOk, processor.Select("payok", anypay, payok).Name())
	rq.Equal(processor.NameAnyPay, processor.Select("anypay", anypay, payok).Name())
	rq.Equal(processor.NameAnyPay, processor.Select("", anypay, payok).Name())
}
