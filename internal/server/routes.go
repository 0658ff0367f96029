package server

import (
	"net/http"

	"git.appkode.ru/pub/go/failure"
	"github.com/go-chi/chi/v5"

	"tg_exchange/internal/domain"
	"tg_exchange/pkg/errcodes"
	"tg_exchange/pkg/httpx/reply"
	"tg_exchange/pkg/middlewarex"
	"tg_exchange/pkg/rest"
)

func (s Server) RegisterRoutes(r chi.Router, adminToken string) {
	r.Route("/v1", func(r chi.Router) {
		r.Use(middlewarex.StaticBearerToken(adminToken))

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", handler(s.getV1Settings))
			r.Put("/", handler(s.putV1Settings))
		})

		r.Route("/deals", func(r chi.Router) {
			r.Get("/", handler(s.getV1Deals))
			r.Post("/{id}/complete", handler(s.postV1DealComplete))
			r.Post("/{id}/expire", handler(s.postV1DealExpire))
			r.Delete("/{id}", handler(s.deleteV1Deal))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", handler(s.getV1Users))
			r.Post("/{id}/block", handler(s.postV1UserBlock))
			r.Post("/{id}/unblock", handler(s.postV1UserUnblock))
			r.Delete("/{id}", handler(s.deleteV1User))
		})

		r.Route("/withdrawals", func(r chi.Router) {
			r.Get("/", handler(s.getV1Withdrawals))
			r.Post("/{id}/complete", handler(s.postV1WithdrawalComplete))
		})

		r.Route("/payment-details", func(r chi.Router) {
			r.Post("/", handler(s.postV1PaymentDetail))
			r.Delete("/{id}", handler(s.deleteV1PaymentDetail))
		})
	})
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err == nil {
			return
		}

		if appErr := domain.AsAppError(err); appErr != nil {
			reply.JSON(r.Context(), w, statusFor(appErr.Code), rest.Error{
				Code:    rest.ErrorCode(appErr.Code),
				Message: appErr.Message,
			})
			return
		}

		reply.Error(r.Context(), w, err)
	}
}

func statusFor(code failure.ErrorCode) int {
	switch code {
	case errcodes.NotFound, errcodes.UserNotFound, errcodes.DealNotFound,
		errcodes.WithdrawalNotFound, errcodes.InvoiceNotFound:
		return http.StatusNotFound
	case errcodes.ValidationError, errcodes.InvalidUserID, errcodes.InvalidDealID,
		errcodes.InvalidAmount, errcodes.AmountOutOfBounds, errcodes.InvalidCurrency,
		errcodes.InvalidWallet:
		return http.StatusBadRequest
	case errcodes.InvalidDealStatus, errcodes.PaymentDetailInUse:
		return http.StatusConflict
	case errcodes.Forbidden, errcodes.UserBlocked:
		return http.StatusForbidden
	case errcodes.ProcessorUnavailable, errcodes.PriceFeedUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
