package server

import (
	"strconv"
	"time"

	"github.com/samber/lo"

	"tg_exchange/internal/domain"
	"tg_exchange/internal/domain/entity"
	"tg_exchange/pkg/errcodes"
	"tg_exchange/pkg/rest"
)

func newRESTDeal(deal *entity.Deal) rest.Deal {
	return rest.Deal{
		ID:                       deal.ID,
		UserID:                   deal.UserID,
		Type:                     string(deal.Type),
		Currency:                 string(deal.Currency),
		RubAmount:                deal.RubAmount,
		CryptoAmount:             deal.CryptoAmount,
		Commission:               deal.Commission,
		Total:                    deal.Total,
		WalletAddress:            deal.WalletAddress,
		Priority:                 string(deal.Priority),
		Status:                   string(deal.Status),
		SelectedPaymentDetailsID: deal.SelectedPaymentDetailsID,
		ProcessingStatus:         deal.ProcessingStatus,
		Timestamp:                deal.Timestamp.Unix(),
	}
}

func newRESTUser(user *entity.User) rest.User {
	return rest.User{
		ID:               user.ID,
		Username:         user.Username,
		Balance:          user.Balance,
		Referrals:        user.Referrals,
		ReferralID:       user.ReferralID,
		IsBlocked:        user.IsBlocked,
		RegistrationDate: user.RegistrationDate.Unix(),
	}
}

func newRESTWithdrawal(w *entity.Withdrawal) rest.Withdrawal {
	return rest.Withdrawal{
		ID:            w.ID,
		UserID:        w.UserID,
		RubAmount:     w.RubAmount,
		CryptoAmount:  w.CryptoAmount,
		WalletAddress: w.WalletAddress,
		Status:        string(w.Status),
		Timestamp:     w.Timestamp.Unix(),
	}
}

func newRESTPaymentDetail(d *entity.PaymentDetail) rest.PaymentDetail {
	return rest.PaymentDetail{
		ID:              d.ID,
		Description:     d.Description,
		LimitReachedRub: d.LimitReachedRub,
		LastReset:       d.LastReset.Unix(),
		Timestamp:       d.Timestamp.Unix(),
		ConfirmedUsages: d.ConfirmedUsages,
	}
}

func newDomainPaymentDetail(d rest.PaymentDetail) entity.PaymentDetail {
	return entity.PaymentDetail{
		ID:              d.ID,
		Description:     d.Description,
		LimitReachedRub: d.LimitReachedRub,
		LastReset:       time.Unix(d.LastReset, 0),
		Timestamp:       time.Unix(d.Timestamp, 0),
		ConfirmedUsages: d.ConfirmedUsages,
	}
}

func newRESTSettings(s *entity.Settings) rest.Settings {
	return rest.Settings{
		CommissionScales: lo.MapValues(s.CommissionScales, func(tiers []entity.CommissionTier, _ string) []rest.CommissionTier {
			return lo.Map(tiers, func(t entity.CommissionTier, _ int) rest.CommissionTier {
				return rest.CommissionTier{Amount: t.Amount, Percent: t.Percent}
			})
		}),
		DiscountTiers: lo.Map(s.DiscountTiers, func(t entity.DiscountTier, _ int) rest.DiscountTier {
			return rest.DiscountTier{Amount: t.Amount, Discount: t.Discount}
		}),
		VIPDiscounts: lo.Map(s.VIPDiscounts, func(v entity.VIPDiscount, _ int) rest.VIPDiscount {
			return rest.VIPDiscount{Username: v.Username, Discount: v.Discount}
		}),
		TradeBounds: lo.MapValues(s.TradeBounds, func(b entity.TradeBounds, _ string) rest.TradeBounds {
			return rest.TradeBounds{MinRub: b.MinRub, MaxRub: b.MaxRub}
		}),
		PriorityPriceRub:       s.PriorityPriceRub,
		ReferralRevenuePercent: s.ReferralRevenuePercent,
		ReceivingWallets: lo.MapEntries(s.ReceivingWallets, func(c entity.Currency, w string) (string, string) {
			return string(c), w
		}),
		OperatorChatIDs: lo.MapEntries(s.OperatorChatIDs, func(c entity.Currency, ids []int64) (string, []int64) {
			return string(c), ids
		}),
		PaymentDetails: lo.Map(s.PaymentDetails, func(d entity.PaymentDetail, _ int) rest.PaymentDetail {
			return newRESTPaymentDetail(&d)
		}),
		LimitReachedRecoveryHours:   s.LimitReachedRecoveryHours,
		DealCreationRecoveryMinutes: s.DealCreationRecoveryMinutes,
		UsageSlack:                  s.UsageSlack,
		ProcessingEnabled:           s.ProcessingEnabled,
		ProcessorName:               s.ProcessorName,
		DealPaymentDeadlineMinutes:  s.DealPaymentDeadlineMinutes,
	}
}

func newDomainSettings(s rest.Settings) *entity.Settings {
	return &entity.Settings{
		CommissionScales: lo.MapValues(s.CommissionScales, func(tiers []rest.CommissionTier, _ string) []entity.CommissionTier {
			return lo.Map(tiers, func(t rest.CommissionTier, _ int) entity.CommissionTier {
				return entity.CommissionTier{Amount: t.Amount, Percent: t.Percent}
			})
		}),
		DiscountTiers: lo.Map(s.DiscountTiers, func(t rest.DiscountTier, _ int) entity.DiscountTier {
			return entity.DiscountTier{Amount: t.Amount, Discount: t.Discount}
		}),
		VIPDiscounts: lo.Map(s.VIPDiscounts, func(v rest.VIPDiscount, _ int) entity.VIPDiscount {
			return entity.VIPDiscount{Username: v.Username, Discount: v.Discount}
		}),
		TradeBounds: lo.MapValues(s.TradeBounds, func(b rest.TradeBounds, _ string) entity.TradeBounds {
			return entity.TradeBounds{MinRub: b.MinRub, MaxRub: b.MaxRub}
		}),
		PriorityPriceRub:       s.PriorityPriceRub,
		ReferralRevenuePercent: s.ReferralRevenuePercent,
		ReceivingWallets: lo.MapEntries(s.ReceivingWallets, func(c string, w string) (entity.Currency, string) {
			return entity.Currency(c), w
		}),
		OperatorChatIDs: lo.MapEntries(s.OperatorChatIDs, func(c string, ids []int64) (entity.Currency, []int64) {
			return entity.Currency(c), ids
		}),
		PaymentDetails: lo.Map(s.PaymentDetails, func(d rest.PaymentDetail, _ int) entity.PaymentDetail {
			return newDomainPaymentDetail(d)
		}),
		LimitReachedRecoveryHours:   s.LimitReachedRecoveryHours,
		DealCreationRecoveryMinutes: s.DealCreationRecoveryMinutes,
		UsageSlack:                  s.UsageSlack,
		ProcessingEnabled:           s.ProcessingEnabled,
		ProcessorName:               s.ProcessorName,
		DealPaymentDeadlineMinutes:  s.DealPaymentDeadlineMinutes,
	}
}

func parseUserID(raw string) (int64, error) {
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.NewError(errcodes.InvalidUserID, "некорректный id пользователя")
	}
	return userID, nil
}
