package pricing

import (
	"context"
	"math"
	"time"

	"tg_exchange/internal/domain/entity"
)

// TotalStepRub — итог сделки всегда кратен этой сумме.
const TotalStepRub = 50

// Каждая десятая завершённая сделка месяца идёт без комиссии.
const milestoneEvery = 10

type DealStats interface {
	CompletedTurnover(ctx context.Context, userID int64) (float64, error)
	CompletedInMonth(ctx context.Context, userID int64, now time.Time) (int, error)
}

type SettingsSource interface {
	Get(ctx context.Context) (*entity.Settings, error)
}

// Engine считает комиссии, скидки и итоговые суммы сделок.
type Engine struct {
	stats    DealStats
	settings SettingsSource
}

func NewEngine(stats DealStats, settings SettingsSource) *Engine {
	return &Engine{
		stats:    stats,
		settings: settings,
	}
}

// Discount — суммарная скидка пользователя в процентах: VIP по username плюс
// старшая подходящая ступень по обороту. Складываются, не перемножаются.
func (e *Engine) Discount(ctx context.Context, user *entity.User) (float64, error) {
	settings, err := e.settings.Get(ctx)
	if err != nil {
		return 0, err
	}

	turnover, err := e.stats.CompletedTurnover(ctx, user.ID)
	if err != nil {
		return 0, err
	}

	discount := settings.VIPDiscountFor(user.Username)

	// Ступени отсортированы по возрастанию порога: идём с конца до первой
	// подошедшей.
	tiers := settings.DiscountTiers
	for i := len(tiers) - 1; i >= 0; i-- {
		if tiers[i].Amount <= turnover {
			discount += tiers[i].Discount
			break
		}
	}

	return discount, nil
}

// BaseCommission — комиссия по шкале: применяется процент старшего порога,
// не превышающего сумму.
func BaseCommission(scale []entity.CommissionTier, amount float64) float64 {
	var percent float64
	for _, tier := range scale {
		if amount < tier.Amount {
			break
		}
		percent = tier.Percent
	}

	return amount * percent / 100
}

// Quote — зафиксированные на момент котировки суммы сделки.
type Quote struct {
	RubAmount   float64
	Commission  float64 // показываемая комиссия, обратно выведенная из итога
	PriorityFee float64
	Total       float64 // всегда кратен TotalStepRub
	Discount    float64
	Milestone   bool // юбилейная сделка месяца, комиссия прощена
}

// Compute строит котировку. Порядок операций фиксирован и наблюдаем:
// комиссия по шкале → скидка с округлением до целого рубля → наценка за
// приоритет → прощение комиссии на юбилейной сделке → итог вверх до кратного
// 50 → показываемая комиссия обратным вычитанием из итога. Упрощение
// "сначала комиссия, потом округление" меняет видимые суммы — нельзя.
func (e *Engine) Compute(
	ctx context.Context,
	user *entity.User,
	dealType entity.DealType,
	currency entity.Currency,
	rubAmount float64,
	priority entity.Priority,
	now time.Time,
) (Quote, error) {
	settings, err := e.settings.Get(ctx)
	if err != nil {
		return Quote{}, err
	}

	discount, err := e.Discount(ctx, user)
	if err != nil {
		return Quote{}, err
	}

	completed, err := e.stats.CompletedInMonth(ctx, user.ID, now)
	if err != nil {
		return Quote{}, err
	}

	base := BaseCommission(settings.Scale(currency, dealType), rubAmount)
	commission := roundHalfUp(base * (1 - discount/100))

	var priorityFee float64
	if priority == entity.PriorityElevated {
		priorityFee = settings.PriorityPriceRub
	}

	// Эта сделка станет (completed+1)-й в месяце.
	milestone := (completed+1)%milestoneEvery == 0
	if milestone {
		commission = 0
	}

	var rawTotal float64
	if dealType == entity.DealTypeBuy {
		rawTotal = rubAmount + commission + priorityFee
	} else {
		rawTotal = rubAmount - commission - priorityFee
	}

	total := ceilToStep(rawTotal)

	displayed := commission
	if !milestone {
		if dealType == entity.DealTypeBuy {
			displayed = total - rubAmount - priorityFee
		} else {
			displayed = rubAmount - total - priorityFee
		}
		if displayed < 0 {
			displayed = 0
		}
	}

	return Quote{
		RubAmount:   rubAmount,
		Commission:  Round2(displayed),
		PriorityFee: priorityFee,
		Total:       total,
		Discount:    discount,
		Milestone:   milestone,
	}, nil
}

// ReferralBonus — бонус рефереру в BTC с завершённой сделки.
func ReferralBonus(commissionRub, btcRubRate, revenuePercent float64) float64 {
	if btcRubRate <= 0 {
		return 0
	}
	return Round8(commissionRub / btcRubRate * revenuePercent / 100)
}

func ceilToStep(x float64) float64 {
	return math.Ceil(x/TotalStepRub) * TotalStepRub
}

func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// Round2 — до копеек.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Round8 — до сатоши.
func Round8(x float64) float64 {
	return math.Round(x*1e8) / 1e8
}
