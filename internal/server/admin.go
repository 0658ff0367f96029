package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/xid"
	"github.com/samber/lo"

	"tg_exchange/internal/domain"
	"tg_exchange/internal/domain/entity"
	"tg_exchange/pkg/errcodes"
	"tg_exchange/pkg/httpx/reply"
	"tg_exchange/pkg/httpx/req"
	"tg_exchange/pkg/rest"
)

type dealService interface {
	Complete(ctx context.Context, dealID string) (*entity.Deal, error)
	Expire(ctx context.Context, dealID string) (*entity.Deal, error)
	Delete(ctx context.Context, dealID string) error
}

type dealRepository interface {
	List(ctx context.Context) ([]entity.Deal, error)
	ListByStatus(ctx context.Context, statuses ...entity.DealStatus) ([]entity.Deal, error)
	DeleteByUser(ctx context.Context, userID int64) error
}

type userRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	List(ctx context.Context) ([]entity.User, error)
	Save(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id int64) error
}

type withdrawalRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Withdrawal, error)
	List(ctx context.Context) ([]entity.Withdrawal, error)
	Save(ctx context.Context, w *entity.Withdrawal) error
	DeleteByUser(ctx context.Context, userID int64) error
}

type settingsRepository interface {
	Get(ctx context.Context) (*entity.Settings, error)
	Save(ctx context.Context, settings *entity.Settings) error
	UpdatePaymentDetail(ctx context.Context, detail entity.PaymentDetail) error
}

type stateRepository interface {
	Clear(ctx context.Context, userID int64) error
}

// AdminServer — операторские ручки: настройки, сделки, пользователи,
// выводы, реквизиты.
type AdminServer struct {
	deals       dealService
	dealRepo    dealRepository
	users       userRepository
	withdrawals withdrawalRepository
	settings    settingsRepository
	states      stateRepository
}

func NewAdminServer(
	deals dealService,
	dealRepo dealRepository,
	users userRepository,
	withdrawals withdrawalRepository,
	settings settingsRepository,
	states stateRepository,
) AdminServer {
	return AdminServer{
		deals:       deals,
		dealRepo:    dealRepo,
		users:       users,
		withdrawals: withdrawals,
		settings:    settings,
		states:      states,
	}
}

func (s AdminServer) getV1Settings(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("settings.Get: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTSettings(settings))

	return nil
}

func (s AdminServer) putV1Settings(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.Settings
	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	if err := s.settings.Save(ctx, newDomainSettings(request)); err != nil {
		return fmt.Errorf("settings.Save: %w", err)
	}

	reply.OK(w)

	return nil
}

func (s AdminServer) getV1Deals(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var (
		deals []entity.Deal
		err   error
	)

	if status := r.URL.Query().Get("status"); status != "" {
		deals, err = s.dealRepo.ListByStatus(ctx, entity.DealStatus(status))
	} else {
		deals, err = s.dealRepo.List(ctx)
	}
	if err != nil {
		return fmt.Errorf("dealRepo.List: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, lo.Map(deals, func(d entity.Deal, _ int) rest.Deal {
		return newRESTDeal(&d)
	}))

	return nil
}

func (s AdminServer) postV1DealComplete(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	deal, err := s.deals.Complete(ctx, r.PathValue("id"))
	if err != nil {
		return fmt.Errorf("deals.Complete: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTDeal(deal))

	return nil
}

func (s AdminServer) postV1DealExpire(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	deal, err := s.deals.Expire(ctx, r.PathValue("id"))
	if err != nil {
		return fmt.Errorf("deals.Expire: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTDeal(deal))

	return nil
}

func (s AdminServer) deleteV1Deal(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	if err := s.deals.Delete(ctx, r.PathValue("id")); err != nil {
		return fmt.Errorf("deals.Delete: %w", err)
	}

	reply.OK(w)

	return nil
}

func (s AdminServer) getV1Users(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	users, err := s.users.List(ctx)
	if err != nil {
		return fmt.Errorf("users.List: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, lo.Map(users, func(u entity.User, _ int) rest.User {
		return newRESTUser(&u)
	}))

	return nil
}

func (s AdminServer) postV1UserBlock(w http.ResponseWriter, r *http.Request) error {
	return s.setUserBlocked(w, r, true)
}

func (s AdminServer) postV1UserUnblock(w http.ResponseWriter, r *http.Request) error {
	return s.setUserBlocked(w, r, false)
}

func (s AdminServer) setUserBlocked(w http.ResponseWriter, r *http.Request, blocked bool) error {
	ctx := r.Context()

	userID, err := parseUserID(r.PathValue("id"))
	if err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("users.GetByID: %w", err)
	}

	user.IsBlocked = blocked
	if err = s.users.Save(ctx, user); err != nil {
		return fmt.Errorf("users.Save: %w", err)
	}

	reply.OK(w)

	return nil
}

// deleteV1User удаляет пользователя каскадно: сделки, выводы, состояние
// диалога.
func (s AdminServer) deleteV1User(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := parseUserID(r.PathValue("id"))
	if err != nil {
		return err
	}

	if err = s.dealRepo.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("dealRepo.DeleteByUser: %w", err)
	}
	if err = s.withdrawals.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("withdrawals.DeleteByUser: %w", err)
	}
	if err = s.states.Clear(ctx, userID); err != nil {
		return fmt.Errorf("states.Clear: %w", err)
	}
	if err = s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("users.Delete: %w", err)
	}

	reply.OK(w)

	return nil
}

func (s AdminServer) getV1Withdrawals(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	withdrawals, err := s.withdrawals.List(ctx)
	if err != nil {
		return fmt.Errorf("withdrawals.List: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, lo.Map(withdrawals, func(wd entity.Withdrawal, _ int) rest.Withdrawal {
		return newRESTWithdrawal(&wd)
	}))

	return nil
}

func (s AdminServer) postV1WithdrawalComplete(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	withdrawal, err := s.withdrawals.GetByID(ctx, r.PathValue("id"))
	if err != nil {
		return fmt.Errorf("withdrawals.GetByID: %w", err)
	}

	if withdrawal.Status == entity.WithdrawalStatusCompleted {
		return domain.NewError(errcodes.InvalidDealStatus, "заявка уже закрыта")
	}

	withdrawal.Status = entity.WithdrawalStatusCompleted
	if err = s.withdrawals.Save(ctx, withdrawal); err != nil {
		return fmt.Errorf("withdrawals.Save: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTWithdrawal(withdrawal))

	return nil
}

func (s AdminServer) postV1PaymentDetail(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.PaymentDetail
	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	detail := newDomainPaymentDetail(request)
	if detail.ID == "" {
		detail.ID = xid.New().String()
	}

	if err := s.settings.UpdatePaymentDetail(ctx, detail); err != nil {
		return fmt.Errorf("settings.UpdatePaymentDetail: %w", err)
	}

	reply.JSON(ctx, w, http.StatusCreated, newRESTPaymentDetail(&detail))

	return nil
}

func (s AdminServer) deleteV1PaymentDetail(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	detailID := r.PathValue("id")

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("settings.Get: %w", err)
	}

	filtered := lo.Reject(settings.PaymentDetails, func(d entity.PaymentDetail, _ int) bool {
		return d.ID == detailID
	})
	if len(filtered) == len(settings.PaymentDetails) {
		return domain.NewError(errcodes.NotFound, "реквизиты не найдены")
	}

	settings.PaymentDetails = filtered
	if err = s.settings.Save(ctx, settings); err != nil {
		return fmt.Errorf("settings.Save: %w", err)
	}

	reply.OK(w)

	return nil
}
