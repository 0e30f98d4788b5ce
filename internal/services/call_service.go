package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/voxus/internal/models"
	"github.com/thereayou/voxus/internal/pubsub"
)

type callDeps interface {
	UserStore
	CallStore
}

// CallService ведет состояние звонка и пересылает сигналинг между двумя пирами.
// INITIATED -> RINGING -> ACCEPTED -> ENDED, из INITIATED/RINGING возможен REJECTED.
type CallService struct {
	store     callDeps
	locker    Locker
	publisher pubsub.Publisher
	validate  *validator.Validate
	now       func() time.Time
}

func NewCallService(store callDeps, locker Locker, publisher pubsub.Publisher) *CallService {
	if locker == nil {
		locker = NewMemoryLocker()
	}
	return &CallService{
		store:     store,
		locker:    locker,
		publisher: publisher,
		validate:  validator.New(),
		now:       time.Now,
	}
}

func callLockKey(userID uuid.UUID) string {
	return "call:user:" + userID.String()
}

// InitiateCall создает звонок, если ни один из участников не занят другим звонком
func (s *CallService) InitiateCall(ctx context.Context, callerID, calleeID uuid.UUID) (*CallView, error) {
	if callerID == calleeID {
		return nil, fmt.Errorf("%w: cannot call yourself", ErrInvalidArgument)
	}

	caller, err := s.store.GetUser(ctx, callerID)
	if err != nil {
		return nil, storeErr(err, "caller %s", callerID)
	}
	callee, err := s.store.GetUser(ctx, calleeID)
	if err != nil {
		return nil, storeErr(err, "callee %s", calleeID)
	}

	unlock, err := s.locker.Lock(ctx, callLockKey(callerID), callLockKey(calleeID))
	if err != nil {
		return nil, fmt.Errorf("%w: call lock: %v", ErrUnavailable, err)
	}
	defer unlock()

	for _, id := range []uuid.UUID{callerID, calleeID} {
		if _, err := s.store.FindActiveCallByUser(ctx, id); err == nil {
			return nil, fmt.Errorf("%w: user is already in an active call", ErrConflict)
		} else if !isNotFound(err) {
			return nil, storeErr(err, "active call lookup")
		}
	}

	call := &models.VideoCall{
		CallerID:  callerID,
		CalleeID:  calleeID,
		Status:    models.CallInitiated,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateCall(ctx, call); err != nil {
		return nil, storeErr(err, "create call")
	}

	log.Info().
		Str("call_id", call.ID.String()).
		Str("caller", callerID.String()).
		Str("callee", calleeID.String()).
		Msg("call initiated")

	view := newCallView(call, caller, callee)
	publish(ctx, s.publisher, pubsub.VideoCallTopic(calleeID), view)

	return &view, nil
}

// HandleCallSignal применяет сигнал к звонку и пересылает его адресату toUserId
func (s *CallService) HandleCallSignal(ctx context.Context, signal CallSignal) error {
	if err := s.validate.Struct(signal); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	checkTarget := func(call *models.VideoCall) error {
		if signal.FromUserID != uuid.Nil && !call.HasParty(signal.FromUserID) {
			return fmt.Errorf("%w: sender is not a party of the call", ErrForbidden)
		}
		if !call.HasParty(signal.ToUserID) {
			return fmt.Errorf("%w: signal target is not a party of the call", ErrInvalidArgument)
		}
		return nil
	}

	switch signal.Type {
	case SignalAnswer, SignalICECandidate:
		// только пересылка
		call, err := s.store.GetCall(ctx, signal.CallID)
		if err != nil {
			return storeErr(err, "call %s", signal.CallID)
		}
		if err := checkTarget(call); err != nil {
			return err
		}

	default:
		_, err := s.mutate(ctx, signal.CallID, func(call *models.VideoCall) error {
			if err := checkTarget(call); err != nil {
				return err
			}

			switch signal.Type {
			case SignalOffer:
				return s.offer(ctx, call)
			case SignalAccept:
				return s.accept(ctx, call)
			case SignalReject:
				return s.reject(ctx, call)
			case SignalEnd:
				return s.endCall(ctx, call)
			}
			return nil
		})
		if err != nil {
			return err
		}
		// CALL_END обоим участникам уже разослал endCall
		if signal.Type == SignalEnd {
			return nil
		}
	}

	publish(ctx, s.publisher, pubsub.VideoSignalTopic(signal.ToUserID), signal)
	return nil
}

func (s *CallService) AcceptCall(ctx context.Context, callID uuid.UUID) (*CallView, error) {
	call, err := s.mutate(ctx, callID, func(call *models.VideoCall) error {
		return s.accept(ctx, call)
	})
	if err != nil {
		return nil, err
	}
	return s.broadcastCall(ctx, call)
}

func (s *CallService) RejectCall(ctx context.Context, callID uuid.UUID) (*CallView, error) {
	call, err := s.mutate(ctx, callID, func(call *models.VideoCall) error {
		return s.reject(ctx, call)
	})
	if err != nil {
		return nil, err
	}
	return s.broadcastCall(ctx, call)
}

// EndCall завершает звонок по id
func (s *CallService) EndCall(ctx context.Context, callID uuid.UUID) (*CallView, error) {
	call, err := s.mutate(ctx, callID, func(call *models.VideoCall) error {
		return s.endCall(ctx, call)
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, call)
}

// mutate перечитывает звонок под блокировкой по его id,
// так что ACCEPT и REJECT одного звонка не перетирают друг друга
func (s *CallService) mutate(ctx context.Context, callID uuid.UUID, fn func(call *models.VideoCall) error) (*models.VideoCall, error) {
	unlock, err := s.locker.Lock(ctx, "call:"+callID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: call lock: %v", ErrUnavailable, err)
	}
	defer unlock()

	call, err := s.store.GetCall(ctx, callID)
	if err != nil {
		return nil, storeErr(err, "call %s", callID)
	}
	if err := fn(call); err != nil {
		return nil, err
	}
	return call, nil
}

// GetCall отдает звонок только его участникам
func (s *CallService) GetCall(ctx context.Context, callID, userID uuid.UUID) (*CallView, error) {
	call, err := s.store.GetCall(ctx, callID)
	if err != nil {
		return nil, storeErr(err, "call %s", callID)
	}
	if !call.HasParty(userID) {
		return nil, fmt.Errorf("%w: not a party of the call", ErrForbidden)
	}
	return s.view(ctx, call)
}

// GetActiveCall возвращает nil, если у пользователя нет незавершенного звонка
func (s *CallService) GetActiveCall(ctx context.Context, userID uuid.UUID) (*CallView, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, storeErr(err, "user %s", userID)
	}

	call, err := s.store.FindActiveCallByUser(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, storeErr(err, "active call lookup")
	}
	return s.view(ctx, call)
}

// GetCallHistory - все звонки пользователя, новые первыми
func (s *CallService) GetCallHistory(ctx context.Context, userID uuid.UUID) ([]CallView, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, storeErr(err, "user %s", userID)
	}

	calls, err := s.store.ListCallsByUser(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "call history")
	}

	views := make([]CallView, 0, len(calls))
	for i := range calls {
		v, err := s.view(ctx, &calls[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// offer: INITIATED -> RINGING, в RINGING/ACCEPTED это пересогласование без смены статуса
func (s *CallService) offer(ctx context.Context, call *models.VideoCall) error {
	if call.Status.Terminal() {
		return fmt.Errorf("%w: call is already %s", ErrConflict, call.Status)
	}
	if call.Status != models.CallInitiated {
		return nil
	}

	call.Status = models.CallRinging
	if err := s.store.UpdateCall(ctx, call); err != nil {
		return storeErr(err, "update call")
	}
	return nil
}

func (s *CallService) accept(ctx context.Context, call *models.VideoCall) error {
	if call.Status != models.CallInitiated && call.Status != models.CallRinging {
		return fmt.Errorf("%w: cannot accept a call in status %s", ErrConflict, call.Status)
	}

	now := s.now()
	call.Status = models.CallAccepted
	call.StartedAt = &now
	if err := s.store.UpdateCall(ctx, call); err != nil {
		return storeErr(err, "update call")
	}
	return nil
}

func (s *CallService) reject(ctx context.Context, call *models.VideoCall) error {
	if call.Status != models.CallInitiated && call.Status != models.CallRinging {
		return fmt.Errorf("%w: cannot reject a call in status %s", ErrConflict, call.Status)
	}

	now := s.now()
	call.Status = models.CallRejected
	call.EndedAt = &now
	if err := s.store.UpdateCall(ctx, call); err != nil {
		return storeErr(err, "update call")
	}
	return nil
}

// endCall: длительность считается только для принятого звонка,
// CALL_END уходит обоим участникам независимо от инициатора
func (s *CallService) endCall(ctx context.Context, call *models.VideoCall) error {
	if call.Status.Terminal() {
		return fmt.Errorf("%w: call is already %s", ErrConflict, call.Status)
	}

	now := s.now()
	if call.Status == models.CallAccepted && call.StartedAt != nil {
		duration := int64(now.Sub(*call.StartedAt) / time.Second)
		call.DurationSeconds = &duration
	}
	call.EndedAt = &now
	call.Status = models.CallEnded

	if err := s.store.UpdateCall(ctx, call); err != nil {
		return storeErr(err, "update call")
	}

	log.Info().Str("call_id", call.ID.String()).Msg("call ended")

	end := CallSignal{CallID: call.ID, Type: SignalEnd}
	for _, id := range []uuid.UUID{call.CallerID, call.CalleeID} {
		end.ToUserID = id
		publish(ctx, s.publisher, pubsub.VideoSignalTopic(id), end)
	}
	return nil
}

func (s *CallService) broadcastCall(ctx context.Context, call *models.VideoCall) (*CallView, error) {
	view, err := s.view(ctx, call)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, pubsub.VideoCallTopic(call.CallerID), view)
	publish(ctx, s.publisher, pubsub.VideoCallTopic(call.CalleeID), view)
	return view, nil
}

func (s *CallService) view(ctx context.Context, call *models.VideoCall) (*CallView, error) {
	caller, err := s.store.GetUser(ctx, call.CallerID)
	if err != nil {
		return nil, storeErr(err, "caller %s", call.CallerID)
	}
	callee, err := s.store.GetUser(ctx, call.CalleeID)
	if err != nil {
		return nil, storeErr(err, "callee %s", call.CalleeID)
	}
	v := newCallView(call, caller, callee)
	return &v, nil
}

func newCallView(call *models.VideoCall, caller, callee *models.User) CallView {
	return CallView{
		ID:              call.ID,
		CallerID:        call.CallerID,
		CallerName:      caller.DisplayName(),
		CallerAvatar:    caller.AvatarURL,
		CalleeID:        call.CalleeID,
		CalleeName:      callee.DisplayName(),
		CalleeAvatar:    callee.AvatarURL,
		Status:          call.Status,
		CreatedAt:       call.CreatedAt,
		StartedAt:       call.StartedAt,
		EndedAt:         call.EndedAt,
		DurationSeconds: call.DurationSeconds,
	}
}
