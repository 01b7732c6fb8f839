// Package dialog drives the multi-turn conversation flows: booking,
// cancellation and date picking. Drafts and calendar cursors live in the
// state repository so a flow survives restarts and lands on any replica.
package dialog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"roombot/internal/models"
	"roombot/internal/service"
	"roombot/internal/state"
	"roombot/internal/timeparse"
)

// ErrDateEmpty terminates a cancellation flow when the selected day has no
// bookings to cancel.
var ErrDateEmpty = errors.New("date empty")

// Prompts and terminal messages shown inside flows.
const (
	PromptDate        = "Выберите дату:"
	PromptTime        = "Введите время начала (например 10:30):"
	PromptDuration    = "Введите длительность в минутах или ЧЧ:ММ:"
	PromptDescription = "Введите описание брони:"
	PromptUnbookTime  = "Введите время брони, которую нужно снять:"
	MsgBooked         = "Бронь создана."
	MsgUnbooked       = "Бронь снята."
	MsgCancelled      = "Действие отменено."
)

// Reply is what a dialog turn asks the transport to render. At most one of
// Calendar and Items is set; Menu asks for the main menu keyboard.
type Reply struct {
	Text     string
	Calendar *models.Calendar
	Items    []models.BookingItem
	Day      time.Time
	Menu     bool
}

// Manager owns the conversation flows. All methods serialize turns of the
// same user so concurrent messages cannot corrupt a draft.
type Manager struct {
	states  state.Repository
	engine  *service.BookingService
	norm    *timeparse.Normalizer
	minYear int
	logger  *zerolog.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewManager(states state.Repository, engine *service.BookingService, norm *timeparse.Normalizer, minYear int, logger *zerolog.Logger) *Manager {
	return &Manager{
		states:  states,
		engine:  engine,
		norm:    norm,
		minYear: minYear,
		logger:  logger,
		locks:   make(map[int64]*sync.Mutex),
	}
}

func (m *Manager) userLock(userID int64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	return l
}

func (m *Manager) currentCalendar() *models.Calendar {
	now := m.norm.Now()
	return &models.Calendar{Year: now.Year(), Month: int(now.Month())}
}

// StartBooking opens a fresh booking flow, dropping any flow in progress.
func (m *Manager) StartBooking(ctx context.Context, userID int64) (*Reply, error) {
	return m.startFlow(ctx, userID, models.FlowBook)
}

// StartUnbooking opens a fresh cancellation flow.
func (m *Manager) StartUnbooking(ctx context.Context, userID int64) (*Reply, error) {
	return m.startFlow(ctx, userID, models.FlowUnbook)
}

// StartPickDate opens the date picker for a timetable query.
func (m *Manager) StartPickDate(ctx context.Context, userID int64) (*Reply, error) {
	return m.startFlow(ctx, userID, models.FlowPickDate)
}

func (m *Manager) startFlow(ctx context.Context, userID int64, flow models.FlowType) (*Reply, error) {
	l := m.userLock(userID)
	l.Lock()
	defer l.Unlock()

	st := &models.UserState{
		UserID:   userID,
		Flow:     flow,
		Calendar: m.currentCalendar(),
	}
	switch flow {
	case models.FlowBook:
		st.Book = &models.BookDraft{}
	case models.FlowUnbook:
		st.Unbook = &models.UnbookDraft{}
	}
	if err := m.states.SetState(ctx, st); err != nil {
		return nil, err
	}
	return &Reply{Text: PromptDate, Calendar: st.Calendar}, nil
}

// Cancel drops whatever flow is active.
func (m *Manager) Cancel(ctx context.Context, userID int64) (*Reply, error) {
	l := m.userLock(userID)
	l.Lock()
	defer l.Unlock()

	if err := m.states.ClearState(ctx, userID); err != nil {
		return nil, err
	}
	return &Reply{Text: MsgCancelled, Menu: true}, nil
}

// NextMonth advances the calendar cursor. Nil reply when no flow is active.
func (m *Manager) NextMonth(ctx context.Context, userID int64) (*Reply, error) {
	l := m.userLock(userID)
	l.Lock()
	defer l.Unlock()

	st, err := m.states.GetState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !st.Active() || st.Calendar == nil {
		return nil, nil
	}
	st.Calendar.NextMonth()
	if err := m.states.SetState(ctx, st); err != nil {
		return nil, err
	}
	return &Reply{Text: PromptDate, Calendar: st.Calendar}, nil
}

// PrevMonth moves the cursor back. At the floor year the cursor stays and a
// nil reply tells the caller not to re-render.
func (m *Manager) PrevMonth(ctx context.Context, userID int64) (*Reply, error) {
	l := m.userLock(userID)
	l.Lock()
	defer l.Unlock()

	st, err := m.states.GetState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !st.Active() || st.Calendar == nil {
		return nil, nil
	}
	if !st.Calendar.PrevMonth(m.minYear) {
		return nil, nil
	}
	if err := m.states.SetState(ctx, st); err != nil {
		return nil, err
	}
	return &Reply{Text: PromptDate, Calendar: st.Calendar}, nil
}

// SelectDay resolves a pressed day against the cursor and advances the flow.
func (m *Manager) SelectDay(ctx context.Context, user *models.User, day int) (*Reply, error) {
	l := m.userLock(user.UserID)
	l.Lock()
	defer l.Unlock()

	st, err := m.states.GetState(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	if !st.Active() || st.Calendar == nil {
		return nil, nil
	}
	date := st.Calendar.Date(day, time.Local)

	switch st.Flow {
	case models.FlowPickDate:
		if err := m.states.ClearState(ctx, user.UserID); err != nil {
			return nil, err
		}
		return m.dayTimetable(ctx, user, date)

	case models.FlowBook:
		st.Book.Date = date.Format("2006-01-02")
		if err := m.states.SetState(ctx, st); err != nil {
			return nil, err
		}
		return &Reply{Text: PromptTime}, nil

	case models.FlowUnbook:
		reply, err := m.dayTimetable(ctx, user, date)
		if err != nil {
			m.clearOnError(ctx, user.UserID)
			return nil, err
		}
		if len(reply.Items) == 0 {
			m.clearOnError(ctx, user.UserID)
			return nil, ErrDateEmpty
		}
		st.Unbook.Date = date.Format("2006-01-02")
		if err := m.states.SetState(ctx, st); err != nil {
			return nil, err
		}
		reply.Text = PromptUnbookTime
		return reply, nil
	}
	return nil, nil
}

// HandleText feeds one free-text turn into the active flow. Nil reply when
// no flow expects text.
func (m *Manager) HandleText(ctx context.Context, user *models.User, text string) (*Reply, error) {
	l := m.userLock(user.UserID)
	l.Lock()
	defer l.Unlock()

	st, err := m.states.GetState(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	if !st.Active() {
		return nil, nil
	}

	switch st.Flow {
	case models.FlowBook:
		return m.bookingTurn(ctx, user, st, text)
	case models.FlowUnbook:
		return m.unbookingTurn(ctx, user, st, text)
	case models.FlowPickDate:
		// Typed date instead of a calendar press.
		date, err := m.norm.ParseDate(text)
		if err != nil {
			m.clearOnError(ctx, user.UserID)
			return nil, err
		}
		if err := m.states.ClearState(ctx, user.UserID); err != nil {
			return nil, err
		}
		return m.dayTimetable(ctx, user, date)
	}
	return nil, nil
}

// bookingTurn fills the next unfilled draft field: date (when typed), time,
// duration, description. The final field hands the draft to the engine.
func (m *Manager) bookingTurn(ctx context.Context, user *models.User, st *models.UserState, text string) (*Reply, error) {
	draft := st.Book
	switch {
	case draft.Date == "":
		date, err := m.norm.ParseDate(text)
		if err != nil {
			m.clearOnError(ctx, user.UserID)
			return nil, err
		}
		draft.Date = date.Format("2006-01-02")
		if err := m.states.SetState(ctx, st); err != nil {
			return nil, err
		}
		return &Reply{Text: PromptTime}, nil

	case draft.Time == "":
		tod, err := m.norm.ParseTime(text)
		if err != nil {
			m.clearOnError(ctx, user.UserID)
			return nil, err
		}
		draft.Time = timeOfDayString(tod)
		if err := m.states.SetState(ctx, st); err != nil {
			return nil, err
		}
		return &Reply{Text: PromptDuration}, nil

	case draft.Duration == "":
		if _, err := m.norm.ParseDuration(text); err != nil {
			m.clearOnError(ctx, user.UserID)
			return nil, err
		}
		draft.Duration = text
		if err := m.states.SetState(ctx, st); err != nil {
			return nil, err
		}
		return &Reply{Text: PromptDescription}, nil

	default:
		draft.Description = text
		start, err := m.norm.ParseDateTime(draft.Date, draft.Time)
		if err != nil {
			m.clearOnError(ctx, user.UserID)
			return nil, err
		}
		duration, err := m.norm.ParseDuration(draft.Duration)
		if err != nil {
			m.clearOnError(ctx, user.UserID)
			return nil, err
		}
		item := &models.BookingItem{Start: start, Duration: duration, Description: draft.Description}
		if err := m.engine.Book(ctx, user, item); err != nil {
			m.clearOnError(ctx, user.UserID)
			return nil, err
		}
		if err := m.states.ClearState(ctx, user.UserID); err != nil {
			return nil, err
		}
		return &Reply{Text: MsgBooked, Menu: true}, nil
	}
}

// unbookingTurn expects the start time of the booking to cancel.
func (m *Manager) unbookingTurn(ctx context.Context, user *models.User, st *models.UserState, text string) (*Reply, error) {
	if st.Unbook.Date == "" {
		// Date not picked yet; accept a typed one.
		date, err := m.norm.ParseDate(text)
		if err != nil {
			m.clearOnError(ctx, user.UserID)
			return nil, err
		}
		st.Unbook.Date = date.Format("2006-01-02")
		if err := m.states.SetState(ctx, st); err != nil {
			return nil, err
		}
		return &Reply{Text: PromptUnbookTime}, nil
	}

	at, err := m.norm.ParseDateTime(st.Unbook.Date, text)
	if err != nil {
		m.clearOnError(ctx, user.UserID)
		return nil, err
	}
	if _, err := m.engine.Unbook(ctx, user, at, false); err != nil {
		m.clearOnError(ctx, user.UserID)
		return nil, err
	}
	if err := m.states.ClearState(ctx, user.UserID); err != nil {
		return nil, err
	}
	return &Reply{Text: MsgUnbooked, Menu: true}, nil
}

func (m *Manager) dayTimetable(ctx context.Context, user *models.User, day time.Time) (*Reply, error) {
	from := day
	to := day.AddDate(0, 0, 1)
	items, err := m.engine.Timetable(ctx, user, &from, &to)
	if err != nil {
		return nil, err
	}
	return &Reply{Items: items, Day: day}, nil
}

// clearOnError drops the flow before an error surfaces so no half-filled
// draft survives. The clear failure itself is only logged.
func (m *Manager) clearOnError(ctx context.Context, userID int64) {
	if err := m.states.ClearState(ctx, userID); err != nil {
		m.logger.Error().Err(err).Int64("user_id", userID).Msg("clear state after flow error")
	}
}

func timeOfDayString(tod timeparse.TimeOfDay) string {
	return time.Date(0, 1, 1, tod.Hour, tod.Minute, 0, 0, time.UTC).Format("15:04")
}
