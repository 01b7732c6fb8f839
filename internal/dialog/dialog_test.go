package dialog

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roombot/internal/access"
	"roombot/internal/database"
	"roombot/internal/models"
	"roombot/internal/service"
	"roombot/internal/timeparse"
)

var testNow = time.Date(2030, 6, 15, 12, 0, 0, 0, time.Local)

var member = &models.User{UserID: 1, Username: "alice", IsWhitelisted: true}

func newTestManager(t *testing.T) (*Manager, *database.DB) {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	// Booking rows reference their owner, so the fixture users need rows.
	require.NoError(t, db.GrantWhitelist(context.Background(), []int64{1, 2}))

	logger := zerolog.New(io.Discard)
	norm := timeparse.New(15)
	norm.Now = func() time.Time { return testNow }

	engine := service.NewBookingService(db, access.Policy{}, &logger)
	mgr := NewManager(db, engine, norm, 2030, &logger)
	return mgr, db
}

func TestStartBooking(t *testing.T) {
	mgr, db := newTestManager(t)
	ctx := context.Background()

	reply, err := mgr.StartBooking(ctx, member.UserID)
	require.NoError(t, err)
	assert.Equal(t, PromptDate, reply.Text)
	require.NotNil(t, reply.Calendar)
	assert.Equal(t, 2030, reply.Calendar.Year)
	assert.Equal(t, 6, reply.Calendar.Month)

	st, err := db.GetState(ctx, member.UserID)
	require.NoError(t, err)
	require.True(t, st.Active())
	assert.Equal(t, models.FlowBook, st.Flow)
	require.NotNil(t, st.Book)
}

func TestStartFlowDropsPrevious(t *testing.T) {
	mgr, db := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.StartBooking(ctx, member.UserID)
	require.NoError(t, err)
	_, err = mgr.StartUnbooking(ctx, member.UserID)
	require.NoError(t, err)

	st, err := db.GetState(ctx, member.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.FlowUnbook, st.Flow)
	assert.Nil(t, st.Book)
}

func TestCalendarNavigation(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.StartBooking(ctx, member.UserID)
	require.NoError(t, err)

	reply, err := mgr.NextMonth(ctx, member.UserID)
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, 7, reply.Calendar.Month)

	reply, err = mgr.PrevMonth(ctx, member.UserID)
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, 6, reply.Calendar.Month)
}

func TestCalendarFloor(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.StartBooking(ctx, member.UserID)
	require.NoError(t, err)

	// Walk back to January of the floor year.
	for i := 0; i < 5; i++ {
		reply, err := mgr.PrevMonth(ctx, member.UserID)
		require.NoError(t, err)
		require.NotNil(t, reply)
	}

	// One more step must not move and must not ask for a re-render.
	reply, err := mgr.PrevMonth(ctx, member.UserID)
	require.NoError(t, err)
	assert.Nil(t, reply)
}

func TestCalendarNavigationWithoutFlow(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	reply, err := mgr.NextMonth(ctx, member.UserID)
	require.NoError(t, err)
	assert.Nil(t, reply)
}

func TestBookingFlowHappyPath(t *testing.T) {
	mgr, db := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.StartBooking(ctx, member.UserID)
	require.NoError(t, err)

	reply, err := mgr.SelectDay(ctx, member, 20)
	require.NoError(t, err)
	assert.Equal(t, PromptTime, reply.Text)

	reply, err = mgr.HandleText(ctx, member, "10:30")
	require.NoError(t, err)
	assert.Equal(t, PromptDuration, reply.Text)

	reply, err = mgr.HandleText(ctx, member, "90")
	require.NoError(t, err)
	assert.Equal(t, PromptDescription, reply.Text)

	reply, err = mgr.HandleText(ctx, member, "design review")
	require.NoError(t, err)
	assert.Equal(t, MsgBooked, reply.Text)
	assert.True(t, reply.Menu)

	// Flow is gone and the booking landed.
	st, err := db.GetState(ctx, member.UserID)
	require.NoError(t, err)
	assert.False(t, st.Active())

	item, err := db.FindBookingAt(ctx, time.Date(2030, 6, 20, 10, 30, 0, 0, time.Local))
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "design review", item.Description)
	assert.Equal(t, 90*time.Minute, item.Duration)
}

func TestBookingFlowQuantizesTime(t *testing.T) {
	mgr, db := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.StartBooking(ctx, member.UserID)
	require.NoError(t, err)
	_, err = mgr.SelectDay(ctx, member, 20)
	require.NoError(t, err)
	_, err = mgr.HandleText(ctx, member, "10:07")
	require.NoError(t, err)
	_, err = mgr.HandleText(ctx, member, "30")
	require.NoError(t, err)
	_, err = mgr.HandleText(ctx, member, "x")
	require.NoError(t, err)

	item, err := db.FindBookingAt(ctx, time.Date(2030, 6, 20, 10, 0, 0, 0, time.Local))
	require.NoError(t, err)
	require.NotNil(t, item)
}

func TestBookingFlowTypedDate(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.StartBooking(ctx, member.UserID)
	require.NoError(t, err)

	reply, err := mgr.HandleText(ctx, member, "20.06.2030")
	require.NoError(t, err)
	assert.Equal(t, PromptTime, reply.Text)
}

func TestBookingFlowBadInputClearsFlow(t *testing.T) {
	mgr, db := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.StartBooking(ctx, member.UserID)
	require.NoError(t, err)
	_, err = mgr.SelectDay(ctx, member, 20)
	require.NoError(t, err)

	_, err = mgr.HandleText(ctx, member, "half past ten")
	assert.ErrorIs(t, err, timeparse.ErrBadInput)

	st, err := db.GetState(ctx, member.UserID)
	require.NoError(t, err)
	assert.False(t, st.Active())
}

func TestBookingFlowEngineErrorClearsFlow(t *testing.T) {
	mgr, db := newTestManager(t)
	ctx := context.Background()

	taken := &models.BookingItem{
		Start:    time.Date(2030, 6, 20, 10, 0, 0, 0, time.Local),
		Duration: time.Hour, Description: "x", OwnerID: 2,
	}
	require.NoError(t, db.CreateBooking(ctx, taken))

	_, err := mgr.StartBooking(ctx, member.UserID)
	require.NoError(t, err)
	_, err = mgr.SelectDay(ctx, member, 20)
	require.NoError(t, err)
	_, err = mgr.HandleText(ctx, member, "10:00")
	require.NoError(t, err)
	_, err = mgr.HandleText(ctx, member, "60")
	require.NoError(t, err)

	_, err = mgr.HandleText(ctx, member, "clash")
	assert.ErrorIs(t, err, database.ErrTimeOccupied)

	st, err := db.GetState(ctx, member.UserID)
	require.NoError(t, err)
	assert.False(t, st.Active())
}

func TestBookingFlowEmptyDescriptionClearsFlow(t *testing.T) {
	mgr, db := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.StartBooking(ctx, member.UserID)
	require.NoError(t, err)
	_, err = mgr.SelectDay(ctx, member, 20)
	require.NoError(t, err)
	_, err = mgr.HandleText(ctx, member, "10:00")
	require.NoError(t, err)
	_, err = mgr.HandleText(ctx, member, "60")
	require.NoError(t, err)

	// A textless update reaches the description step as an empty string.
	_, err = mgr.HandleText(ctx, member, "")
	assert.ErrorIs(t, err, timeparse.ErrBadInput)

	st, err := db.GetState(ctx, member.UserID)
	require.NoError(t, err)
	assert.False(t, st.Active())

	item, err := db.FindBookingAt(ctx, time.Date(2030, 6, 20, 10, 0, 0, 0, time.Local))
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestUnbookingFlow(t *testing.T) {
	mgr, db := newTestManager(t)
	ctx := context.Background()

	item := &models.BookingItem{
		Start:    time.Date(2030, 6, 20, 10, 0, 0, 0, time.Local),
		Duration: time.Hour, Description: "mine", OwnerID: member.UserID,
	}
	require.NoError(t, db.CreateBooking(ctx, item))

	_, err := mgr.StartUnbooking(ctx, member.UserID)
	require.NoError(t, err)

	reply, err := mgr.SelectDay(ctx, member, 20)
	require.NoError(t, err)
	assert.Equal(t, PromptUnbookTime, reply.Text)
	require.Len(t, reply.Items, 1)

	reply, err = mgr.HandleText(ctx, member, "10:00")
	require.NoError(t, err)
	assert.Equal(t, MsgUnbooked, reply.Text)

	got, err := db.FindBookingAt(ctx, item.Start)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUnbookingFlowEmptyDay(t *testing.T) {
	mgr, db := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.StartUnbooking(ctx, member.UserID)
	require.NoError(t, err)

	_, err = mgr.SelectDay(ctx, member, 25)
	assert.ErrorIs(t, err, ErrDateEmpty)

	st, err := db.GetState(ctx, member.UserID)
	require.NoError(t, err)
	assert.False(t, st.Active())
}

func TestPickDateFlow(t *testing.T) {
	mgr, db := newTestManager(t)
	ctx := context.Background()

	item := &models.BookingItem{
		Start:    time.Date(2030, 6, 20, 10, 0, 0, 0, time.Local),
		Duration: time.Hour, Description: "x", OwnerID: 2,
	}
	require.NoError(t, db.CreateBooking(ctx, item))

	_, err := mgr.StartPickDate(ctx, member.UserID)
	require.NoError(t, err)

	reply, err := mgr.SelectDay(ctx, member, 20)
	require.NoError(t, err)
	require.Len(t, reply.Items, 1)
	assert.Equal(t, item.Start, reply.Items[0].Start)

	st, err := db.GetState(ctx, member.UserID)
	require.NoError(t, err)
	assert.False(t, st.Active())
}

func TestHandleTextWithoutFlow(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	reply, err := mgr.HandleText(ctx, member, "hello")
	require.NoError(t, err)
	assert.Nil(t, reply)
}

func TestCancel(t *testing.T) {
	mgr, db := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.StartBooking(ctx, member.UserID)
	require.NoError(t, err)

	reply, err := mgr.Cancel(ctx, member.UserID)
	require.NoError(t, err)
	assert.Equal(t, MsgCancelled, reply.Text)
	assert.True(t, reply.Menu)

	st, err := db.GetState(ctx, member.UserID)
	require.NoError(t, err)
	assert.False(t, st.Active())
}
