package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"roombot/internal/models"
)

func TestFormatTimetable(t *testing.T) {
	items := []models.BookingItem{
		{Start: time.Date(2030, 6, 20, 10, 0, 0, 0, time.Local), Duration: 90 * time.Minute, Description: "review"},
		{Start: time.Date(2030, 6, 20, 15, 0, 0, 0, time.Local), Duration: time.Hour, Description: "1:1"},
		{Start: time.Date(2030, 6, 21, 9, 0, 0, 0, time.Local), Duration: 30 * time.Minute, Description: "standup"},
	}

	got := formatTimetable(items)
	want := "Расписание:\n\n" +
		"День 2030-06-20\n" +
		"10:00 - 11:30: review\n" +
		"15:00 - 16:00: 1:1\n\n" +
		"День 2030-06-21\n" +
		"09:00 - 09:30: standup"
	assert.Equal(t, want, got)
}

func TestFormatTimetableEmpty(t *testing.T) {
	assert.Equal(t, msgEmptyTimetable, formatTimetable(nil))
}

func TestFormatWhitelist(t *testing.T) {
	users := []models.User{
		{UserID: 1, Username: "alice"},
		{UserID: 2},
	}
	got := formatWhitelist(users)
	assert.Contains(t, got, "1 @alice")
	assert.Contains(t, got, "2 <?>")
}

func TestFormatUserInfo(t *testing.T) {
	u := &models.User{UserID: 1, ChatID: 100, Username: "alice", IsWhitelisted: true}
	got := formatUserInfo(u)
	assert.Contains(t, got, "id: 1")
	assert.Contains(t, got, "в белом списке: true")
}
