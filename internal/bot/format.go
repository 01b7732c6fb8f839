package bot

import (
	"fmt"
	"strings"

	"roombot/internal/models"
)

// formatTimetable renders bookings grouped by calendar day.
func formatTimetable(items []models.BookingItem) string {
	if len(items) == 0 {
		return msgEmptyTimetable
	}
	var sb strings.Builder
	sb.WriteString("Расписание:")
	currentDay := ""
	for _, item := range items {
		day := item.Start.Format("2006-01-02")
		if day != currentDay {
			sb.WriteString("\n\nДень " + day)
			currentDay = day
		}
		sb.WriteString(fmt.Sprintf("\n%s - %s: %s",
			item.Start.Format("15:04"), item.End().Format("15:04"), item.Description))
	}
	return sb.String()
}

// displayName is the stored handle with an @ prefix, or a placeholder for
// users who hide their username.
func displayName(u models.User) string {
	if u.Username == "" {
		return "<?>"
	}
	return "@" + u.Username
}

func formatWhitelist(users []models.User) string {
	if len(users) == 0 {
		return "Белый список пуст."
	}
	var sb strings.Builder
	sb.WriteString("Белый список:")
	for _, u := range users {
		sb.WriteString(fmt.Sprintf("\n%d %s", u.UserID, displayName(u)))
	}
	return sb.String()
}

func formatContactList(users []models.User) string {
	if len(users) == 0 {
		return "Контактов нет."
	}
	var sb strings.Builder
	sb.WriteString("Контакты:")
	for _, u := range users {
		sb.WriteString(fmt.Sprintf("\n%s — id %d, chat %d", displayName(u), u.UserID, u.ChatID))
	}
	return sb.String()
}

func formatUserInfo(u *models.User) string {
	return fmt.Sprintf("id: %d\nchat: %d\nимя: %s\nадмин: %t\nв белом списке: %t",
		u.UserID, u.ChatID, u.Username, u.IsAdmin, u.IsWhitelisted)
}
