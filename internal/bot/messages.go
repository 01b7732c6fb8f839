package bot

const (
	msgStart = "Привет! Я бот бронирования переговорки.\n" +
		"Нажмите кнопку или используйте команды, /help — список команд."

	msgHelp = `Доступные команды:
/book — забронировать время
/unbook — снять свою бронь
/timetable [TODAY|дата] — расписание
/cancel — прервать текущее действие
/logmyinfo — мои данные

Для администраторов:
/whitelist — показать белый список
/whitelist_add ИМЯ — добавить в белый список
/whitelist_remove ИМЯ — убрать из белого списка
/contactlist — контакты пользователей
/unbook_force ДАТА ВРЕМЯ — снять любую бронь
/export — выгрузка расписания в xlsx`

	msgChooseAction = "Выберите действие:"

	msgNoAccess         = "Доступ запрещён."
	msgTimeOccupied     = "Это время уже занято."
	msgTimePassed       = "Это время уже прошло."
	msgBookingNotFound  = "Бронь на это время не найдена."
	msgDateEmpty        = "На эту дату броней нет."
	msgUsernameNotFound = "Пользователь с таким именем не найден."
	msgBadDateFormat    = "Неверный формат даты. Примеры: 2030-06-20, 20.06.2030, 20.06."
	msgBadInput         = "Не понял. Проверьте формат и попробуйте ещё раз."

	msgEmptyTimetable   = "Расписание пусто."
	msgWhitelistUpdated = "Белый список обновлён."
	msgBooked           = "Бронь создана."
	msgUnbooked         = "Бронь снята."
)

// Main menu button labels. They arrive as plain message text.
const (
	btnBook      = "📅 Забронировать"
	btnUnbook    = "❌ Снять бронь"
	btnTimetable = "🗓 Расписание"
	btnHelp      = "ℹ️ Помощь"
)
