// Package bot is the Telegram boundary: it routes commands, button presses
// and free text into the dialog manager and the booking engine, and renders
// their results.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"roombot/internal/access"
	"roombot/internal/dialog"
	"roombot/internal/export"
	"roombot/internal/metrics"
	"roombot/internal/models"
	"roombot/internal/service"
	"roombot/internal/timeparse"
)

type telegramClient interface {
	Send(tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	SelfUser() tgbotapi.User
}

type realTelegramClient struct {
	api *tgbotapi.BotAPI
}

func (c *realTelegramClient) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	return c.api.Send(msg)
}

func (c *realTelegramClient) Request(msg tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return c.api.Request(msg)
}

func (c *realTelegramClient) GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return c.api.GetUpdatesChan(cfg)
}

func (c *realTelegramClient) SelfUser() tgbotapi.User {
	return c.api.Self
}

type Bot struct {
	tg      telegramClient
	engine  *service.BookingService
	dialogs *dialog.Manager
	policy  access.Policy
	norm    *timeparse.Normalizer
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

func New(
	token string,
	engine *service.BookingService,
	dialogs *dialog.Manager,
	policy access.Policy,
	norm *timeparse.Normalizer,
	sendRate float64,
	logger *zerolog.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return NewWithTelegramClient(&realTelegramClient{api: api}, engine, dialogs, policy, norm, sendRate, logger)
}

// NewWithTelegramClient allows injecting a mocked Telegram client for tests.
func NewWithTelegramClient(
	tg telegramClient,
	engine *service.BookingService,
	dialogs *dialog.Manager,
	policy access.Policy,
	norm *timeparse.Normalizer,
	sendRate float64,
	logger *zerolog.Logger,
) (*Bot, error) {
	if tg == nil {
		return nil, fmt.Errorf("telegram client is nil")
	}
	if sendRate <= 0 {
		sendRate = 25 // Telegram caps bots around 30 msg/s
	}
	return &Bot{
		tg:      tg,
		engine:  engine,
		dialogs: dialogs,
		policy:  policy,
		norm:    norm,
		limiter: rate.NewLimiter(rate.Limit(sendRate), 1),
		logger:  logger,
	}, nil
}

// Start polls updates until the context is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.GetUpdatesChan(u)
	b.logger.Info().Str("username", b.tg.SelfUser().UserName).Msg("bot authorized")

	for {
		select {
		case <-ctx.Done():
			return
		case update := <-updates:
			requestID := uuid.New().String()
			l := b.logger.With().Str("request_id", requestID).Logger()
			b.handleUpdate(l.WithContext(ctx), &update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	l := zerolog.Ctx(ctx)
	if update.CallbackQuery != nil {
		metrics.IncUpdate("callback")
		l.Debug().
			Int64("user_id", update.CallbackQuery.From.ID).
			Str("data", update.CallbackQuery.Data).
			Msg("handling callback query")
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message != nil {
		metrics.IncUpdate("message")
		l.Debug().
			Int64("user_id", update.Message.From.ID).
			Str("text", update.Message.Text).
			Msg("handling message")
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || msg.From == nil {
		return
	}
	user, err := b.engine.Identify(ctx, msg.From.ID, msg.Chat.ID, msg.From.UserName)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("identify user")
		return
	}
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch text {
	case btnBook:
		b.startFlow(ctx, user, chatID, b.dialogs.StartBooking)
		return
	case btnUnbook:
		b.startFlow(ctx, user, chatID, b.dialogs.StartUnbooking)
		return
	case btnTimetable:
		b.runFlow(ctx, user, chatID, b.dialogs.StartPickDate)
		return
	case btnHelp:
		b.send(ctx, tgbotapi.NewMessage(chatID, msgHelp))
		return
	}

	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, user, chatID, text)
		return
	}

	reply, err := b.dialogs.HandleText(ctx, user, text)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	if reply == nil {
		prompt := tgbotapi.NewMessage(chatID, msgChooseAction)
		prompt.ReplyMarkup = mainMenu
		b.send(ctx, prompt)
		return
	}
	b.sendReply(ctx, chatID, reply)
}

// startFlow gates flow entry on the whitelist so a refused user never gets
// a calendar they cannot use. Timetable browsing is open to everyone and
// enters through runFlow directly.
func (b *Bot) startFlow(ctx context.Context, user *models.User, chatID int64,
	start func(context.Context, int64) (*dialog.Reply, error)) {
	if !b.policy.IsWhitelisted(user) {
		b.replyError(ctx, chatID, service.ErrNoAccess)
		return
	}
	b.runFlow(ctx, user, chatID, start)
}

func (b *Bot) runFlow(ctx context.Context, user *models.User, chatID int64,
	start func(context.Context, int64) (*dialog.Reply, error)) {
	reply, err := start(ctx, user.UserID)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.sendReply(ctx, chatID, reply)
}

func (b *Bot) handleCommand(ctx context.Context, user *models.User, chatID int64, text string) {
	fields := strings.Fields(text)
	cmd := strings.SplitN(fields[0], "@", 2)[0]
	args := fields[1:]

	switch cmd {
	case "/start":
		if _, err := b.dialogs.Cancel(ctx, user.UserID); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("reset flow on /start")
		}
		msg := tgbotapi.NewMessage(chatID, msgStart)
		msg.ReplyMarkup = mainMenu
		b.send(ctx, msg)

	case "/help":
		b.send(ctx, tgbotapi.NewMessage(chatID, msgHelp))

	case "/book":
		switch {
		case len(args) == 0:
			b.startFlow(ctx, user, chatID, b.dialogs.StartBooking)
		case len(args) >= 4:
			b.bookDirect(ctx, user, chatID, args)
		default:
			b.replyError(ctx, chatID, errBadArity)
		}

	case "/unbook":
		switch {
		case len(args) == 0:
			b.startFlow(ctx, user, chatID, b.dialogs.StartUnbooking)
		case len(args) == 2:
			b.unbookDirect(ctx, user, chatID, args[0], args[1], false)
		default:
			b.replyError(ctx, chatID, errBadArity)
		}

	case "/unbook_force":
		if len(args) != 2 {
			b.replyError(ctx, chatID, errBadArity)
			return
		}
		b.unbookDirect(ctx, user, chatID, args[0], args[1], true)

	case "/timetable":
		b.handleTimetable(ctx, user, chatID, args)

	case "/whitelist":
		users, err := b.engine.Whitelist(ctx, user)
		if err != nil {
			b.replyError(ctx, chatID, err)
			return
		}
		b.send(ctx, tgbotapi.NewMessage(chatID, formatWhitelist(users)))

	case "/whitelist_add":
		b.changeWhitelist(ctx, user, chatID, args, b.engine.AddToWhitelist)

	case "/whitelist_remove":
		b.changeWhitelist(ctx, user, chatID, args, b.engine.RemoveFromWhitelist)

	case "/contactlist":
		users, err := b.engine.Whitelist(ctx, user)
		if err != nil {
			b.replyError(ctx, chatID, err)
			return
		}
		b.send(ctx, tgbotapi.NewMessage(chatID, formatContactList(users)))

	case "/logmyinfo":
		b.send(ctx, tgbotapi.NewMessage(chatID, formatUserInfo(user)))

	case "/cancel":
		reply, err := b.dialogs.Cancel(ctx, user.UserID)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("cancel flow")
			return
		}
		b.sendReply(ctx, chatID, reply)

	case "/export":
		b.handleExport(ctx, user, chatID)

	default:
		prompt := tgbotapi.NewMessage(chatID, msgChooseAction)
		prompt.ReplyMarkup = mainMenu
		b.send(ctx, prompt)
	}
}

func (b *Bot) bookDirect(ctx context.Context, user *models.User, chatID int64, args []string) {
	start, err := b.norm.ParseDateTime(args[0], args[1])
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	duration, err := b.norm.ParseDuration(args[2])
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	item := &models.BookingItem{
		Start:       start,
		Duration:    duration,
		Description: strings.Join(args[3:], " "),
	}
	if err := b.engine.Book(ctx, user, item); err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.send(ctx, tgbotapi.NewMessage(chatID, msgBooked))
}

func (b *Bot) unbookDirect(ctx context.Context, user *models.User, chatID int64, dateArg, timeArg string, force bool) {
	at, err := b.norm.ParseDateTime(dateArg, timeArg)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	if _, err := b.engine.Unbook(ctx, user, at, force); err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.send(ctx, tgbotapi.NewMessage(chatID, msgUnbooked))
}

func (b *Bot) handleTimetable(ctx context.Context, user *models.User, chatID int64, args []string) {
	var from, to *time.Time
	switch len(args) {
	case 0:
		// Without arguments the timeline runs from the current moment onward.
		now := b.norm.Now()
		from = &now
	case 1:
		var day time.Time
		if strings.EqualFold(args[0], "today") {
			now := b.norm.Now()
			day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
		} else {
			var err error
			day, err = b.norm.ParseDate(args[0])
			if err != nil {
				b.replyError(ctx, chatID, err)
				return
			}
		}
		end := day.AddDate(0, 0, 1)
		from, to = &day, &end
	default:
		b.replyError(ctx, chatID, errBadArity)
		return
	}

	items, err := b.engine.Timetable(ctx, user, from, to)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.send(ctx, tgbotapi.NewMessage(chatID, formatTimetable(items)))
}

func (b *Bot) changeWhitelist(ctx context.Context, user *models.User, chatID int64, args []string,
	op func(context.Context, *models.User, string) error) {
	if len(args) != 1 {
		b.replyError(ctx, chatID, errBadArity)
		return
	}
	username := strings.TrimPrefix(args[0], "@")
	if err := op(ctx, user, username); err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.send(ctx, tgbotapi.NewMessage(chatID, msgWhitelistUpdated))
}

func (b *Bot) handleExport(ctx context.Context, user *models.User, chatID int64) {
	if !b.policy.IsAdmin(user) {
		b.replyError(ctx, chatID, service.ErrNoAccess)
		return
	}
	items, err := b.engine.Timetable(ctx, user, nil, nil)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	data, err := export.Timetable(items)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("build timetable export")
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  "timetable.xlsx",
		Bytes: data,
	})
	b.send(ctx, doc)
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq == nil || cq.Message == nil {
		return
	}
	if _, err := b.tg.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("answer callback")
	}
	data := cq.Data
	if data == "noop" {
		return
	}

	chatID := cq.Message.Chat.ID
	user, err := b.engine.Identify(ctx, cq.From.ID, chatID, cq.From.UserName)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("identify user")
		return
	}

	switch {
	case data == "cal:prev":
		reply, err := b.dialogs.PrevMonth(ctx, user.UserID)
		if err != nil {
			b.replyError(ctx, chatID, err)
			return
		}
		b.editCalendar(ctx, chatID, cq.Message.MessageID, reply)

	case data == "cal:next":
		reply, err := b.dialogs.NextMonth(ctx, user.UserID)
		if err != nil {
			b.replyError(ctx, chatID, err)
			return
		}
		b.editCalendar(ctx, chatID, cq.Message.MessageID, reply)

	case strings.HasPrefix(data, "day:"):
		day, err := strconv.Atoi(strings.TrimPrefix(data, "day:"))
		if err != nil {
			return
		}
		reply, err := b.dialogs.SelectDay(ctx, user, day)
		if err != nil {
			b.replyError(ctx, chatID, err)
			return
		}
		b.sendReply(ctx, chatID, reply)
	}
}

// editCalendar re-renders the month grid in place. A nil reply means the
// cursor did not move and the message stays as is.
func (b *Bot) editCalendar(ctx context.Context, chatID int64, messageID int, reply *dialog.Reply) {
	if reply == nil || reply.Calendar == nil {
		return
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, reply.Text, calendarKeyboard(reply.Calendar))
	b.send(ctx, edit)
}

func (b *Bot) sendReply(ctx context.Context, chatID int64, reply *dialog.Reply) {
	if reply == nil {
		return
	}
	text := reply.Text
	if !reply.Day.IsZero() {
		tt := formatTimetable(reply.Items)
		if text != "" {
			text = tt + "\n\n" + text
		} else {
			text = tt
		}
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if reply.Calendar != nil {
		msg.ReplyMarkup = calendarKeyboard(reply.Calendar)
	} else if reply.Menu {
		msg.ReplyMarkup = mainMenu
	}
	b.send(ctx, msg)
}

func (b *Bot) replyError(ctx context.Context, chatID int64, err error) {
	text, reason, ok := errorMessage(err)
	if !ok {
		// Operational failure, not a user mistake. Keep it loud in the logs
		// and do not disguise it as a refusal.
		zerolog.Ctx(ctx).Error().Err(err).Msg("operation failed")
		return
	}
	metrics.IncRefusal(reason)
	b.send(ctx, tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) {
	if err := b.limiter.Wait(ctx); err != nil {
		return
	}
	if _, err := b.tg.Send(c); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("send message")
	}
}
