package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"genmarket-bot/internal/config"
	"genmarket-bot/internal/generator"
	"genmarket-bot/internal/models"
	"genmarket-bot/internal/service"
	"genmarket-bot/internal/session"
)

const countdownStep = 5 * time.Second

type Bot struct {
	cfg        config.Config
	api        *tgbotapi.BotAPI
	log        *slog.Logger
	ledger     *service.LedgerService
	rewards    *service.RewardService
	generation *service.GenerationService
	sessions   session.Store

	mu         sync.Mutex
	countdowns map[int64]context.CancelFunc
}

func NewBot(cfg config.Config, api *tgbotapi.BotAPI, log *slog.Logger, ledger *service.LedgerService, rewards *service.RewardService, generation *service.GenerationService, sessions session.Store) *Bot {
	return &Bot{
		cfg:        cfg,
		api:        api,
		log:        log,
		ledger:     ledger,
		rewards:    rewards,
		generation: generation,
		sessions:   sessions,
		countdowns: make(map[int64]context.CancelFunc),
	}
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("telegram bot started")

	for {
		select {
		case update := <-updates:
			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			} else if update.CallbackQuery != nil {
				b.handleCallback(ctx, update.CallbackQuery)
			}
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	state, err := b.sessions.Current(ctx, msg.Chat.ID)
	if err != nil {
		b.log.Error("load session", "chat_id", msg.Chat.ID, "err", err)
		return
	}
	if state == nil {
		b.sendMenu(msg.Chat.ID, "Выберите действие:")
		return
	}

	switch state.Kind {
	case session.KindAwaitingTextPrompt, session.KindAwaitingImagePrompt, session.KindAwaitingAudioPrompt:
		b.handlePrompt(ctx, msg, state)
	case session.KindWatchingAd:
		b.sendText(msg.Chat.ID, "Сначала досмотрите рекламу и нажмите «✅ Я посмотрел».")
	default:
		b.sendMenu(msg.Chat.ID, "Выберите действие:")
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		account, _, err := b.ensureAccount(ctx, msg.From, msg.Chat.ID)
		if err != nil {
			b.log.Error("ensure account", "err", err)
			return
		}
		text := fmt.Sprintf(
			"Привет, %s!\n\nЯ генерирую тексты, картинки и озвучку.\nЦены: текст — %s, картинка — %s, озвучка — от %s.\n\nБаланс можно пополнить или заработать, смотря рекламу: %s за просмотр, до %d раз в день. За %d просмотров в день — бонус %s!\n\nВаш баланс: %s",
			displayName(msg.From),
			money(b.cfg.PriceText), money(b.cfg.PriceImage), money(b.cfg.PriceAudioShort),
			money(b.cfg.AdRewardAmount), b.cfg.MaxAdsPerDay, b.cfg.DailyBonusThreshold, money(b.cfg.DailyBonusAmount),
			money(account.Balance),
		)
		b.sendMenu(msg.Chat.ID, text)
	case "balance":
		b.showBalance(ctx, msg.From, msg.Chat.ID)
	case "orders":
		b.showOrders(ctx, msg.From, msg.Chat.ID)
	case "menu":
		b.sendMenu(msg.Chat.ID, "Выберите действие:")
	default:
		b.sendText(msg.Chat.ID, "Неизвестная команда. Отправьте /start.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	switch {
	case cb.Data == cbGenText:
		b.ack(cb.ID, "")
		b.enterGeneration(ctx, cb.From, chatID, models.CategoryText)
	case cb.Data == cbGenImage:
		b.ack(cb.ID, "")
		b.enterGeneration(ctx, cb.From, chatID, models.CategoryImage)
	case cb.Data == cbGenAudio:
		b.ack(cb.ID, "")
		b.enterGeneration(ctx, cb.From, chatID, models.CategoryAudio)
	case cb.Data == cbWatchAd:
		b.ack(cb.ID, "")
		b.startAdWatch(ctx, cb.From, chatID)
	case strings.HasPrefix(cb.Data, cbConfirmAdPrefix):
		b.confirmAdWatch(ctx, cb, chatID, strings.TrimPrefix(cb.Data, cbConfirmAdPrefix))
	case cb.Data == cbCancelAd:
		b.ack(cb.ID, "Просмотр отменён")
		b.cancelCountdown(chatID)
		b.clearSession(ctx, chatID)
		b.sendMenu(chatID, "Просмотр рекламы отменён.")
	case cb.Data == cbClaimBonus:
		b.ack(cb.ID, "")
		b.claimDailyBonus(ctx, cb.From, chatID)
	case cb.Data == cbAdStats:
		b.ack(cb.ID, "")
		b.showAdStats(ctx, cb.From, chatID)
	case cb.Data == cbTopUp:
		b.ack(cb.ID, "")
		b.sendWithKeyboard(chatID, fmt.Sprintf("Выберите сумму пополнения (от %s до %s):", money(b.cfg.MinPaymentAmount), money(b.cfg.MaxPaymentAmount)), topUpKeyboard(b.cfg.Currency, b.cfg.FreeTrialAmount))
	case strings.HasPrefix(cb.Data, cbTopUpPrefix):
		b.ack(cb.ID, "")
		b.createTopUp(ctx, cb.From, chatID, strings.TrimPrefix(cb.Data, cbTopUpPrefix))
	case cb.Data == cbFreeTrial:
		b.ack(cb.ID, "")
		b.grantFreeTrial(ctx, cb.From, chatID)
	case cb.Data == cbOrders:
		b.ack(cb.ID, "")
		b.showOrders(ctx, cb.From, chatID)
	case cb.Data == cbBalance:
		b.ack(cb.ID, "")
		b.showBalance(ctx, cb.From, chatID)
	case cb.Data == cbMenu:
		b.ack(cb.ID, "")
		b.sendMenu(chatID, "Выберите действие:")
	default:
		b.ack(cb.ID, "Неизвестный выбор")
	}
}

// enterGeneration snapshots the current prices into the session, so the cost
// shown here is the cost that will be charged, whatever happens to config in
// between.
func (b *Bot) enterGeneration(ctx context.Context, from *tgbotapi.User, chatID int64, category models.OrderCategory) {
	if _, _, err := b.ensureAccount(ctx, from, chatID); err != nil {
		b.log.Error("ensure account", "err", err)
		return
	}
	quote := b.generation.QuoteFor(category)
	state := session.State{
		Cost:      quote.Cost,
		LongCost:  quote.LongCost,
		EnteredAt: time.Now().UTC(),
	}

	var text string
	switch category {
	case models.CategoryText:
		state.Kind = session.KindAwaitingTextPrompt
		text = fmt.Sprintf("Пришлите запрос для генерации текста.\nСтоимость: %s", money(quote.Cost))
	case models.CategoryImage:
		state.Kind = session.KindAwaitingImagePrompt
		text = fmt.Sprintf("Опишите картинку, которую нужно сгенерировать.\nСтоимость: %s", money(quote.Cost))
	case models.CategoryAudio:
		state.Kind = session.KindAwaitingAudioPrompt
		text = fmt.Sprintf("Пришлите текст для озвучки.\nДо %d символов — %s, длиннее — %s.", b.cfg.AudioShortMaxChars, money(quote.Cost), money(quote.LongCost))
	}

	if err := b.sessions.Enter(ctx, chatID, state); err != nil {
		b.log.Error("enter session", "chat_id", chatID, "err", err)
		return
	}
	b.sendText(chatID, text)
}

func (b *Bot) handlePrompt(ctx context.Context, msg *tgbotapi.Message, state *session.State) {
	prompt := strings.TrimSpace(msg.Text)
	if prompt == "" {
		b.sendText(msg.Chat.ID, "Запрос не может быть пустым.")
		return
	}
	account, _, err := b.ensureAccount(ctx, msg.From, msg.Chat.ID)
	if err != nil {
		b.log.Error("ensure account", "err", err)
		return
	}

	category, ok := categoryForKind(state.Kind)
	if !ok {
		b.clearSession(ctx, msg.Chat.ID)
		b.sendMenu(msg.Chat.ID, "Выберите действие:")
		return
	}
	quote := service.Quote{Cost: state.Cost, LongCost: state.LongCost}
	cost := quote.Resolve(category, prompt, b.cfg.AudioShortMaxChars)

	b.sendText(msg.Chat.ID, "Генерация началась, это может занять до пары минут…")

	order, result, err := b.generation.Run(ctx, account, category, prompt, cost)
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		b.sendText(msg.Chat.ID, "Запрос должен быть от 3 до 1000 символов. Попробуйте ещё раз.")
		return
	case errors.Is(err, service.ErrInsufficientFunds):
		b.clearSession(ctx, msg.Chat.ID)
		b.sendWithKeyboard(msg.Chat.ID, fmt.Sprintf("Недостаточно средств: нужно %s, на балансе %s.\nПополните баланс или посмотрите рекламу.", money(cost), money(account.Balance)), mainMenuKeyboard())
		return
	case errors.Is(err, service.ErrUpstreamUnavailable):
		b.clearSession(ctx, msg.Chat.ID)
		b.sendText(msg.Chat.ID, "Сервис генерации временно недоступен, средства не списаны. Попробуйте позже.")
		return
	case err != nil:
		b.log.Error("generation", "err", err)
		b.clearSession(ctx, msg.Chat.ID)
		b.sendText(msg.Chat.ID, "Не удалось выполнить генерацию, попробуйте позже.")
		return
	}

	b.clearSession(ctx, msg.Chat.ID)
	b.deliver(msg.Chat.ID, category, order, result)
	b.sendMenu(msg.Chat.ID, fmt.Sprintf("Списано %s. Баланс: %s", money(cost), money(account.Balance)))
}

func (b *Bot) deliver(chatID int64, category models.OrderCategory, order *models.Order, result *generator.Result) {
	switch category {
	case models.CategoryText:
		b.sendText(chatID, result.Summary)
	case models.CategoryImage:
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(result.Summary))
		if _, err := b.api.Send(photo); err != nil {
			b.log.Error("send image", "err", err)
			b.sendText(chatID, result.Summary)
		}
	case models.CategoryAudio:
		var audio tgbotapi.AudioConfig
		if len(result.Data) > 0 {
			audio = tgbotapi.NewAudio(chatID, tgbotapi.FileBytes{Name: "speech.mp3", Bytes: result.Data})
		} else {
			audio = tgbotapi.NewAudio(chatID, tgbotapi.FileURL(order.Result))
		}
		if _, err := b.api.Send(audio); err != nil {
			b.log.Error("send audio", "err", err)
		}
	}
}

func (b *Bot) startAdWatch(ctx context.Context, from *tgbotapi.User, chatID int64) {
	account, _, err := b.ensureAccount(ctx, from, chatID)
	if err != nil {
		b.log.Error("ensure account", "err", err)
		return
	}

	view, err := b.rewards.StartAdView(ctx, account)
	switch {
	case errors.Is(err, service.ErrDailyLimitReached):
		b.sendText(chatID, fmt.Sprintf("Лимит на сегодня исчерпан (%d просмотров). Возвращайтесь завтра!", b.cfg.MaxAdsPerDay))
		return
	case errors.Is(err, service.ErrCooldownActive):
		b.sendText(chatID, "Следующий просмотр будет доступен чуть позже.")
		return
	case err != nil:
		b.log.Error("start ad view", "err", err)
		b.sendText(chatID, "Не удалось запустить просмотр, попробуйте позже.")
		return
	}

	state := session.State{
		Kind:         session.KindWatchingAd,
		AdID:         view.ID,
		Reward:       view.Reward,
		WatchSeconds: view.Seconds,
		StartedAt:    view.StartedAt,
		EnteredAt:    view.StartedAt,
	}
	if err := b.sessions.Enter(ctx, chatID, state); err != nil {
		b.log.Error("enter session", "chat_id", chatID, "err", err)
		return
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("🎬 Смотрите рекламу %d сек. Награда: %s.\nОсталось: %d сек.", view.Seconds, money(view.Reward), view.Seconds))
	msg.ReplyMarkup = adWatchKeyboard(view.ID)
	sent, err := b.api.Send(msg)
	if err != nil {
		b.log.Error("send ad message", "err", err)
		return
	}

	countdownCtx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	if prev, ok := b.countdowns[chatID]; ok {
		prev()
	}
	b.countdowns[chatID] = cancel
	b.mu.Unlock()
	go b.runCountdown(countdownCtx, chatID, sent.MessageID, view)
}

// runCountdown edits the ad message with the remaining time until the watch
// window elapses or the chat cancels.
func (b *Bot) runCountdown(ctx context.Context, chatID int64, messageID int, view *service.AdView) {
	deadline := view.StartedAt.Add(time.Duration(view.Seconds) * time.Second)
	ticker := time.NewTicker(countdownStep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			remaining := time.Until(deadline)
			if remaining <= 0 {
				edit := tgbotapi.NewEditMessageText(chatID, messageID, fmt.Sprintf("✅ Время вышло! Нажмите «Я посмотрел», чтобы получить %s.", money(view.Reward)))
				markup := adWatchKeyboard(view.ID)
				edit.ReplyMarkup = &markup
				if _, err := b.api.Send(edit); err != nil {
					b.log.Error("edit countdown", "err", err)
				}
				return
			}
			edit := tgbotapi.NewEditMessageText(chatID, messageID, fmt.Sprintf("🎬 Смотрите рекламу. Награда: %s.\nОсталось: %d сек.", money(view.Reward), int(remaining.Seconds())))
			markup := adWatchKeyboard(view.ID)
			edit.ReplyMarkup = &markup
			if _, err := b.api.Send(edit); err != nil {
				b.log.Error("edit countdown", "err", err)
				return
			}
		}
	}
}

func (b *Bot) cancelCountdown(chatID int64) {
	b.mu.Lock()
	if cancel, ok := b.countdowns[chatID]; ok {
		cancel()
		delete(b.countdowns, chatID)
	}
	b.mu.Unlock()
}

func (b *Bot) confirmAdWatch(ctx context.Context, cb *tgbotapi.CallbackQuery, chatID int64, presentedID string) {
	account, _, err := b.ensureAccount(ctx, cb.From, chatID)
	if err != nil {
		b.log.Error("ensure account", "err", err)
		return
	}
	state, err := b.sessions.Current(ctx, chatID)
	if err != nil {
		b.log.Error("load session", "chat_id", chatID, "err", err)
		return
	}
	if state == nil || state.Kind != session.KindWatchingAd {
		b.ack(cb.ID, "Нет активного просмотра")
		return
	}

	view := &service.AdView{
		ID:        state.AdID,
		StartedAt: state.StartedAt,
		Seconds:   state.WatchSeconds,
		Reward:    state.Reward,
	}
	_, err = b.rewards.ConfirmAdView(ctx, account, view, presentedID)
	if err != nil {
		out := confirmAdFailure(err, b.cfg.MaxAdsPerDay)
		b.ack(cb.ID, out.toast)
		if out.logErr {
			b.log.Error("confirm ad view", "err", err)
		}
		if out.abandon {
			b.cancelCountdown(chatID)
			b.clearSession(ctx, chatID)
		}
		if out.text != "" {
			b.sendText(chatID, out.text)
		}
		return
	}

	b.ack(cb.ID, "Засчитано!")
	b.cancelCountdown(chatID)
	b.clearSession(ctx, chatID)
	b.sendMenu(chatID, fmt.Sprintf("✅ Начислено %s! Баланс: %s", money(view.Reward), money(account.Balance)))
}

// confirmFailure says how an unsuccessful ad confirmation lands in the chat.
// Only abandon destroys the watch in progress; a not-yet-elapsed tap or an
// id that does not belong to the current watch must leave it running, so a
// stale button from an earlier ad message cannot kill a legitimate view.
type confirmFailure struct {
	toast   string
	text    string
	abandon bool
	logErr  bool
}

func confirmAdFailure(err error, maxPerDay int) confirmFailure {
	switch {
	case errors.Is(err, service.ErrAdNotElapsed):
		return confirmFailure{toast: "Реклама ещё не досмотрена"}
	case errors.Is(err, service.ErrAdMismatch):
		return confirmFailure{toast: "Просмотр не засчитан"}
	case errors.Is(err, service.ErrDailyLimitReached):
		return confirmFailure{
			text:    fmt.Sprintf("Лимит на сегодня исчерпан (%d просмотров). Возвращайтесь завтра!", maxPerDay),
			abandon: true,
		}
	default:
		return confirmFailure{text: "Не удалось засчитать просмотр, попробуйте позже.", logErr: true}
	}
}

func (b *Bot) claimDailyBonus(ctx context.Context, from *tgbotapi.User, chatID int64) {
	account, _, err := b.ensureAccount(ctx, from, chatID)
	if err != nil {
		b.log.Error("ensure account", "err", err)
		return
	}
	event, err := b.rewards.ClaimDailyBonus(ctx, account)
	switch {
	case errors.Is(err, service.ErrBonusNotEarned):
		b.sendText(chatID, fmt.Sprintf("Бонус %s открывается после %d просмотров рекламы за день.", money(b.cfg.DailyBonusAmount), b.cfg.DailyBonusThreshold))
		return
	case errors.Is(err, service.ErrBonusAlreadyClaimed):
		b.sendText(chatID, "Сегодняшний бонус уже получен. Возвращайтесь завтра!")
		return
	case err != nil:
		b.log.Error("claim daily bonus", "err", err)
		b.sendText(chatID, "Не удалось начислить бонус, попробуйте позже.")
		return
	}
	b.sendMenu(chatID, fmt.Sprintf("🎁 Бонус %s начислен! Баланс: %s", money(event.Amount), money(account.Balance)))
}

func (b *Bot) grantFreeTrial(ctx context.Context, from *tgbotapi.User, chatID int64) {
	account, _, err := b.ensureAccount(ctx, from, chatID)
	if err != nil {
		b.log.Error("ensure account", "err", err)
		return
	}
	event, err := b.rewards.GrantFreeTrial(ctx, account)
	switch {
	case errors.Is(err, service.ErrFreeTrialUsed):
		b.sendText(chatID, "Бесплатная попытка на сегодня уже использована.")
		return
	case err != nil:
		b.log.Error("grant free trial", "err", err)
		b.sendText(chatID, "Не удалось начислить, попробуйте позже.")
		return
	}
	b.sendMenu(chatID, fmt.Sprintf("🎁 Начислено %s! Баланс: %s", money(event.Amount), money(account.Balance)))
}

func (b *Bot) createTopUp(ctx context.Context, from *tgbotapi.User, chatID int64, rawAmount string) {
	account, _, err := b.ensureAccount(ctx, from, chatID)
	if err != nil {
		b.log.Error("ensure account", "err", err)
		return
	}
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		b.sendText(chatID, "Неверная сумма.")
		return
	}
	event, err := b.ledger.CreatePendingTopUp(ctx, account, amount)
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		b.sendText(chatID, fmt.Sprintf("Сумма должна быть от %s до %s.", money(b.cfg.MinPaymentAmount), money(b.cfg.MaxPaymentAmount)))
		return
	case err != nil:
		b.log.Error("create top-up", "err", err)
		b.sendText(chatID, "Не удалось создать заявку, попробуйте позже.")
		return
	}

	text := fmt.Sprintf("Заявка №%d на %s создана.", event.ID, money(event.Amount))
	if b.cfg.ManagerUsername != "" {
		text += fmt.Sprintf("\nПереведите сумму и отправьте чек менеджеру @%s — после подтверждения баланс пополнится.", strings.TrimPrefix(b.cfg.ManagerUsername, "@"))
	} else {
		text += "\nПосле подтверждения оплаты менеджером баланс пополнится."
	}
	b.sendWithKeyboard(chatID, text, backToMenuKeyboard())
}

func (b *Bot) showBalance(ctx context.Context, from *tgbotapi.User, chatID int64) {
	account, _, err := b.ensureAccount(ctx, from, chatID)
	if err != nil {
		b.log.Error("ensure account", "err", err)
		return
	}
	b.sendMenu(chatID, fmt.Sprintf("💰 Баланс: %s", money(account.Balance)))
}

func (b *Bot) showOrders(ctx context.Context, from *tgbotapi.User, chatID int64) {
	account, _, err := b.ensureAccount(ctx, from, chatID)
	if err != nil {
		b.log.Error("ensure account", "err", err)
		return
	}
	orders, err := b.ledger.OrdersFor(ctx, account, 10)
	if err != nil {
		b.log.Error("list orders", "err", err)
		b.sendText(chatID, "Не удалось загрузить заказы.")
		return
	}
	if len(orders) == 0 {
		b.sendMenu(chatID, "У вас пока нет заказов.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📦 Последние заказы:\n")
	for _, o := range orders {
		sb.WriteString(fmt.Sprintf("\n№%d · %s · %s · %s", o.ID, categoryTitle(o.Category), money(o.Cost), o.CreatedAt.Format("02.01.2006")))
		if snippet := promptSnippet(o.Prompt); snippet != "" {
			sb.WriteString("\n  " + snippet)
		}
	}
	b.sendMenu(chatID, sb.String())
}

func (b *Bot) showAdStats(ctx context.Context, from *tgbotapi.User, chatID int64) {
	account, _, err := b.ensureAccount(ctx, from, chatID)
	if err != nil {
		b.log.Error("ensure account", "err", err)
		return
	}
	stats, err := b.rewards.AdStats(ctx, account)
	if err != nil {
		b.log.Error("ad stats", "err", err)
		b.sendText(chatID, "Не удалось загрузить статистику.")
		return
	}
	b.sendMenu(chatID, fmt.Sprintf(
		"📊 Реклама:\nСегодня: %d из %d (%s)\nВсего: %d просмотров (%s)",
		stats.TodayCount, stats.DailyLimit, money(stats.TodayAmount),
		stats.TotalCount, money(stats.TotalAmount),
	))
}

func (b *Bot) ensureAccount(ctx context.Context, from *tgbotapi.User, chatID int64) (*models.Account, bool, error) {
	username, firstName, lastName := "", "", ""
	telegramID := chatID
	if from != nil {
		username = from.UserName
		firstName = from.FirstName
		lastName = from.LastName
		telegramID = from.ID
	}
	return b.ledger.Ensure(ctx, telegramID, username, firstName, lastName)
}

func (b *Bot) clearSession(ctx context.Context, chatID int64) {
	if err := b.sessions.Clear(ctx, chatID); err != nil {
		b.log.Error("clear session", "chat_id", chatID, "err", err)
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send text", "err", err)
	}
}

func (b *Bot) sendMenu(chatID int64, text string) {
	b.sendWithKeyboard(chatID, text, mainMenuKeyboard())
}

func (b *Bot) sendWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "err", err)
	}
}

func (b *Bot) ack(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.log.Error("callback ack", "err", err)
	}
}

func categoryForKind(kind session.Kind) (models.OrderCategory, bool) {
	switch kind {
	case session.KindAwaitingTextPrompt:
		return models.CategoryText, true
	case session.KindAwaitingImagePrompt:
		return models.CategoryImage, true
	case session.KindAwaitingAudioPrompt:
		return models.CategoryAudio, true
	default:
		return "", false
	}
}

func categoryTitle(category models.OrderCategory) string {
	switch category {
	case models.CategoryText:
		return "текст"
	case models.CategoryImage:
		return "картинка"
	case models.CategoryAudio:
		return "озвучка"
	default:
		return string(category)
	}
}

func displayName(from *tgbotapi.User) string {
	if from == nil {
		return "друг"
	}
	if from.FirstName != "" {
		return from.FirstName
	}
	if from.UserName != "" {
		return from.UserName
	}
	return "друг"
}

func money(amount decimal.Decimal) string {
	return amount.String() + " ₽"
}

func promptSnippet(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	runes := []rune(prompt)
	if len(runes) > 40 {
		return string(runes[:40]) + "…"
	}
	return prompt
}
