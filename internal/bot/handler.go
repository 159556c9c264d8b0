package bot

import (
	"context"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"linkshelf/internal/config"
	"linkshelf/internal/submission"
	"linkshelf/internal/viewstate"
)

const dismissCallback = "dismiss"

// Submitter runs bookmark submissions.
type Submitter interface {
	Submit(ctx context.Context, url string) (submission.State, bool)
	Dismiss() error
}

// Refresher reloads the bookmark list.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Viewer exposes the current view state.
type Viewer interface {
	Snapshot() viewstate.ViewState
}

// messenger is the subset of *tgbot.Bot used to talk back to the chat.
type messenger interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *tgbot.SendChatActionParams) (bool, error)
	AnswerCallbackQuery(ctx context.Context, params *tgbot.AnswerCallbackQueryParams) (bool, error)
}

// Handler holds dependencies for the Telegram bot handlers.
type Handler struct {
	bot       *tgbot.Bot
	out       messenger
	submitter Submitter
	refresher Refresher
	viewer    Viewer
	log       logrus.FieldLogger
}

// NewHandler creates a new bot handler instance.
func NewHandler(cfg config.Config, submitter Submitter, refresher Refresher, viewer Viewer, logger logrus.FieldLogger) (*Handler, error) {
	h := newHandler(nil, submitter, refresher, viewer, logger)

	b, err := tgbot.New(cfg.TelegramBotToken, tgbot.WithDefaultHandler(h.defaultHandler))
	if err != nil {
		h.log.WithError(err).Error("Failed to create Telegram bot instance")
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	h.bot = b
	h.out = b

	h.registerHandlers()

	h.log.Info("Telegram bot handler initialized")
	return h, nil
}

func newHandler(out messenger, submitter Submitter, refresher Refresher, viewer Viewer, logger logrus.FieldLogger) *Handler {
	return &Handler{
		out:       out,
		submitter: submitter,
		refresher: refresher,
		viewer:    viewer,
		log:       logger.WithField("component", "bot_handler"),
	}
}

// registerHandlers sets up the command and callback handlers.
// Any other text message is treated as a link by the default handler.
func (h *Handler) registerHandlers() {
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, h.startHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/list", tgbot.MatchTypeExact, h.listHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/reload", tgbot.MatchTypeExact, h.reloadHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, dismissCallback, tgbot.MatchTypeExact, h.dismissHandler)
	h.log.Info("Registered command handlers")
}

// Start begins polling for updates from Telegram.
// This function blocks until the context is cancelled.
func (h *Handler) Start(ctx context.Context) {
	h.log.Info("Starting Telegram bot polling...")
	h.bot.Start(ctx)
	h.log.Info("Telegram bot polling stopped.")
}

func (h *Handler) startHandler(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.log.WithField("user_id", senderID(update.Message)).Info("Received /start command")
	h.send(ctx, update.Message.Chat.ID, welcomeText, nil)
}

func (h *Handler) listHandler(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	h.showGallery(ctx, update, false)
}

func (h *Handler) reloadHandler(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	h.showGallery(ctx, update, true)
}

// showGallery sends the bookmark list. A first view or an explicit reload
// refreshes before rendering.
func (h *Handler) showGallery(ctx context.Context, update *models.Update, reload bool) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if reload || h.viewer.Snapshot().Epoch == 0 {
		h.typing(ctx, chatID)
		// A failure is kept in the view state and rendered as a banner.
		_ = h.refresher.Refresh(ctx)
	}

	for _, page := range renderGallery(h.viewer.Snapshot()) {
		h.send(ctx, chatID, page, nil)
	}
}

// defaultHandler treats any non-command text as a link to save.
func (h *Handler) defaultHandler(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	msg := update.Message
	text := strings.TrimSpace(msg.Text)
	log := h.log.WithFields(logrus.Fields{
		"user_id": senderID(msg),
		"text":    text,
	})

	if text == "" {
		log.Debug("Ignoring message without text")
		return
	}
	if strings.HasPrefix(text, "/") {
		log.Debug("Received unknown command")
		h.send(ctx, msg.Chat.ID, "Unknown command. "+welcomeText, nil)
		return
	}

	h.typing(ctx, msg.Chat.ID)
	state, dispatched := h.submitter.Submit(ctx, text)
	if !dispatched {
		if state.Phase == submission.PhasePending {
			h.send(ctx, msg.Chat.ID, pendingText, nil)
		}
		return
	}

	h.send(ctx, msg.Chat.ID, noticeText(state), dismissKeyboard())
}

// dismissHandler handles the "Okay" button under a submission notice.
func (h *Handler) dismissHandler(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	query := update.CallbackQuery
	if query == nil {
		return
	}

	answer := "Dismissed"
	if err := h.submitter.Dismiss(); err != nil {
		answer = "Nothing to dismiss"
	}

	if _, err := h.out.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: query.ID,
		Text:            answer,
	}); err != nil {
		h.log.WithError(err).Error("Failed to answer callback query")
	}
}

func (h *Handler) send(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) {
	params := &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := h.out.SendMessage(ctx, params); err != nil {
		h.log.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

func (h *Handler) typing(ctx context.Context, chatID int64) {
	if _, err := h.out.SendChatAction(ctx, &tgbot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatActionTyping,
	}); err != nil {
		h.log.WithError(err).Debug("Failed to send chat action")
	}
}

func dismissKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "Okay", CallbackData: dismissCallback}},
		},
	}
}

func senderID(msg *models.Message) int64 {
	if msg.From == nil {
		return 0
	}
	return msg.From.ID
}
