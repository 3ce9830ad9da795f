// Package telegram connects the workflow engine to the Telegram Bot API.
package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lobatera/asistencia/internal/render"
	"github.com/lobatera/asistencia/internal/workflow"
)

// Update sources for metrics.
const (
	SourceWebhook = "webhook"
	SourcePolling = "polling"
)

// Bot is the part of *tgbotapi.BotAPI the dispatcher uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Engine handles one turn of the attendance workflow.
type Engine interface {
	HandleText(ctx context.Context, text string) workflow.Turn
	HandleIntent(ctx context.Context, in workflow.Intent) workflow.Turn
}

// Metrics receives per-update counters.
type Metrics interface {
	ObserveUpdate(source, result string, took time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ObserveUpdate(string, string, time.Duration) {}

// Dispatcher routes updates to the engine and sends the replies.
type Dispatcher struct {
	bot         Bot
	engine      Engine
	dedup       Deduper
	turnTimeout time.Duration
	logger      *zap.Logger
	metrics     Metrics
}

// NewDispatcher creates a dispatcher. dedup and metrics may be nil.
func NewDispatcher(bot Bot, engine Engine, dedup Deduper, turnTimeout time.Duration, logger *zap.Logger, metrics Metrics) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dedup == nil {
		dedup = NopDeduper{}
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if turnTimeout <= 0 {
		turnTimeout = 20 * time.Second
	}
	return &Dispatcher{bot: bot, engine: engine, dedup: dedup, turnTimeout: turnTimeout, logger: logger, metrics: metrics}
}

// Dispatch handles one update. It never panics and never returns an error:
// failures are logged and confined to this update.
func (d *Dispatcher) Dispatch(ctx context.Context, source string, u tgbotapi.Update) {
	start := time.Now()
	log := d.logger.With(zap.Int("update_id", u.UpdateID), zap.String("turn_id", uuid.NewString()))
	result := "handled"
	defer func() {
		if r := recover(); r != nil {
			log.Error("update handler panicked", zap.Any("panic", r), zap.Stack("stack"))
			result = "panic"
		}
		d.metrics.ObserveUpdate(source, result, time.Since(start))
	}()

	ctx, cancel := context.WithTimeout(ctx, d.turnTimeout)
	defer cancel()

	if seen, err := d.dedup.Seen(ctx, u.UpdateID); err != nil {
		log.Warn("update de-duplication unavailable", zap.Error(err))
	} else if seen {
		log.Info("duplicate update dropped")
		result = "duplicate"
		return
	}

	switch {
	case u.CallbackQuery != nil:
		d.handleCallback(ctx, log, u.CallbackQuery)
	case u.Message != nil && u.Message.Text != "":
		d.handleMessage(ctx, log, u.Message)
	default:
		result = "ignored"
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, log *zap.Logger, m *tgbotapi.Message) {
	if m.Chat == nil {
		return
	}
	turn := d.engine.HandleText(ctx, m.Text)
	log.Info("text handled", zap.Int64("chat_id", m.Chat.ID), zap.Stringer("state", turn.State))
	d.send(log, m.Chat.ID, turn.Messages)
}

func (d *Dispatcher) handleCallback(ctx context.Context, log *zap.Logger, cq *tgbotapi.CallbackQuery) {
	if _, err := d.bot.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		log.Warn("answer callback failed", zap.Error(err))
	}
	if cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	chatID := cq.Message.Chat.ID

	// Drop the pressed keyboard so the same prompt cannot be answered twice.
	removeKeyboard := tgbotapi.EditMessageReplyMarkupConfig{
		BaseEdit: tgbotapi.BaseEdit{ChatID: chatID, MessageID: cq.Message.MessageID},
	}
	if _, err := d.bot.Request(removeKeyboard); err != nil {
		log.Warn("remove keyboard failed", zap.Error(err))
	}

	in, err := workflow.Decode(cq.Data)
	if err != nil {
		log.Info("callback rejected", zap.String("data", cq.Data), zap.Error(err))
		d.send(log, chatID, []workflow.Message{{Text: render.InvalidOption}})
		return
	}
	turn := d.engine.HandleIntent(ctx, in)
	log.Info("intent handled", zap.Int64("chat_id", chatID), zap.Stringer("intent", in.Kind), zap.String("outcome", string(turn.Outcome)))
	d.send(log, chatID, turn.Messages)
}

// send delivers messages in order. Failures are logged and not retried.
func (d *Dispatcher) send(log *zap.Logger, chatID int64, messages []workflow.Message) {
	for _, m := range messages {
		msg := tgbotapi.NewMessage(chatID, m.Text)
		if m.Markdown {
			msg.ParseMode = tgbotapi.ModeMarkdown
		}
		if kb, ok := keyboard(log, m.Options); ok {
			msg.ReplyMarkup = kb
		}
		if _, err := d.bot.Send(msg); err != nil {
			log.Error("send message failed", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}
}

func keyboard(log *zap.Logger, options [][]workflow.Option) (tgbotapi.InlineKeyboardMarkup, bool) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, opts := range options {
		var row []tgbotapi.InlineKeyboardButton
		for _, o := range opts {
			data, err := o.Intent.Encode()
			if err != nil {
				log.Error("encode option failed", zap.String("label", o.Label), zap.Error(err))
				continue
			}
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(o.Label, data))
		}
		if len(row) > 0 {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
		}
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}
