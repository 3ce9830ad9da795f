package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lobatera/asistencia/internal/render"
	"github.com/lobatera/asistencia/internal/workflow"
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
	sendErr  error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		b.sent = append(b.sent, m)
	}
	return tgbotapi.Message{}, b.sendErr
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

type fakeEngine struct {
	mu      sync.Mutex
	texts   []string
	intents []workflow.Intent
	turn    workflow.Turn
	panics  bool
}

func (e *fakeEngine) HandleText(_ context.Context, text string) workflow.Turn {
	if e.panics {
		panic("boom")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.texts = append(e.texts, text)
	return e.turn
}

func (e *fakeEngine) HandleIntent(_ context.Context, in workflow.Intent) workflow.Turn {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.intents = append(e.intents, in)
	return e.turn
}

type memoryDeduper struct {
	mu   sync.Mutex
	seen map[int]bool
}

func (d *memoryDeduper) Seen(_ context.Context, id int) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[id] {
		return true, nil
	}
	d.seen[id] = true
	return false, nil
}

func textUpdate(id int, text string) tgbotapi.Update {
	return tgbotapi.Update{UpdateID: id, Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: 42}, Text: text}}
}

func callbackUpdate(id int, data string) tgbotapi.Update {
	return tgbotapi.Update{UpdateID: id, CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 9, Chat: &tgbotapi.Chat{ID: 42}},
	}}
}

func TestDispatch_TextSendsCardAndKeyboard(t *testing.T) {
	bot := &fakeBot{}
	engine := &fakeEngine{turn: workflow.Turn{State: workflow.StateAwaitingConfirmation, Messages: []workflow.Message{
		{Text: "card"},
		{Text: "*prompt*", Markdown: true, Options: [][]workflow.Option{{
			{Label: render.ButtonYes, Intent: workflow.Confirm(7, "V1234567", true)},
			{Label: render.ButtonNo, Intent: workflow.Confirm(7, "V1234567", false)},
		}}},
	}}}
	d := NewDispatcher(bot, engine, nil, time.Second, zaptest.NewLogger(t), nil)

	d.Dispatch(context.Background(), SourcePolling, textUpdate(1, "V1234567"))

	assert.Equal(t, []string{"V1234567"}, engine.texts)
	require.Len(t, bot.sent, 2)
	assert.Equal(t, "card", bot.sent[0].Text)
	assert.Nil(t, bot.sent[0].ReplyMarkup)
	assert.Equal(t, tgbotapi.ModeMarkdown, bot.sent[1].ParseMode)

	kb, ok := bot.sent[1].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 1)
	require.Len(t, kb.InlineKeyboard[0], 2)
	require.NotNil(t, kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, `{"k":"c","e":7,"p":"V1234567","y":true}`, *kb.InlineKeyboard[0][0].CallbackData)
}

func TestDispatch_Callback(t *testing.T) {
	bot := &fakeBot{}
	engine := &fakeEngine{turn: workflow.Turn{Outcome: workflow.OutcomeRecorded, Messages: []workflow.Message{{Text: render.AttendanceSaved}}}}
	d := NewDispatcher(bot, engine, nil, time.Second, zaptest.NewLogger(t), nil)

	d.Dispatch(context.Background(), SourceWebhook, callbackUpdate(2, `{"k":"a","e":7,"p":"V1234567"}`))

	assert.Equal(t, []workflow.Intent{workflow.MarkAttendance(7, "V1234567")}, engine.intents)
	require.Len(t, bot.requests, 2)
	assert.IsType(t, tgbotapi.CallbackConfig{}, bot.requests[0])
	edit, ok := bot.requests[1].(tgbotapi.EditMessageReplyMarkupConfig)
	require.True(t, ok)
	assert.Equal(t, 9, edit.MessageID)
	assert.Nil(t, edit.ReplyMarkup)
	require.Len(t, bot.sent, 1)
	assert.Equal(t, render.AttendanceSaved, bot.sent[0].Text)
}

func TestDispatch_LegacyAndInvalidCallbacks(t *testing.T) {
	bot := &fakeBot{}
	engine := &fakeEngine{}
	d := NewDispatcher(bot, engine, nil, time.Second, zaptest.NewLogger(t), nil)

	d.Dispatch(context.Background(), SourceWebhook, callbackUpdate(3, "solo_V1234567"))
	d.Dispatch(context.Background(), SourceWebhook, callbackUpdate(4, "motivo_Otra_V1234567"))

	assert.Equal(t, []workflow.Intent{workflow.ViewOnly("V1234567")}, engine.intents)
	require.Len(t, bot.sent, 1)
	assert.Equal(t, render.InvalidOption, bot.sent[0].Text)
}

func TestDispatch_DropsDuplicates(t *testing.T) {
	bot := &fakeBot{}
	engine := &fakeEngine{}
	d := NewDispatcher(bot, engine, &memoryDeduper{seen: map[int]bool{}}, time.Second, zaptest.NewLogger(t), nil)

	d.Dispatch(context.Background(), SourceWebhook, textUpdate(5, "V1234567"))
	d.Dispatch(context.Background(), SourceWebhook, textUpdate(5, "V1234567"))

	assert.Len(t, engine.texts, 1)
}

func TestDispatch_IsolatesPanicsAndSendErrors(t *testing.T) {
	bot := &fakeBot{sendErr: errors.New("chat not found")}
	d := NewDispatcher(bot, &fakeEngine{panics: true}, nil, time.Second, zaptest.NewLogger(t), nil)
	assert.NotPanics(t, func() {
		d.Dispatch(context.Background(), SourcePolling, textUpdate(6, "V1234567"))
	})

	d = NewDispatcher(bot, &fakeEngine{turn: workflow.Turn{Messages: []workflow.Message{{Text: "a"}, {Text: "b"}}}}, nil, time.Second, zaptest.NewLogger(t), nil)
	d.Dispatch(context.Background(), SourcePolling, textUpdate(7, "V1234567"))
	assert.Len(t, bot.sent, 2)
}

func TestWebhookHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := &fakeEngine{}
	d := NewDispatcher(&fakeBot{}, engine, nil, time.Second, zaptest.NewLogger(t), nil)
	r := gin.New()
	r.POST("/bot", WebhookHandler(d, "s3cret", zaptest.NewLogger(t)))

	body := `{"update_id":10,"message":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"},"text":"V1234567"}}`

	tests := []struct {
		name   string
		secret string
		body   string
		want   int
	}{
		{name: "missing secret", body: body, want: http.StatusUnauthorized},
		{name: "wrong secret", secret: "nope", body: body, want: http.StatusUnauthorized},
		{name: "malformed body", secret: "s3cret", body: "{", want: http.StatusOK},
		{name: "update", secret: "s3cret", body: body, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/bot", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.secret != "" {
				req.Header.Set(SecretHeader, tt.secret)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
	assert.Equal(t, []string{"V1234567"}, engine.texts)
}

type fakeRequester struct {
	endpoint string
	params   tgbotapi.Params
}

func (f *fakeRequester) MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	f.endpoint, f.params = endpoint, params
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func TestSetWebhook(t *testing.T) {
	api := &fakeRequester{}
	require.NoError(t, SetWebhook(api, "https://bot.example.org/bot", "s3cret"))

	assert.Equal(t, "setWebhook", api.endpoint)
	assert.Equal(t, "https://bot.example.org/bot", api.params["url"])
	assert.Equal(t, "s3cret", api.params["secret_token"])
	assert.Equal(t, `["message","callback_query"]`, api.params["allowed_updates"])

	require.NoError(t, DeleteWebhook(api, true))
	assert.Equal(t, "deleteWebhook", api.endpoint)
	assert.Equal(t, "true", api.params["drop_pending_updates"])
}

type fakeUpdater struct {
	ch      chan tgbotapi.Update
	stopped bool
}

func (f *fakeUpdater) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel { return f.ch }
func (f *fakeUpdater) StopReceivingUpdates()                                       { f.stopped = true }

func TestPoll(t *testing.T) {
	engine := &fakeEngine{}
	d := NewDispatcher(&fakeBot{}, engine, nil, time.Second, zaptest.NewLogger(t), nil)
	api := &fakeUpdater{ch: make(chan tgbotapi.Update, 2)}
	api.ch <- textUpdate(20, "V1234567")
	api.ch <- textUpdate(21, "V7654321")
	close(api.ch)

	Poll(context.Background(), api, d)

	assert.ElementsMatch(t, []string{"V1234567", "V7654321"}, engine.texts)
}
