package telegram

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/lobatera/asistencia/pkg/response"
)

// SecretHeader carries the secret_token given to setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Requester is the raw Bot API call used for webhook management.
type Requester interface {
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

// WebhookHandler handles POST <WEBHOOK_PATH>. Anything past the secret check
// is answered 200 so Telegram does not redeliver it.
func WebhookHandler(d *Dispatcher, secret string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if secret != "" && subtle.ConstantTimeCompare([]byte(c.GetHeader(SecretHeader)), []byte(secret)) != 1 {
			response.Unauthorized(c, "invalid secret token")
			return
		}
		var u tgbotapi.Update
		if err := c.ShouldBindJSON(&u); err != nil {
			logger.Warn("webhook body rejected", zap.Error(err))
			c.Status(http.StatusOK)
			return
		}
		d.Dispatch(context.WithoutCancel(c.Request.Context()), SourceWebhook, u)
		c.Status(http.StatusOK)
	}
}

// SetWebhook registers url with Telegram for messages and callback queries.
func SetWebhook(api Requester, url, secret string) error {
	params := tgbotapi.Params{
		"url":             url,
		"allowed_updates": `["message","callback_query"]`,
	}
	if secret != "" {
		params["secret_token"] = secret
	}
	_, err := api.MakeRequest("setWebhook", params)
	return err
}

// DeleteWebhook removes the webhook so long polling can be used.
func DeleteWebhook(api Requester, dropPending bool) error {
	params := tgbotapi.Params{}
	if dropPending {
		params["drop_pending_updates"] = "true"
	}
	_, err := api.MakeRequest("deleteWebhook", params)
	return err
}
