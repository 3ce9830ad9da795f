package main

import (
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/lobatera/asistencia/internal/telegram"
)

var dropPending bool

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage the Telegram webhook",
}

var webhookSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Register BASE_URL + WEBHOOK_PATH as the bot's webhook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, bot, err := botEnv()
		if err != nil {
			return err
		}
		url := e.cfg.Telegram.WebhookURL()
		if url == "" {
			return errors.New("BASE_URL is not set")
		}
		if err := telegram.SetWebhook(bot, url, e.cfg.Telegram.WebhookSecret); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "webhook set to %s\n", url)
		return nil
	},
}

var webhookInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the webhook Telegram currently has",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, bot, err := botEnv()
		if err != nil {
			return err
		}
		info, err := bot.GetWebhookInfo()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "url:             %s\n", info.URL)
		fmt.Fprintf(out, "pending updates: %d\n", info.PendingUpdateCount)
		if info.LastErrorMessage != "" {
			fmt.Fprintf(out, "last error:      %s\n", info.LastErrorMessage)
		}
		return nil
	},
}

var webhookDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the webhook (the server then needs long polling)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, bot, err := botEnv()
		if err != nil {
			return err
		}
		if err := telegram.DeleteWebhook(bot, dropPending); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "webhook deleted")
		return nil
	},
}

func init() {
	webhookDeleteCmd.Flags().BoolVar(&dropPending, "drop-pending", false, "discard updates Telegram is holding")
	webhookCmd.AddCommand(webhookSetCmd, webhookInfoCmd, webhookDeleteCmd)
}

func botEnv() (*env, *tgbotapi.BotAPI, error) {
	e, err := loadEnv()
	if err != nil {
		return nil, nil, err
	}
	if e.cfg.Telegram.Token == "" {
		return nil, nil, errors.New("TELEGRAM_TOKEN is not set")
	}
	bot, err := tgbotapi.NewBotAPI(e.cfg.Telegram.Token)
	if err != nil {
		return nil, nil, fmt.Errorf("telegram: %w", err)
	}
	return e, bot, nil
}
