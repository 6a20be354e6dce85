package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AllowedUpdates are the update kinds the bot subscribes to.
var AllowedUpdates = []string{"message", "callback_query"}

// UpdateSource fetches updates with getUpdates.
type UpdateSource interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// pollRetryDelay is the pause after a failed getUpdates call.
const pollRetryDelay = 3 * time.Second

// Poll long-polls src and submits every update until ctx is done.
// Updates fetched after cancellation are not acknowledged, so Telegram
// redelivers them on the next start.
func (p *Processor) Poll(ctx context.Context, src UpdateSource, timeoutSeconds int) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = timeoutSeconds
	cfg.AllowedUpdates = AllowedUpdates

	p.logger.WithField("timeout_s", timeoutSeconds).Info("Long polling started")
	for {
		if ctx.Err() != nil {
			return nil
		}

		updates, err := src.GetUpdates(cfg)
		if err != nil {
			p.logger.WithError(err).Warn("getUpdates failed; retrying")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, update := range updates {
			if ctx.Err() != nil {
				return nil
			}
			if update.UpdateID < cfg.Offset {
				continue
			}
			cfg.Offset = update.UpdateID + 1
			if err := p.Submit(ctx, update); err != nil {
				return nil
			}
		}
	}
}

// WebhookAPI is the subset of *tgbotapi.BotAPI used to manage webhooks.
type WebhookAPI interface {
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// RegisterWebhook points Telegram at url. Telegram echoes secret in the
// X-Telegram-Bot-Api-Secret-Token header of every delivery.
func RegisterWebhook(api WebhookAPI, url, secret string) error {
	allowed, err := json.Marshal(AllowedUpdates)
	if err != nil {
		return fmt.Errorf("encode allowed updates: %w", err)
	}
	params := tgbotapi.Params{
		"url":             url,
		"allowed_updates": string(allowed),
	}
	params.AddNonEmpty("secret_token", secret)

	resp, err := api.MakeRequest("setWebhook", params)
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("set webhook: %s", resp.Description)
	}
	return nil
}

// DeleteWebhook switches the bot back to getUpdates.
func DeleteWebhook(api WebhookAPI) error {
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}
