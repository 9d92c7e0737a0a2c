package channel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

type TelegramCredentials struct {
	Token string
	// APIURL overrides the Bot API endpoint; empty means api.telegram.org.
	APIURL string
}

// chatRecipient accepts a numeric chat id or an @channel handle as-is.
type chatRecipient string

func (r chatRecipient) Recipient() string { return string(r) }

type TelegramSender struct {
	bot     *tele.Bot
	timeout time.Duration
}

func NewTelegramSender(creds TelegramCredentials, timeout time.Duration) (*TelegramSender, error) {
	if strings.TrimSpace(creds.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	bot, err := tele.NewBot(tele.Settings{
		URL:     strings.TrimRight(strings.TrimSpace(creds.APIURL), "/"),
		Token:   creds.Token,
		Client:  &http.Client{Timeout: timeout},
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramSender{bot: bot, timeout: timeout}, nil
}

func (s *TelegramSender) Kind() Kind { return Telegram }

func (s *TelegramSender) Send(ctx context.Context, recipient, message string) Outcome {
	to := strings.TrimSpace(recipient)
	if to == "" {
		return Failed("malformed telegram recipient: empty")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// The bot API client is not context-aware; its http.Client timeout bounds
	// the goroutine and ctx bounds the caller.
	done := make(chan Outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- Failed(fmt.Sprintf("telegram sender panic: %v", r))
			}
		}()
		if _, err := s.bot.Send(chatRecipient(to), message, &tele.SendOptions{DisableWebPagePreview: true}); err != nil {
			done <- FailedFromError(err)
			return
		}
		done <- Delivered()
	}()

	select {
	case out := <-done:
		return out
	case <-ctx.Done():
		return Failed(ReasonTimeout)
	}
}
