package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/veris-memory/sentinel/internal/alerts"
	"github.com/veris-memory/sentinel/internal/utils"
)

const telegramAPIBase = "https://api.telegram.org/bot"

// queuedMessage is one message waiting for rate-limit budget.
type queuedMessage struct {
	text                string
	disableNotification bool
}

// TelegramSink delivers alerts to a Telegram-style bot API with a
// strict per-minute send budget, per spec.md §4.5.
type TelegramSink struct {
	botToken  string
	chatID    string
	rateLimit int
	client    *http.Client
	apiBase   string // overridable in tests; defaults to telegramAPIBase

	mu             sync.Mutex
	sendTimestamps []time.Time
	queue          *utils.Queue[queuedMessage]
}

// NewTelegramSink constructs a sink. rateLimit is messages allowed per
// rolling 60-second window; queueCapacity bounds the overflow FIFO.
func NewTelegramSink(botToken, chatID string, rateLimit, queueCapacity int) *TelegramSink {
	return &TelegramSink{
		botToken:  botToken,
		chatID:    chatID,
		rateLimit: rateLimit,
		client:    &http.Client{Timeout: 10 * time.Second},
		apiBase:   telegramAPIBase,
		queue:     utils.NewQueue[queuedMessage](queueCapacity),
	}
}

func (s *TelegramSink) Name() string { return "telegram" }

// Dispatch implements alerts.Channel: it renders the payload and sends
// or queues it, forcing disable_notification for info severity.
func (s *TelegramSink) Dispatch(ctx context.Context, p alerts.Payload) error {
	text := RenderAlert(p)
	_, err := s.Send(ctx, text, disableNotificationFor(p))
	return err
}

// Send attempts synchronous delivery if the rolling 60-second budget
// allows it; otherwise it enqueues the message and returns sent=false.
// sent=false is not an error — it's the rate-limit-event path spec.md
// §7 describes.
func (s *TelegramSink) Send(ctx context.Context, text string, disableNotification bool) (sent bool, err error) {
	s.mu.Lock()
	if !s.withinBudgetLocked() {
		before := s.queue.Len()
		s.queue.Push(queuedMessage{text: text, disableNotification: disableNotification})
		if before == s.queue.Len() {
			log.Warn().Msg("notify: telegram overflow queue full, dropped oldest queued message")
		}
		s.mu.Unlock()
		return false, nil
	}
	s.sendTimestamps = append(s.sendTimestamps, time.Now())
	s.mu.Unlock()

	if err := s.post(ctx, text, disableNotification); err != nil {
		return true, err
	}
	return true, nil
}

// ProcessQueue drains as many queued messages as the current budget
// allows, with a small inter-message delay to avoid bursts. It returns
// the count actually sent.
func (s *TelegramSink) ProcessQueue(ctx context.Context) int {
	sent := 0
	for {
		s.mu.Lock()
		if !s.withinBudgetLocked() {
			s.mu.Unlock()
			break
		}
		msg, ok := s.queue.Pop()
		if !ok {
			s.mu.Unlock()
			break
		}
		s.sendTimestamps = append(s.sendTimestamps, time.Now())
		s.mu.Unlock()

		if err := s.post(ctx, msg.text, msg.disableNotification); err != nil {
			log.Warn().Err(err).Msg("notify: failed to send queued telegram message")
		}
		sent++
		time.Sleep(100 * time.Millisecond)
	}
	return sent
}

// TestConnection performs a cheap identity call against the bot API.
func (s *TelegramSink) TestConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBase+s.botToken+"/getMe", nil)
	if err != nil {
		return false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// withinBudgetLocked prunes timestamps older than 60s and reports
// whether another send fits the rolling window. Caller must hold mu.
func (s *TelegramSink) withinBudgetLocked() bool {
	cutoff := time.Now().Add(-60 * time.Second)
	pruned := s.sendTimestamps[:0]
	for _, ts := range s.sendTimestamps {
		if ts.After(cutoff) {
			pruned = append(pruned, ts)
		}
	}
	s.sendTimestamps = pruned
	return len(s.sendTimestamps) < s.rateLimit
}

type telegramRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
	DisableNotification   bool   `json:"disable_notification"`
}

type telegramResponse struct {
	OK bool `json:"ok"`
}

func (s *TelegramSink) post(ctx context.Context, text string, disableNotification bool) error {
	body, err := json.Marshal(telegramRequest{
		ChatID:                s.chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
		DisableNotification:   disableNotification,
	})
	if err != nil {
		return fmt.Errorf("notify: encoding telegram request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiBase+s.botToken+"/sendMessage", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: building telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed telegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("notify: decoding telegram response: %w", err)
	}
	if !parsed.OK {
		return fmt.Errorf("notify: telegram reported ok=false")
	}
	return nil
}
