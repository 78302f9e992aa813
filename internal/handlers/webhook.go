package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/ytakahashi/device-tasks/internal/screen"
	"github.com/ytakahashi/device-tasks/internal/services"
)

// LINE allows at most 13 quick reply buttons with 20-character labels.
const (
	maxQuickReplyItems = 13
	maxLabelRunes      = 20
)

type commandKind int

const (
	cmdNone commandKind = iota
	cmdAdd
	cmdList
	cmdSync
	cmdHelp
)

var (
	addPattern  = regexp.MustCompile(`(?i)^(?:追加|add)[\s　]+[""]?(.+?)[""]?$`)
	listPattern = regexp.MustCompile(`(?i)^(?:一覧|list)$`)
	syncPattern = regexp.MustCompile(`(?i)^(?:同期|sync)$`)
	helpPattern = regexp.MustCompile(`(?i)^(?:ヘルプ|help)$`)
)

// parseCommand maps a chat message to a screen action. For cmdAdd the
// second value is the task title.
func parseCommand(text string) (commandKind, string) {
	text = strings.TrimSpace(text)

	if m := addPattern.FindStringSubmatch(text); m != nil {
		return cmdAdd, strings.TrimSpace(m[1])
	}
	switch {
	case listPattern.MatchString(text):
		return cmdList, ""
	case syncPattern.MatchString(text):
		return cmdSync, ""
	case helpPattern.MatchString(text):
		return cmdHelp, ""
	}
	return cmdNone, ""
}

// WebhookHandler drives the task screen from LINE chat messages.
type WebhookHandler struct {
	bot           *messaging_api.MessagingApiAPI
	channelSecret string
	screen        *screen.Screen
}

func NewWebhookHandler(bot *messaging_api.MessagingApiAPI, channelSecret string, s *screen.Screen) *WebhookHandler {
	return &WebhookHandler{
		bot:           bot,
		channelSecret: channelSecret,
		screen:        s,
	}
}

func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request())
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			log.Println("Invalid signature")
			return c.NoContent(http.StatusBadRequest)
		}
		log.Printf("Parse request error: %v", err)
		return c.NoContent(http.StatusInternalServerError)
	}

	ctx := c.Request().Context()
	for _, event := range cb.Events {
		switch e := event.(type) {
		case webhook.MessageEvent:
			if message, ok := e.Message.(webhook.TextMessageContent); ok {
				if err := h.handleTextMessage(ctx, e.ReplyToken, message.Text); err != nil {
					log.Printf("Error handling text message: %v", err)
				}
			}
		case webhook.PostbackEvent:
			if err := h.handlePostback(ctx, e.ReplyToken, e.Postback.Data); err != nil {
				log.Printf("Error handling postback: %v", err)
			}
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *WebhookHandler) handleTextMessage(ctx context.Context, replyToken, text string) error {
	kind, title := parseCommand(text)
	switch kind {
	case cmdAdd:
		err := h.screen.Submit(ctx, title)
		if errors.Is(err, services.ErrEmptyTitle) {
			return h.replyMessage(replyToken, "タスクのタイトルを入力してください。\n例: 追加 買い物")
		}
		if err != nil {
			return h.replyMessage(replyToken, "タスクの追加に失敗しました。")
		}
		return h.replyMessage(replyToken, fmt.Sprintf("✅ タスク「%s」を追加しました。", title))
	case cmdList:
		return h.showTaskList(replyToken)
	case cmdSync:
		if err := h.screen.Sync(ctx); err != nil {
			if errors.Is(err, screen.ErrSyncInProgress) {
				return h.replyMessage(replyToken, "同期中です。しばらくお待ちください。")
			}
			return h.replyMessage(replyToken, "同期に失敗しました。")
		}
		return h.replyMessage(replyToken, fmt.Sprintf("🔄 同期しました（%d件）。", len(h.screen.State().Tasks)))
	case cmdHelp:
		return h.replyMessage(replyToken, helpText)
	}

	// 認識できないメッセージには応答しない
	return nil
}

func (h *WebhookHandler) handlePostback(ctx context.Context, replyToken, data string) error {
	id, ok := strings.CutPrefix(data, "delete:")
	if !ok || id == "" {
		return nil
	}
	h.screen.Delete(ctx, id)
	return h.replyMessage(replyToken, "🗑️ タスクを削除しました。")
}

func (h *WebhookHandler) showTaskList(replyToken string) error {
	tasks := h.screen.State().Tasks
	if len(tasks) == 0 {
		return h.replyMessage(replyToken, screen.EmptyMessage)
	}

	var lines []string
	var items []messaging_api.QuickReplyItem
	for i, task := range tasks {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, task.Title))
		if len(items) < maxQuickReplyItems {
			items = append(items, messaging_api.QuickReplyItem{
				Action: &messaging_api.PostbackAction{
					Label:       truncateLabel(fmt.Sprintf("削除 %d", i+1)),
					Data:        "delete:" + task.ID,
					DisplayText: truncateLabel("削除 " + task.Title),
				},
			})
		}
	}

	message := &messaging_api.TextMessage{
		Text:       fmt.Sprintf("📝 タスク一覧 (%d件)\n\n%s", len(tasks), strings.Join(lines, "\n")),
		QuickReply: &messaging_api.QuickReply{Items: items},
	}
	return h.reply(replyToken, message)
}

func truncateLabel(s string) string {
	r := []rune(s)
	if len(r) <= maxLabelRunes {
		return s
	}
	return string(r[:maxLabelRunes])
}

const helpText = `📝 タスク 使い方

🆕 追加: 追加 <タイトル> / add <title>
📋 一覧: 一覧 / list
🔄 同期: 同期 / sync
🗑️ 削除: 一覧のボタンから選択
❓ ヘルプ: ヘルプ / help`

func (h *WebhookHandler) replyMessage(replyToken, text string) error {
	return h.reply(replyToken, &messaging_api.TextMessage{Text: text})
}

func (h *WebhookHandler) reply(replyToken string, message messaging_api.MessageInterface) error {
	_, err := h.bot.ReplyMessage(
		&messaging_api.ReplyMessageRequest{
			ReplyToken: replyToken,
			Messages:   []messaging_api.MessageInterface{message},
		},
	)
	if err != nil {
		log.Printf("Failed to send reply message: %v", err)
	}
	return err
}
