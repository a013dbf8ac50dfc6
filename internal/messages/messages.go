// Package messages holds the bot's canned Japanese texts and the performer
// selection menu.
package messages

import (
	"encoding/json"
	"fmt"

	"github.com/step63r/ticket-bot-backend/internal/config"
)

// Menu button labels recognised in incoming messages.
const (
	ButtonCheckCurrentPerformer = "現在の設定を確認"
	ButtonChangePerformer       = "設定を変更"
)

const (
	SelectPerformerAltText = "アーティストを選択してください。"
	selectPerformerPrompt  = "対象のアーティストを選択してください"
	NotRecognized          = "そのメッセージは認識できませんでした。メニューから選択してください。"
	NoSubscription         = "アーティスト設定が見つかりません。設定を行ってください。"
)

// CurrentSetting formats the "current setting" reply.
func CurrentSetting(displayName string) string {
	return fmt.Sprintf("現在のアーティスト設定: %s", displayName)
}

// Registered formats the subscription confirmation reply.
func Registered(displayName string) string {
	return fmt.Sprintf("%s を登録しました。", displayName)
}

// TicketsFoundHeader is the first line of an availability notification.
func TicketsFoundHeader(displayName string) string {
	return fmt.Sprintf("%s のチケットが見つかりました\n", displayName)
}

// AdminAlert formats the error escalation pushed to the admin user.
func AdminAlert(err error) string {
	return fmt.Sprintf("Error occurred in check_ticket: %v", err)
}

// SelectPerformerMenu renders the performer selection flex bubble from the
// configured performer table.
func SelectPerformerMenu(performers []config.Performer) json.RawMessage {
	type action struct {
		Type  string `json:"type"`
		Label string `json:"label"`
		Data  string `json:"data"`
	}
	type content struct {
		Type   string  `json:"type"`
		Text   string  `json:"text,omitempty"`
		Weight string  `json:"weight,omitempty"`
		Size   string  `json:"size,omitempty"`
		Wrap   bool    `json:"wrap,omitempty"`
		Action *action `json:"action,omitempty"`
	}
	contents := []content{{
		Type:   "text",
		Text:   selectPerformerPrompt,
		Weight: "bold",
		Size:   "md",
		Wrap:   true,
	}}
	for _, p := range performers {
		contents = append(contents, content{
			Type: "button",
			Action: &action{
				Type:  "postback",
				Label: p.DisplayName,
				Data:  "artist=" + p.Key,
			},
		})
	}
	bubble := map[string]any{
		"type": "bubble",
		"body": map[string]any{
			"type":     "box",
			"layout":   "vertical",
			"contents": contents,
		},
	}
	b, _ := json.Marshal(bubble)
	return b
}
