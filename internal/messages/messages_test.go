package messages

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/step63r/ticket-bot-backend/internal/config"
)

func TestSelectPerformerMenu(t *testing.T) {
	raw := SelectPerformerMenu(config.Performers)

	var bubble struct {
		Type string `json:"type"`
		Body struct {
			Contents []struct {
				Type   string `json:"type"`
				Action *struct {
					Type  string `json:"type"`
					Label string `json:"label"`
					Data  string `json:"data"`
				} `json:"action"`
			} `json:"contents"`
		} `json:"body"`
	}
	require.NoError(t, json.Unmarshal(raw, &bubble))
	assert.Equal(t, "bubble", bubble.Type)

	// one prompt text plus one button per performer
	require.Len(t, bubble.Body.Contents, len(config.Performers)+1)
	assert.Equal(t, "text", bubble.Body.Contents[0].Type)
	for i, p := range config.Performers {
		btn := bubble.Body.Contents[i+1]
		require.NotNil(t, btn.Action)
		assert.Equal(t, "postback", btn.Action.Type)
		assert.Equal(t, p.DisplayName, btn.Action.Label)
		assert.Equal(t, "artist="+p.Key, btn.Action.Data)
	}
}

func TestTexts(t *testing.T) {
	assert.Equal(t, "現在のアーティスト設定: NEWS", CurrentSetting("NEWS"))
	assert.Equal(t, "なにわ男子 を登録しました。", Registered("なにわ男子"))
	assert.Equal(t, "なにわ男子 のチケットが見つかりました\n", TicketsFoundHeader("なにわ男子"))
	assert.Equal(t, "Error occurred in check_ticket: boom", AdminAlert(errors.New("boom")))
}
