// Copyright (c) 2024 tgkit

package telegram

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateCategory(t *testing.T) {
	cases := []struct {
		update Update
		want   UpdateCategory
	}{
		{Update{Message: &Message{}}, CategoryMessage},
		{Update{EditedMessage: &Message{}}, CategoryEditedMessage},
		{Update{ChannelPost: &Message{}}, CategoryChannelPost},
		{Update{EditedChannelPost: &Message{}}, CategoryEditedChannelPost},
		{Update{CallbackQuery: &CallbackQuery{}}, CategoryCallbackQuery},
		{Update{InlineQuery: &InlineQuery{}}, CategoryInlineQuery},
		{Update{Poll: &Poll{}}, CategoryPoll},
		{Update{PollAnswer: &PollAnswer{}}, CategoryPollAnswer},
		{Update{}, categoryUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.update.Category())
	}
}

func TestEffectiveMessage(t *testing.T) {
	m := &Message{Text: "x"}
	assert.Equal(t, m, (&Update{Message: m}).EffectiveMessage())
	assert.Equal(t, m, (&Update{EditedMessage: m}).EffectiveMessage())
	assert.Equal(t, m, (&Update{ChannelPost: m}).EffectiveMessage())
	assert.Equal(t, m, (&Update{EditedChannelPost: m}).EffectiveMessage())
	assert.Nil(t, (&Update{CallbackQuery: &CallbackQuery{}}).EffectiveMessage())
}

func TestMessageContentType(t *testing.T) {
	assert.Equal(t, ContentText, (&Message{Text: "hi"}).ContentType())
	assert.Equal(t, ContentPhoto, (&Message{Photo: []PhotoSize{{}}}).ContentType())
	assert.Equal(t, ContentSticker, (&Message{Sticker: &Sticker{}}).ContentType())
	assert.Equal(t, ContentUnknown, (&Message{}).ContentType())

	// An animation also carries the document field; animation wins.
	anim := &Message{Animation: &Animation{}, Document: &Document{}}
	assert.Equal(t, ContentAnimation, anim.ContentType())
}

func TestMessageHelpers(t *testing.T) {
	m := &Message{
		MessageID: 10,
		From:      &User{ID: 7},
		Chat:      Chat{ID: -100, Type: ChatTypeSupergroup},
		Text:      "/ban @spammer",
	}

	assert.Equal(t, int64(-100), m.ChatID())
	assert.Equal(t, int64(7), m.SenderID())
	assert.False(t, m.IsPrivate())
	assert.True(t, m.IsCommand())
	assert.False(t, m.IsReply())
	assert.False(t, m.IsForward())

	reply := &Message{ReplyToMessage: m, Chat: Chat{Type: ChatTypePrivate}}
	assert.True(t, reply.IsReply())
	assert.True(t, reply.IsPrivate())

	fwd := &Message{ForwardDate: 1700000000}
	assert.True(t, fwd.IsForward())
}

func TestMessageTextOrCaption(t *testing.T) {
	assert.Equal(t, "text", (&Message{Text: "text"}).TextOrCaption())
	assert.Equal(t, "caption", (&Message{Caption: "caption"}).TextOrCaption())
	assert.Equal(t, "", (&Message{}).TextOrCaption())
}

func TestUpdateUnmarshal(t *testing.T) {
	raw := `{
		"update_id": 1001,
		"message": {
			"message_id": 5,
			"date": 1700000000,
			"chat": {"id": 42, "type": "private", "first_name": "A"},
			"from": {"id": 42, "is_bot": false, "first_name": "A", "username": "a"},
			"text": "/start deep",
			"entities": [{"type": "bot_command", "offset": 0, "length": 6}]
		}
	}`

	var u Update
	require.NoError(t, json.Unmarshal([]byte(raw), &u))

	assert.Equal(t, 1001, u.UpdateID)
	assert.Equal(t, CategoryMessage, u.Category())
	require.NotNil(t, u.Message)
	assert.Equal(t, int64(42), u.Message.Chat.ID)
	assert.True(t, u.Message.IsCommand())
	assert.Equal(t, "start", ExtractCommand(u.Message.Text))
	assert.Equal(t, "deep", ExtractArguments(u.Message.Text))
}
