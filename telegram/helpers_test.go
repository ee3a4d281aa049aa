// Copyright (c) 2024 tgkit

package telegram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{Token: "123456:test-token", LogLevel: "none"})
	require.NoError(t, err)
	c.me.Store(&User{ID: 42, IsBot: true, Username: "testbot", FirstName: "Test"})
	t.Cleanup(c.Stop)
	return c
}

var nextUpdateID = 1000

func textUpdate(chatID int64, text string) *Update {
	nextUpdateID++
	return &Update{
		UpdateID: nextUpdateID,
		Message: &Message{
			MessageID: nextUpdateID,
			From:      &User{ID: chatID, FirstName: "user"},
			Chat:      Chat{ID: chatID, Type: ChatTypePrivate},
			Text:      text,
		},
	}
}

func groupUpdate(chatID int64, text string) *Update {
	u := textUpdate(chatID, text)
	u.Message.Chat.Type = ChatTypeSupergroup
	return u
}

func photoUpdate(chatID int64, caption string) *Update {
	u := textUpdate(chatID, "")
	u.Message.Caption = caption
	u.Message.Photo = []PhotoSize{{FileID: "photo-1", Width: 100, Height: 100}}
	return u
}

func process(c *Client, u *Update) {
	c.ProcessUpdate(context.Background(), u)
}
