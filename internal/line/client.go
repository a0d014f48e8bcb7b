// Package line wraps the LINE Messaging API reply channel.
package line

import (
	"context"
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Replier sends a reply message for a webhook event.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) error
}

type Client struct {
	api *messaging_api.MessagingApiAPI
}

var _ Replier = (*Client)(nil)

func NewClient(channelToken string) (*Client, error) {
	api, err := messaging_api.NewMessagingApiAPI(channelToken)
	if err != nil {
		return nil, fmt.Errorf("create messaging API client: %w", err)
	}
	return &Client{api: api}, nil
}

// Reply sends a single text message against the event's reply token.
func (c *Client) Reply(_ context.Context, replyToken, text string) error {
	_, err := c.api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages: []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: text},
		},
	})
	if err != nil {
		return fmt.Errorf("reply message: %w", err)
	}
	return nil
}
