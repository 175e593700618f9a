// Package slack announces generated reports in a Slack channel.
package slack

import (
	"bytes"
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

type api interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	UploadFileV2Context(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error)
}

// Attachment is a file posted next to the summary message.
type Attachment struct {
	Name  string
	Title string
	Data  []byte
}

type Notifier struct {
	api       api
	channelID string
}

func New(botToken, channelID string) *Notifier {
	return &Notifier{api: slack.New(botToken), channelID: channelID}
}

// Announce posts the text summary as a code block and uploads the attachments
// to the same channel.
func (n *Notifier) Announce(ctx context.Context, text string, files []Attachment) error {
	if _, _, err := n.api.PostMessageContext(ctx, n.channelID, slack.MsgOptionText("```"+text+"```", false)); err != nil {
		return fmt.Errorf("post summary: %w", err)
	}
	for _, file := range files {
		_, err := n.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
			Reader:   bytes.NewReader(file.Data),
			FileSize: len(file.Data),
			Filename: file.Name,
			Title:    file.Title,
			Channel:  n.channelID,
		})
		if err != nil {
			return fmt.Errorf("upload %s: %w", file.Name, err)
		}
	}
	return nil
}
