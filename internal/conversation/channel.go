package conversation

import "context"

// Channel is the broadcast channel quotes are published to.
type Channel interface {
	// SendVoice posts the voice file and returns the channel message id.
	SendVoice(ctx context.Context, mediaRef string) (int, error)
	EditCaption(ctx context.Context, messageID int, caption string) error
	// DeleteMessage succeeds when the message is already gone.
	DeleteMessage(ctx context.Context, messageID int) error
}
