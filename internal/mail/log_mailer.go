package mail

import (
	"context"

	"github.com/LixUb/ZoNaTrip/internal/logger"
)

// LogMailer writes messages to the structured log instead of sending them.
// Only the envelope is logged: the body and attachment bytes may carry
// identity data, so they show up as sizes.
type LogMailer struct {
	From   string
	Logger logger.Logger
}

func (m LogMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	attachments := make([]string, 0, len(msg.Attachments))
	sizes := make([]int, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		attachments = append(attachments, a.Name)
		sizes = append(sizes, len(a.Data))
	}
	m.Logger.Info("mail (log backend)",
		"from", m.From,
		"to", msg.To,
		"subject", msg.Subject,
		"body_bytes", len(msg.Body),
		"attachments", attachments,
		"attachment_sizes", sizes,
	)
	return nil
}
