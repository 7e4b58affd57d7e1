package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/arklim/account-auth/internal/core/port"
	"github.com/arklim/account-auth/internal/infra/logger"
)

// LoggingMailer writes outbound mail to the log instead of delivering it.
// The body is logged in full so verification links can be followed locally.
type LoggingMailer struct {
	logger *zap.Logger
}

// NewLoggingMailer constructs a mailer backed by structured logging.
func NewLoggingMailer(lg *zap.Logger) *LoggingMailer {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &LoggingMailer{logger: lg}
}

func (m *LoggingMailer) Send(ctx context.Context, msg port.MailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.logger.Info("email dispatched",
		zap.String("to", logger.MaskEmail(msg.To)),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
		zap.String("request_id", logger.RequestIDFromContext(ctx)),
	)
	return nil
}

var _ port.Mailer = (*LoggingMailer)(nil)
