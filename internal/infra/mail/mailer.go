package mail

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/arklim/account-auth/internal/core/port"
	"github.com/arklim/account-auth/internal/infra/config"
)

// Drivers accepted in config.MailSettings.Driver.
const (
	DriverLog  = "log"
	DriverSMTP = "smtp"
)

// New selects the mailer for cfg.Driver.
func New(cfg config.MailSettings, logger *zap.Logger) (port.Mailer, error) {
	switch cfg.Driver {
	case DriverLog, "":
		return NewLoggingMailer(logger), nil
	case DriverSMTP:
		return NewSMTPMailer(cfg)
	default:
		return nil, fmt.Errorf("mail: unknown driver %q", cfg.Driver)
	}
}
