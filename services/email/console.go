package emailsvc

import (
	"net/mail"
	"strings"
	"sync"

	"github.com/aliqadomi777/front-end-lms/core"
)

// ConsoleService logs messages instead of sending them and keeps a copy of each.
// It sends synchronously.
type ConsoleService struct {
	from       mail.Address
	subjPrefix string
	logger     core.Logger

	mu   sync.Mutex
	sent []core.EmailMessage
}

var _ core.EmailService = (*ConsoleService)(nil)

func NewConsoleService(conf *core.Config, logger core.Logger) *ConsoleService {
	return &ConsoleService{
		from:       conf.DevAPI.DefaultFromEmail,
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
	}
}

func (svc *ConsoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if !msg.HasRecipients() || !msg.HasContent() {
			continue
		}
		sent := *msg
		sent.Subject = svc.subjPrefix + msg.Subject
		svc.logger.Info("email: "+sent.Subject, "from", svc.from.String(), "to", joinAddresses(sent.To))
		svc.logger.Debug(sent.TextContent)

		svc.mu.Lock()
		svc.sent = append(svc.sent, sent)
		svc.mu.Unlock()
	}
}

// Sent returns the messages sent so far.
func (svc *ConsoleService) Sent() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.EmailMessage{}, svc.sent...)
}

// New returns the sendgrid service when an API key is configured, the console service otherwise.
func New(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.DevAPI.SendgridAPIKey != "" {
		return NewSendgridService(conf, logger)
	}
	return NewConsoleService(conf, logger)
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}
