package emailsvc

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ontime/core"
)

type consoleService struct {
	conf          *core.Config
	subjPrefix    string
	disableOutput bool

	mu           sync.Mutex
	sentMessages []core.EmailMessage
	failWith     error
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService(conf *core.Config) *consoleService {
	return &consoleService{
		conf:       conf,
		subjPrefix: "[" + conf.AppName + "] ",
	}
}

func (svc *consoleService) Send(_ context.Context, msg *core.EmailMessage) error {
	if err := msg.Render(svc.conf); err != nil {
		return errors.Wrap(err, "rendering email")
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		return nil
	}

	svc.mu.Lock()
	failWith := svc.failWith
	if failWith == nil {
		svc.sentMessages = append(svc.sentMessages, *msg)
	}
	svc.mu.Unlock()
	if failWith != nil {
		return failWith
	}

	if !svc.disableOutput {
		svc.dump(msg)
	}
	return nil
}

func (svc *consoleService) dump(msg *core.EmailMessage) {
	body := new(strings.Builder)
	_, _ = fmt.Fprintf(body, "From: %s\r\n", svc.conf.DefaultFromEmail.String())
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", svc.subjPrefix+msg.Subject)
	_, _ = fmt.Fprintf(body, "To: %s\r\n", svc.joinAddresses(msg.To))
	_, _ = fmt.Fprint(body, "\r\n")
	_, _ = fmt.Fprintf(body, "%s\r\n", msg.TextContent)
	log.Println(body.String())
}

func (svc *consoleService) joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}

// NewConsoleServiceMock returns a silent console service for tests: sends are
// synchronous, recorded, and can be forced to fail.
func NewConsoleServiceMock(conf *core.Config) *consoleService {
	return &consoleService{
		conf:          conf,
		subjPrefix:    "[" + conf.AppName + "] ",
		disableOutput: true,
	}
}

// SentMessages returns the messages accepted so far.
func (svc *consoleService) SentMessages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	out := make([]core.EmailMessage, len(svc.sentMessages))
	copy(out, svc.sentMessages)
	return out
}

// FailWith makes subsequent sends fail with err (nil restores normal behavior).
func (svc *consoleService) FailWith(err error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.failWith = err
}

// Reset clears recorded messages.
func (svc *consoleService) Reset() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.sentMessages = nil
}
