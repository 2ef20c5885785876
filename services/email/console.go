package emailsvc

import (
	"fmt"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tarpaulin/core"
)

type consoleService struct {
	sender
	from   mail.Address
	silent bool
}

var _ core.EmailService = (*consoleService)(nil)

// NewConsoleService returns an email service logging MIME messages instead of sending them.
func NewConsoleService(logger core.Logger, conf *core.Config) core.EmailService {
	return newConsoleService(logger, conf, false)
}

// NewConsoleServiceMock returns a silent console service that sends synchronously, for tests.
func NewConsoleServiceMock(logger core.Logger, conf *core.Config) core.EmailService {
	return newConsoleService(logger, conf, true)
}

func newConsoleService(logger core.Logger, conf *core.Config, mock bool) *consoleService {
	svc := &consoleService{
		from:   conf.DefaultFromEmail(),
		silent: mock,
	}
	svc.sender = newSender(logger, conf, svc.deliver)
	svc.sender.synchronous = mock
	return svc
}

func (svc *consoleService) deliver(msg core.EmailMessage) error {
	raw, err := svc.compose(msg)
	if err != nil {
		return err
	}
	if !svc.silent {
		svc.logger.Info(raw)
	}
	record(msg)
	return nil
}

// compose writes `msg` as a multipart/alternative MIME message.
func (svc *consoleService) compose(msg core.EmailMessage) (string, error) {
	body := new(strings.Builder)
	parts := multipart.NewWriter(body)

	headers := [][2]string{
		{"From", svc.from.String()},
		{"To", joinAddresses(msg.To)},
		{"Cc", joinAddresses(msg.Cc)},
		{"Bcc", joinAddresses(msg.Bcc)},
		{"Subject", msg.Subject},
		{"Date", time.Now().Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "multipart/alternative; boundary=" + parts.Boundary()},
	}
	for _, h := range headers {
		if h[1] != "" {
			_, _ = fmt.Fprintf(body, "%s: %s\r\n", h[0], h[1])
		}
	}
	_, _ = fmt.Fprint(body, "\r\n")

	contents := [][2]string{{"text/plain", msg.TextContent}, {"text/html", msg.HTMLContent}}
	for _, c := range contents {
		if c[1] == "" {
			continue
		}
		w, err := parts.CreatePart(textproto.MIMEHeader{"Content-Type": {c[0] + "; charset=utf-8"}})
		if err != nil {
			return "", errors.Wrapf(err, "creating %s part", c[0])
		}
		_, _ = fmt.Fprintf(w, "%s\r\n", c[1])
	}
	if err := parts.Close(); err != nil {
		return "", errors.Wrap(err, "closing multipart writer")
	}
	return body.String(), nil
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}
