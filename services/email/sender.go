package emailsvc

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/tarpaulin/core"
)

var (
	// SentMessages records what the console services delivered.
	SentMessages = make([]core.EmailMessage, 0)
	mu           sync.Mutex
)

func record(msg core.EmailMessage) {
	mu.Lock()
	SentMessages = append(SentMessages, msg)
	mu.Unlock()
}

// sender renders messages, drops the undeliverable ones and hands the rest to deliver.
type sender struct {
	subjPrefix  string
	logger      core.Logger
	synchronous bool
	deliver     func(msg core.EmailMessage) error
}

func newSender(logger core.Logger, conf *core.Config, deliver func(core.EmailMessage) error) sender {
	return sender{
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
		deliver:    deliver,
	}
}

func (s sender) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if s.synchronous {
			s.sendMessage(msg)
			continue
		}
		go s.sendMessage(msg)
	}
}

func (s sender) sendMessage(msg *core.EmailMessage) {
	if err := msg.Render(); err != nil {
		s.logger.Error(fmt.Sprintf("rendering email: %v", err), errors.Wrap(err, "rendering email"))
		return
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		return
	}
	out := *msg
	out.Subject = s.subjPrefix + msg.Subject
	if err := s.deliver(out); err != nil {
		s.logger.Error(fmt.Sprintf("sending email %q: %v", out.Subject, err), err)
	}
}
