package emailsvc

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/tarpaulin/core"
)

type discardLogger struct{}

func (discardLogger) Debug(string, ...interface{}) {}
func (discardLogger) Info(string, ...interface{})  {}
func (discardLogger) Warn(string, ...interface{})  {}
func (discardLogger) Error(string, ...interface{}) {}
func (discardLogger) Fatal(string, ...interface{}) {}

func sentTo(addr string) []core.EmailMessage {
	mu.Lock()
	defer mu.Unlock()
	var msgs []core.EmailMessage
	for _, msg := range SentMessages {
		if len(msg.To) > 0 && msg.To[0].Address == addr {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	conf := core.NewConfig()
	conf.AppName = "Tarpaulin"
	conf.SetDefaultFromEmail("Tarpaulin <noreply@test.com>")
	svc := NewConsoleServiceMock(discardLogger{}, conf)

	svc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: "Jane", Address: "jane@mail.test"}},
			Subject:      "Welcome",
			BodyStr:      "Hi Jane",
			HTMLTemplate: "<p>Hi {{.Name}}</p>",
			TemplateData: map[string]string{"Name": "Jane"},
		},
		&core.EmailMessage{Subject: "Nobody", BodyStr: "lost"},
		&core.EmailMessage{To: []mail.Address{{Address: "empty@mail.test"}}, Subject: "Empty"},
		&core.EmailMessage{
			To:           []mail.Address{{Address: "broken@mail.test"}},
			Subject:      "Broken",
			HTMLTemplate: "<p>{{.Missing}}</p>",
			TemplateData: map[string]string{},
		},
	)

	msgs := sentTo("jane@mail.test")
	if assert.Len(t, msgs, 1) {
		assert.Equal(t, "[Tarpaulin] Welcome", msgs[0].Subject)
		assert.Equal(t, "Hi Jane", msgs[0].TextContent)
		assert.Equal(t, "<p>Hi Jane</p>", msgs[0].HTMLContent)
	}
	assert.Empty(t, sentTo("empty@mail.test"))
	assert.Empty(t, sentTo("broken@mail.test"))
}

func TestConsoleService_compose(t *testing.T) {
	conf := core.NewConfig()
	conf.SetDefaultFromEmail("Tarpaulin <noreply@test.com>")
	svc := newConsoleService(discardLogger{}, conf, true)

	raw, err := svc.compose(core.EmailMessage{
		To:          []mail.Address{{Name: "Jane", Address: "jane@mail.test"}},
		Subject:     "[Tarpaulin] Welcome",
		TextContent: "Hi Jane",
	})
	if !assert.NoError(t, err) {
		return
	}
	assert.Contains(t, raw, "From: \"Tarpaulin\" <noreply@test.com>\r\n")
	assert.Contains(t, raw, "To: \"Jane\" <jane@mail.test>\r\n")
	assert.Contains(t, raw, "Subject: [Tarpaulin] Welcome\r\n")
	assert.Contains(t, raw, "Content-Type: text/plain; charset=utf-8")
	assert.NotContains(t, raw, "Cc:")
	assert.NotContains(t, raw, "text/html")
	assert.True(t, strings.Contains(raw, "Hi Jane\r\n"))
}
