package core

import (
	"net/mail"
	"strings"
	"testing"
)

func testConf() *Config {
	return &Config{
		Env:             "TEST",
		TestMode:        true,
		AppName:         "OnTime",
		WorkDir:         Getwd(),
		FrontendBaseURL: "http://localhost:3000",
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestEmailMessage_Render(t *testing.T) {
	conf := testConf()
	ParseEmailTemplates(conf, nopLogger{})

	t.Run("plain body", func(t *testing.T) {
		msg := &EmailMessage{
			To:      []mail.Address{{Address: "kat@test.cd"}},
			Subject: "Hi",
			BodyStr: "plain content",
		}
		if err := msg.Render(conf); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if msg.TextContent != "plain content" {
			t.Errorf("TextContent = %q", msg.TextContent)
		}
		if msg.HTMLContent != "" {
			t.Errorf("HTMLContent = %q, want empty", msg.HTMLContent)
		}
	})

	t.Run("templated", func(t *testing.T) {
		msg := &EmailMessage{
			To:           []mail.Address{{Address: "kat@test.cd"}},
			Subject:      "Unsubscribed",
			TemplateName: "unsubscribe-confirmation",
			TemplateData: struct {
				DeadlineTitle string
				AllReminders  bool
			}{DeadlineTitle: "Early Action"},
		}
		if err := msg.Render(conf); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if !msg.HasContent() {
			t.Fatal("no content rendered")
		}
		for _, content := range []string{msg.TextContent, msg.HTMLContent} {
			if !strings.Contains(content, "Early Action") {
				t.Errorf("template data not applied:\n%s", content)
			}
			if !strings.Contains(content, conf.FrontendBaseURL+"/dashboard") {
				t.Errorf("frontend link missing:\n%s", content)
			}
		}
	})

	t.Run("unknown template renders nothing", func(t *testing.T) {
		msg := &EmailMessage{
			To:           []mail.Address{{Address: "kat@test.cd"}},
			TemplateName: "nope",
		}
		if err := msg.Render(conf); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if msg.HasContent() {
			t.Error("content rendered for unknown template")
		}
	})
}
