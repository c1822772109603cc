package emailsvc

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorcraft/tutorcraft/core"
)

func TestConsoleServiceMock(t *testing.T) {
	conf := core.NewTestConfig(t.TempDir())
	svc := NewConsoleServiceMock(conf)

	svc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: "Ann", Address: "ann@tutorcraft.test"}},
			Subject:      "Password Reset",
			TemplateName: "password_reset",
			TemplateData: map[string]string{"Name": "Ann", "UID": "dWlk", "Token": "tok-en"},
		},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "hi"},
		&core.EmailMessage{To: []mail.Address{{Address: "bob@tutorcraft.test"}}, BodyStr: "plain"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0].TextContent, "http://frontend.test/reset-password?uid=dWlk&token=tok-en")
	assert.Contains(t, sent[0].HTMLContent, "Hi Ann,")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(sent[0].TextContent), "http://frontend.test"))
	assert.Equal(t, "plain", sent[1].TextContent)
	assert.Empty(t, sent[1].HTMLContent)

	svc.Reset()
	assert.Empty(t, svc.SentMessages())
}

func TestConsoleFormat(t *testing.T) {
	svc := newConsoleService(core.NewTestConfig(t.TempDir()), discard{})
	body, err := svc.format(core.EmailMessage{
		To:          []mail.Address{{Address: "ann@tutorcraft.test"}},
		Subject:     "Hello",
		TextContent: "text",
		HTMLContent: "<p>html</p>",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "Subject: [TutorCraft] Hello\r\n")
	assert.Contains(t, body, "To: <ann@tutorcraft.test>\r\n")
	assert.Contains(t, body, "text/html")
	assert.NotContains(t, body, "CC:")
}

func TestSendgridService(t *testing.T) {
	conf := core.NewTestConfig(t.TempDir())
	conf.SendgridApiKey = "SG.key"

	var got rest.Request
	origAPI := sendgridAPI
	defer func() { sendgridAPI = origAPI }()
	sendgridAPI = func(req rest.Request) (*rest.Response, error) {
		got = req
		return &rest.Response{StatusCode: 202}, nil
	}

	svc := NewSendgridService(conf, discard{}).(*sendgridService)
	svc.send(core.EmailMessage{
		To:          []mail.Address{{Name: "Ann", Address: "ann@tutorcraft.test"}},
		Subject:     "Hello",
		TextContent: "text",
	})

	assert.Equal(t, rest.Post, got.Method)
	assert.Equal(t, "Bearer SG.key", got.Headers["Authorization"])
	assert.Contains(t, string(got.Body), `"subject":"[TutorCraft] Hello"`)
	assert.Contains(t, string(got.Body), `"email":"ann@tutorcraft.test"`)
	assert.NotContains(t, string(got.Body), "text/html")
}
