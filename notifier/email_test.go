package notifier

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"cine-catalog/catalog"
	"cine-catalog/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/mail.v2"
)

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

var testEmailConfig = config.EmailConfig{
	SMTPHost:       "smtp.local",
	SMTPPort:       587,
	SenderEmail:    "catalog@example.com",
	RecipientEmail: "ops@example.com",
}

func TestNotifyRefresh(t *testing.T) {
	sender := &fakeSender{}
	n := NewEmailNotifierWithSender(testEmailConfig, sender)

	items := []catalog.Item{
		{ID: 1, Title: "Coco", Year: 2017, Rating: "U", Kind: catalog.KindMovie},
		{ID: 2, Title: "Dark", Rating: "15", Kind: catalog.KindSeries},
		{ID: 3, Title: "Roma", Year: 2018, Kind: catalog.KindMovie},
	}
	require.NoError(t, n.NotifyRefresh(items, 2))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, []string{"Cine Catalog: 3 titles (2 movies, 1 series)"}, msg.GetHeader("Subject"))
	assert.Equal(t, []string{"ops@example.com"}, msg.GetHeader("To"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	body := buf.String()
	assert.Contains(t, body, "Coco")
	assert.Contains(t, body, "2 skipped")
}

func TestNotifyRefreshListsTitlesAlphabetically(t *testing.T) {
	sender := &fakeSender{}
	n := NewEmailNotifierWithSender(testEmailConfig, sender)

	// snapshot order, by id
	items := []catalog.Item{
		{ID: 1, Title: "Zodiac", Kind: catalog.KindMovie},
		{ID: 2, Title: "Amelie", Kind: catalog.KindMovie},
		{ID: 3, Title: "Roma", Kind: catalog.KindMovie},
	}
	require.NoError(t, n.NotifyRefresh(items, 0))
	require.Len(t, sender.sent, 1)

	var buf bytes.Buffer
	_, err := sender.sent[0].WriteTo(&buf)
	require.NoError(t, err)
	body := buf.String()

	a, r, z := strings.Index(body, "Amelie"), strings.Index(body, "Roma"), strings.Index(body, "Zodiac")
	require.True(t, a >= 0 && r >= 0 && z >= 0)
	assert.Less(t, a, r)
	assert.Less(t, r, z)
	assert.Equal(t, "Zodiac", items[0].Title, "caller slice is left alone")
}

func TestNewEmailNotifierLogin(t *testing.T) {
	cfg := testEmailConfig
	n, err := NewEmailNotifier(cfg)
	require.NoError(t, err)
	d, ok := n.sender.(*gomail.Dialer)
	require.True(t, ok)
	assert.Equal(t, "catalog@example.com", d.Username)
	assert.Equal(t, "smtp.local", d.Host)

	cfg.SMTPUsername = "api"
	n, err = NewEmailNotifier(cfg)
	require.NoError(t, err)
	assert.Equal(t, "api", n.sender.(*gomail.Dialer).Username)
}

func TestNotifyRefreshNothingToSend(t *testing.T) {
	sender := &fakeSender{}
	n := NewEmailNotifierWithSender(testEmailConfig, sender)

	require.NoError(t, n.NotifyRefresh(nil, 0))
	assert.Empty(t, sender.sent)
}

func TestNotifyRefreshSendError(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection refused")}
	n := NewEmailNotifierWithSender(testEmailConfig, sender)

	err := n.NotifyRefresh([]catalog.Item{{ID: 1, Title: "Roma", Kind: catalog.KindMovie}}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNewEmailNotifierRequiresConfig(t *testing.T) {
	_, err := NewEmailNotifier(config.EmailConfig{SMTPHost: "smtp.local"})
	require.Error(t, err)

	n, err := NewEmailNotifier(testEmailConfig)
	require.NoError(t, err)
	assert.NotNil(t, n)
}
