//go:build integration

package integration

import (
	"bytes"
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/jhillyerd/enmime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/rihlahq/crm-backend/internal/services"
	"github.com/rihlahq/crm-backend/tests/fixtures"
)

// capturedMail is one message accepted by the sink server
type capturedMail struct {
	From string
	To   []string
	Data []byte
}

// mailSink is a go-smtp backend that records everything it accepts
type mailSink struct {
	mu    sync.Mutex
	mails []capturedMail
}

func (b *mailSink) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &sinkSession{backend: b}, nil
}

func (b *mailSink) all() []capturedMail {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]capturedMail, len(b.mails))
	copy(out, b.mails)
	return out
}

type sinkSession struct {
	backend *mailSink
	from    string
	to      []string
}

func (s *sinkSession) Mail(from string, _ *smtp.MailOptions) error {
	s.from = from
	return nil
}

func (s *sinkSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.to = append(s.to, to)
	return nil
}

func (s *sinkSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.backend.mu.Lock()
	s.backend.mails = append(s.backend.mails, capturedMail{From: s.from, To: s.to, Data: data})
	s.backend.mu.Unlock()
	return nil
}

func (s *sinkSession) Reset() {
	s.from = ""
	s.to = nil
}

func (s *sinkSession) Logout() error { return nil }

// SMTPNotifierTestSuite tests the new-lead email alert against an
// in-process SMTP server.
type SMTPNotifierTestSuite struct {
	suite.Suite
	sink     *mailSink
	server   *smtp.Server
	addr     string
	notifier services.LeadNotifier
}

func TestSMTPNotifierTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	suite.Run(t, new(SMTPNotifierTestSuite))
}

// SetupSuite starts the sink server on an ephemeral port
func (s *SMTPNotifierTestSuite) SetupSuite() {
	s.sink = &mailSink{}

	s.server = smtp.NewServer(s.sink)
	s.server.Domain = "localhost"
	s.server.AllowInsecureAuth = true

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(s.T(), err)
	s.addr = listener.Addr().String()

	go s.server.Serve(listener)

	// Give the accept loop a moment
	time.Sleep(50 * time.Millisecond)

	s.notifier = services.NewSMTPNotifier(services.SMTPNotifierConfig{
		Addr: s.addr,
		From: "crm@rihlah.example",
		To:   "sales@rihlah.example",
	})
}

// TearDownSuite stops the sink server
func (s *SMTPNotifierTestSuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
}

// SetupTest clears captured mail
func (s *SMTPNotifierTestSuite) SetupTest() {
	s.sink.mu.Lock()
	s.sink.mails = nil
	s.sink.mu.Unlock()
}

func (s *SMTPNotifierTestSuite) TestNotifyNewLead_DeliversAlert() {
	lead := fixtures.NewLeadBuilder().
		WithName("WhatsApp Lead +628123456789").
		WithPhone("+628123456789").
		Build()

	err := s.notifier.NotifyNewLead(context.Background(), lead, "Assalamualaikum, mau tanya paket umrah")
	require.NoError(s.T(), err)

	mails := s.sink.all()
	require.Len(s.T(), mails, 1)
	assert.Equal(s.T(), "crm@rihlah.example", mails[0].From)
	assert.Equal(s.T(), []string{"sales@rihlah.example"}, mails[0].To)
}

func (s *SMTPNotifierTestSuite) TestNotifyNewLead_EmailContent() {
	lead := fixtures.NewLeadBuilder().
		WithName("WhatsApp Lead +628123456789").
		WithPhone("+628123456789").
		Build()

	require.NoError(s.T(), s.notifier.NotifyNewLead(context.Background(), lead, "Mau tanya jadwal keberangkatan"))

	mails := s.sink.all()
	require.Len(s.T(), mails, 1)

	env, err := enmime.ReadEnvelope(bytes.NewReader(mails[0].Data))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), "New WhatsApp lead: +628123456789", env.GetHeader("Subject"))
	assert.Contains(s.T(), env.Text, "+628123456789")
	assert.Contains(s.T(), env.Text, "Mau tanya jadwal keberangkatan")
}

func (s *SMTPNotifierTestSuite) TestNotifyNewLead_RelayDown() {
	// Point at a dead port
	deadNotifier := services.NewSMTPNotifier(services.SMTPNotifierConfig{
		Addr: "127.0.0.1:1",
		From: "crm@rihlah.example",
		To:   "sales@rihlah.example",
	})

	lead := fixtures.NewLeadBuilder().Build()
	err := deadNotifier.NotifyNewLead(context.Background(), lead, "halo")
	assert.Error(s.T(), err)
}
