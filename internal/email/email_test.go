package email

import (
	"errors"
	"testing"
	"time"

	mail "github.com/wneessen/go-mail"
)

const (
	testAddr    = "test@example.com"
	testName    = "Test User"
	testHost    = "localhost"
	testSubject = "Test Subject"
	testBody    = "Test Message"
)

func newTestEmail(t *testing.T) *Email {
	t.Helper()
	e := New()
	e.SetHostName(testHost)
	e.SetSubject(testSubject)
	if err := e.SetFrom(testAddr); err != nil {
		t.Fatalf("set from failed: %v", err)
	}
	e.SetSSLOnConnect(false)
	return e
}

func TestAddBcc_SingleAndMultiple(t *testing.T) {
	e := newTestEmail(t)
	if err := e.AddBcc(testAddr); err != nil {
		t.Fatalf("add bcc failed: %v", err)
	}
	bcc := e.Bcc()
	if len(bcc) != 1 || bcc[0].Address != testAddr {
		t.Fatalf("unexpected bcc list: %v", bcc)
	}

	e = New()
	if err := e.AddBcc("bcc1@example.com", "bcc2@example.com", "bcc3@example.com"); err != nil {
		t.Fatalf("add bcc failed: %v", err)
	}
	bcc = e.Bcc()
	if len(bcc) != 3 {
		t.Fatalf("expected 3 bcc entries got %d", len(bcc))
	}
	for i, want := range []string{"bcc1@example.com", "bcc2@example.com", "bcc3@example.com"} {
		if bcc[i].Address != want {
			t.Fatalf("bcc[%d] = %s, want %s", i, bcc[i].Address, want)
		}
	}
}

func TestAddBcc_InvalidAddress(t *testing.T) {
	e := New()
	if err := e.AddBcc("not-an-address"); err == nil {
		t.Fatalf("expected parse error")
	}
	if len(e.Bcc()) != 0 {
		t.Fatalf("invalid address must not be stored")
	}
}

func TestAddCc(t *testing.T) {
	e := newTestEmail(t)
	if err := e.AddCc(testAddr); err != nil {
		t.Fatalf("add cc failed: %v", err)
	}
	cc := e.Cc()
	if len(cc) != 1 || cc[0].Address != testAddr {
		t.Fatalf("unexpected cc list: %v", cc)
	}

	if err := e.AddCc("cc2@example.com"); err != nil {
		t.Fatalf("add cc failed: %v", err)
	}
	cc = e.Cc()
	if len(cc) != 2 || cc[1].Address != "cc2@example.com" {
		t.Fatalf("unexpected cc list after second add: %v", cc)
	}
}

func TestAddHeader(t *testing.T) {
	e := newTestEmail(t)
	if len(e.Headers()) != 0 {
		t.Fatalf("expected empty header map")
	}

	if err := e.AddHeader("X-Priority", "1"); err != nil {
		t.Fatalf("add header failed: %v", err)
	}
	headers := e.Headers()
	if len(headers) != 1 || headers["X-Priority"] != "1" {
		t.Fatalf("unexpected headers: %v", headers)
	}

	e.SetBody(testBody)
	if err := e.AddTo(testAddr); err != nil {
		t.Fatalf("add to failed: %v", err)
	}
	if err := e.Build(); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	got := e.Msg().GetGenHeader(mail.Header("X-Priority"))
	if len(got) != 1 || got[0] != "1" {
		t.Fatalf("header missing from built message: %v", got)
	}
}

func TestAddHeader_RejectsEmptyNameOrValue(t *testing.T) {
	e := New()
	if err := e.AddHeader("", "1"); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if err := e.AddHeader("X-Priority", ""); err == nil {
		t.Fatalf("expected error for empty value")
	}
}

func TestAddReplyToFormat(t *testing.T) {
	e := newTestEmail(t)
	if err := e.AddReplyToFormat(testName, testAddr); err != nil {
		t.Fatalf("add reply-to failed: %v", err)
	}
	replyTo := e.ReplyTo()
	if len(replyTo) != 1 || replyTo[0].Address != testAddr || replyTo[0].Name != testName {
		t.Fatalf("unexpected reply-to list: %v", replyTo)
	}

	if err := e.AddReplyToFormat("Reply User", "reply@example.com"); err != nil {
		t.Fatalf("add reply-to failed: %v", err)
	}
	replyTo = e.ReplyTo()
	if len(replyTo) != 2 {
		t.Fatalf("expected 2 reply-to entries got %d", len(replyTo))
	}
	if replyTo[1].Address != "reply@example.com" || replyTo[1].Name != "Reply User" {
		t.Fatalf("unexpected second reply-to: %v", replyTo[1])
	}
}

func TestBuild(t *testing.T) {
	e := newTestEmail(t)
	e.SetBody(testBody)
	if err := e.AddTo(testAddr); err != nil {
		t.Fatalf("add to failed: %v", err)
	}
	if err := e.Build(); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	msg := e.Msg()
	if msg == nil {
		t.Fatalf("expected built message")
	}
	subj := msg.GetGenHeader(mail.HeaderSubject)
	if len(subj) != 1 || subj[0] != testSubject {
		t.Fatalf("unexpected subject: %v", subj)
	}

	// The build-once guard: a second call must fail.
	if err := e.Build(); !errors.Is(err, ErrAlreadyBuilt) {
		t.Fatalf("expected ErrAlreadyBuilt got %v", err)
	}
}

func TestBuild_NoRecipient(t *testing.T) {
	e := newTestEmail(t)
	e.SetBody(testBody)
	if err := e.Build(); !errors.Is(err, ErrMissingRecipients) {
		t.Fatalf("expected ErrMissingRecipients got %v", err)
	}
	if e.Msg() != nil {
		t.Fatalf("failed build must not produce a message")
	}
}

func TestBuild_NoSender(t *testing.T) {
	e := New()
	e.SetSubject(testSubject)
	e.SetBody(testBody)
	if err := e.AddTo(testAddr); err != nil {
		t.Fatalf("add to failed: %v", err)
	}
	if err := e.Build(); !errors.Is(err, ErrMissingSender) {
		t.Fatalf("expected ErrMissingSender got %v", err)
	}
}

func TestHostName(t *testing.T) {
	e := newTestEmail(t)
	if e.HostName() != testHost {
		t.Fatalf("expected %s got %s", testHost, e.HostName())
	}

	// Host falls back to the session when the email has none of its own.
	withSession := New()
	withSession.SetSession(&Session{Host: "session.example.com"})
	if withSession.HostName() != "session.example.com" {
		t.Fatalf("expected session host got %s", withSession.HostName())
	}

	if New().HostName() != "" {
		t.Fatalf("expected empty host for fresh email")
	}
}

func TestSession(t *testing.T) {
	e := newTestEmail(t)
	session, err := e.Session()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Host != testHost {
		t.Fatalf("expected session host %s got %s", testHost, session.Host)
	}

	// Cached: a second call returns the same session.
	again, err := e.Session()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != session {
		t.Fatalf("expected cached session instance")
	}

	if _, err := New().Session(); !errors.Is(err, ErrMissingHost) {
		t.Fatalf("expected ErrMissingHost got %v", err)
	}
}

func TestSessionClient(t *testing.T) {
	s := &Session{Host: testHost, Port: 2525, Username: "u", Password: "p", StartTLS: true}
	client, err := s.Client()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client == nil {
		t.Fatalf("expected client")
	}

	if _, err := (&Session{}).Client(); !errors.Is(err, ErrMissingHost) {
		t.Fatalf("expected ErrMissingHost got %v", err)
	}
}

func TestSentDate(t *testing.T) {
	e := newTestEmail(t)

	before := time.Now()
	sent := e.SentDate()
	after := time.Now()
	if sent.Before(before) || sent.After(after) {
		t.Fatalf("default sent date %v outside [%v, %v]", sent, before, after)
	}

	specific := time.Unix(123456789, 0)
	e.SetSentDate(specific)
	if !e.SentDate().Equal(specific) {
		t.Fatalf("expected %v got %v", specific, e.SentDate())
	}
}

func TestSocketConnectionTimeout(t *testing.T) {
	e := newTestEmail(t)
	if e.SocketConnectionTimeout() != DefaultSocketTimeout {
		t.Fatalf("expected default timeout got %v", e.SocketConnectionTimeout())
	}

	e.SetSocketConnectionTimeout(30 * time.Second)
	if e.SocketConnectionTimeout() != 30*time.Second {
		t.Fatalf("expected 30s got %v", e.SocketConnectionTimeout())
	}
}

func TestSetFrom(t *testing.T) {
	e := newTestEmail(t)
	if err := e.SetFrom("new@example.com"); err != nil {
		t.Fatalf("set from failed: %v", err)
	}
	from := e.From()
	if from.Address != "new@example.com" {
		t.Fatalf("unexpected from address: %s", from.Address)
	}
	if from.Name != "" {
		t.Fatalf("expected empty display name got %q", from.Name)
	}
}

func TestSetSMTPPort(t *testing.T) {
	e := New()
	if err := e.SetSMTPPort(0); err == nil {
		t.Fatalf("expected error for port 0")
	}
	if err := e.SetSMTPPort(587); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEmailIntegration(t *testing.T) {
	e := New()
	e.SetHostName(testHost)
	e.SetSubject(testSubject)
	if err := e.SetFromFormat(testName, testAddr); err != nil {
		t.Fatalf("set from failed: %v", err)
	}
	if err := e.AddToFormat("To User", "to@example.com"); err != nil {
		t.Fatalf("add to failed: %v", err)
	}
	if err := e.AddCc("cc@example.com"); err != nil {
		t.Fatalf("add cc failed: %v", err)
	}
	if err := e.AddBcc("bcc@example.com"); err != nil {
		t.Fatalf("add bcc failed: %v", err)
	}
	if err := e.AddReplyToFormat("Reply User", "reply@example.com"); err != nil {
		t.Fatalf("add reply-to failed: %v", err)
	}
	if err := e.AddHeader("X-Priority", "1"); err != nil {
		t.Fatalf("add header failed: %v", err)
	}
	e.SetBody("This is a test email.")

	if err := e.Build(); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	msg := e.Msg()

	from := msg.GetFrom()
	if len(from) != 1 || from[0].Address != testAddr || from[0].Name != testName {
		t.Fatalf("unexpected from: %v", from)
	}
	to := msg.GetTo()
	if len(to) != 1 || to[0].Address != "to@example.com" {
		t.Fatalf("unexpected to: %v", to)
	}
	cc := msg.GetCc()
	if len(cc) != 1 || cc[0].Address != "cc@example.com" {
		t.Fatalf("unexpected cc: %v", cc)
	}
	bcc := msg.GetBcc()
	if len(bcc) != 1 || bcc[0].Address != "bcc@example.com" {
		t.Fatalf("unexpected bcc: %v", bcc)
	}
	replyTo := msg.GetGenHeader(mail.HeaderReplyTo)
	if len(replyTo) != 1 {
		t.Fatalf("expected reply-to header got %v", replyTo)
	}
	if got := msg.GetGenHeader(mail.Header("X-Priority")); len(got) != 1 {
		t.Fatalf("expected X-Priority header got %v", got)
	}
}
