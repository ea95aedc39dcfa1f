package mailbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// Message is one unseen message fetched from the mailbox.
type Message struct {
	UID uint32
	// Envelope fields, used when the raw message cannot be parsed.
	Subject string
	From    string
	To      string
	Raw     []byte
}

// Session is an open, authenticated mailbox with a folder selected.
type Session interface {
	// Unseen returns up to limit unseen messages, oldest first, leaving
	// out UIDs for which skip reports true. A nil skip keeps every UID.
	Unseen(ctx context.Context, limit int, skip func(uid uint32) bool) ([]Message, error)
	MarkSeen(ctx context.Context, uid uint32) error
	Close() error
}

// Dialer opens a new Session.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}

// IMAPDialer connects to an IMAP server with go-imap.
type IMAPDialer struct {
	Addr     string
	Username string
	Password string
	Folder   string
	TLS      bool
	Timeout  time.Duration
}

// Dial connects, logs in and selects the folder read-write.
func (d *IMAPDialer) Dial(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		c   *client.Client
		err error
	)
	dialer := &net.Dialer{Timeout: d.Timeout}
	if d.TLS {
		c, err = client.DialWithDialerTLS(dialer, d.Addr, nil)
	} else {
		c, err = client.DialWithDialer(dialer, d.Addr)
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.Addr, err)
	}
	if d.Timeout > 0 {
		c.Timeout = d.Timeout
	}

	if err := c.Login(d.Username, d.Password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("login: %w", err)
	}

	folder := d.Folder
	if folder == "" {
		folder = imap.InboxName
	}
	if _, err := c.Select(folder, false); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("select %s: %w", folder, err)
	}

	return &imapSession{c: c}, nil
}

type imapSession struct {
	c *client.Client
}

func (s *imapSession) Unseen(ctx context.Context, limit int, skip func(uid uint32) bool) ([]Message, error) {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}

	uids, err := s.c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("search unseen: %w", err)
	}
	if skip != nil {
		kept := uids[:0]
		for _, uid := range uids {
			if !skip(uid) {
				kept = append(kept, uid)
			}
		}
		uids = kept
	}
	if len(uids) == 0 {
		return nil, nil
	}
	if limit > 0 && len(uids) > limit {
		uids = uids[:limit]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	// Peek keeps the server from setting \Seen before ingestion succeeds.
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, imap.FetchEnvelope, section.FetchItem()}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- s.c.UidFetch(seqset, items, messages)
	}()

	out := make([]Message, 0, len(uids))
	for msg := range messages {
		m := Message{UID: msg.Uid}
		if env := msg.Envelope; env != nil {
			m.Subject = env.Subject
			if len(env.From) > 0 {
				m.From = env.From[0].Address()
			}
			if len(env.To) > 0 {
				m.To = env.To[0].Address()
			}
		}
		if r := msg.GetBody(section); r != nil {
			raw, err := io.ReadAll(r)
			if err == nil {
				m.Raw = raw
			}
		}
		out = append(out, m)
	}

	if err := <-done; err != nil {
		return out, fmt.Errorf("fetch: %w", err)
	}
	return out, ctx.Err()
}

func (s *imapSession) MarkSeen(ctx context.Context, uid uint32) error {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := s.c.UidStore(seqset, item, []interface{}{imap.SeenFlag}, nil); err != nil {
		return fmt.Errorf("mark seen %d: %w", uid, err)
	}
	return nil
}

func (s *imapSession) Close() error {
	err := s.c.Logout()
	if errors.Is(err, client.ErrAlreadyLoggedOut) {
		return nil
	}
	return err
}
