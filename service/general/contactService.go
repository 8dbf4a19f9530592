package general

import (
	"context"
	"errors"
	"log/slog"

	"github.com/6431503106/brselab/model"
	contactrepo "github.com/6431503106/brselab/repository/contact"
	"github.com/6431503106/brselab/service/notify"
)

var (
	ErrNotFound      = errors.New("message not found")
	ErrReplyRequired = errors.New("reply message is required")
	ErrUnknownAction = errors.New("unknown action")
)

type Repo = contactrepo.Repo

type Service interface {
	// SubmitMessage stores a contact-us message and mails the admin.
	SubmitMessage(ctx context.Context, m *model.ContactMessage) error
	ListUnread(ctx context.Context) ([]model.ContactMessage, error)
	// Handle replies to or dismisses a message; both mark it read.
	Handle(ctx context.Context, id int64, action, reply string) error
}

type service struct {
	r          Repo
	d          notify.Dispatcher
	log        *slog.Logger
	adminEmail string
}

func New(r Repo, d notify.Dispatcher, log *slog.Logger, adminEmail string) Service {
	return &service{r: r, d: d, log: log, adminEmail: adminEmail}
}

func (s *service) SubmitMessage(ctx context.Context, m *model.ContactMessage) error {
	if err := s.r.Create(ctx, m); err != nil {
		return err
	}
	if s.d != nil && s.adminEmail != "" {
		n := notify.ContactReceived(s.adminEmail, m.Name, m.Email, m.Message)
		if err := s.d.Dispatch(ctx, n); err != nil {
			s.log.Error("contact: admin notification failed", "err", err)
		}
	}
	return nil
}

func (s *service) ListUnread(ctx context.Context) ([]model.ContactMessage, error) {
	return s.r.ListUnread(ctx)
}

func (s *service) Handle(ctx context.Context, id int64, action, reply string) error {
	m, err := s.r.ByID(ctx, id)
	if errors.Is(err, contactrepo.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	switch action {
	case "reply":
		if reply == "" {
			return ErrReplyRequired
		}
		if s.d != nil {
			if derr := s.d.Dispatch(ctx, notify.ContactReply(m.Email, m.Name, reply)); derr != nil {
				s.log.Error("contact: reply dispatch failed", "id", id, "err", derr)
			}
		}
	case "dismiss":
	default:
		return ErrUnknownAction
	}
	return s.r.MarkRead(ctx, id)
}
