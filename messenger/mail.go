// @license
// Copyright (C) 2022  Dinko Korunic
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package messenger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/dkorunic/mash-homework/db"
	"github.com/dkorunic/mash-homework/format"
	"github.com/dkorunic/mash-homework/logger"
	"github.com/dkorunic/mash-homework/msgtypes"
	"github.com/dkorunic/mash-homework/version"
	mail "github.com/wneessen/go-mail"
	"go.uber.org/ratelimit"
)

const (
	MailSendLimit   = 20 // 20 emails per 1 hour
	MailWindow      = 1 * time.Hour
	MailMinDelay    = MailWindow / MailSendLimit
	MailDefaultPort = 587
	MailTimeout     = 30 * time.Second
	MailSubject     = "Домашнее задание из электронного дневника"
	MailQueue       = "mail-queue"
)

var (
	ErrMailInvalidPort     = errors.New("invalid or missing SMTP port, will try with default 587/tcp")
	ErrMailDialer          = errors.New("failed to create mail delivery client")
	ErrMailInvalidAddress  = errors.New("invalid e-mail address")
	ErrMailSendingMessages = errors.New("error sending mail messages")

	MailQueueName = []byte(MailQueue)
	MailVersion   = version.ReadVersion("github.com/wneessen/go-mail")
)

// MailServer holds SMTP delivery parameters.
type MailServer struct {
	Server   string
	Port     string
	Username string
	Password string
	From     string
	Subject  string
	To       []string
}

// Mail messenger resends queued messages and then processes homework alerts from a channel, sending each as
// multipart/alternative e-mail with text/plain and text/html parts to all recipients. Undelivered messages are
// stored in the persistent queue.
func Mail(ctx context.Context, eDB db.Store, ch <-chan msgtypes.Message, srv MailServer, retries uint) error {
	logger.Debug().Msgf("Started e-mail messenger (%v)", MailVersion)

	d, err := mailClient(srv)
	if err != nil {
		return err
	}

	rl := ratelimit.New(MailSendLimit, ratelimit.Per(MailWindow))

	return processQueueAndChannel(ctx, eDB, MailQueueName, ch, func(g msgtypes.Message) {
		processMail(ctx, eDB, d, srv, g, rl, retries)
	})
}

// mailClient creates SMTP client with opportunistic TLS and optional PLAIN authentication.
func mailClient(srv MailServer) (*mail.Client, error) {
	port, err := strconv.Atoi(srv.Port)
	if err != nil {
		logger.Warn().Msgf("%v: %v", ErrMailInvalidPort, srv.Port)

		port = MailDefaultPort
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(MailTimeout),
	}

	if srv.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(srv.Username),
			mail.WithPassword(srv.Password),
		)
	}

	d, err := mail.NewClient(srv.Server, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMailDialer, err)
	}

	return d, nil
}

// mailMessages builds one bulk message per recipient.
func mailMessages(srv MailServer, g msgtypes.Message) ([]*mail.Msg, error) {
	plainContent := format.PlainMsg(g.Homework, g.IsTest())
	htmlContent := format.HTMLMsg(g.Homework, g.IsTest())

	subject := srv.Subject
	if subject == "" {
		subject = MailSubject
	}

	messages := make([]*mail.Msg, 0, len(srv.To))

	for _, u := range srv.To {
		m := mail.NewMsg()

		if err := m.From(srv.From); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMailInvalidAddress, err)
		}

		if err := m.To(u); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMailInvalidAddress, err)
		}

		m.SetMessageID()
		m.SetDate()
		m.SetBulk()
		m.Subject(subject)
		m.SetBodyString(mail.TypeTextPlain, plainContent)
		m.AddAlternativeString(mail.TypeTextHTML, htmlContent)

		messages = append(messages, m)
	}

	return messages, nil
}

// processMail sends a message to all recipients in a single SMTP session, queueing it on failure.
func processMail(ctx context.Context, eDB db.Store, d *mail.Client, srv MailServer, g msgtypes.Message,
	rl ratelimit.Limiter, retries uint,
) {
	messages, err := mailMessages(srv, g)
	if err != nil {
		logger.Error().Msgf("%v: %v", ErrMailSendingMessages, err)

		return
	}

	rl.Take()

	// retryable and cancellable attempt to send a message
	err = retry.Do(
		func() error {
			return d.DialAndSendWithContext(ctx, messages...)
		},
		retry.Attempts(retries),
		retry.Context(ctx),
		retry.Delay(MailMinDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		logger.Error().Msgf("%v: %v", ErrMailSendingMessages, err)

		storeFailed(ctx, eDB, MailQueueName, g)
	}
}
