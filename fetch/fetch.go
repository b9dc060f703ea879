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

package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dkorunic/mash-homework/homework"
)

const (
	Timeout      = 60 * time.Second              // site can get really slow sometimes
	BaseURL      = "https://dnevnik.mos.ru"      // e-school diary site
	HomeworkPath = "/core/api/student_homeworks" // homework listing endpoint
	QueryDate    = "02.01.2006"                  // DD.MM.YYYY format for query parameters
	UserAgent    = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/80.0.3987.87 Safari/537.36 RuxitSynthetic/1.0 v8662719366318635631 t6281935149377429786 "
)

var (
	ErrEmptyToken     = errors.New("empty authentication token")
	ErrEmptyProfileID = errors.New("empty profile ID")
	ErrInvalidBaseURL = errors.New("invalid base URL")
)

// NewClientWithContext creates new *Client with context, authentication token and profile ID, applying optional
// settings in order.
func NewClientWithContext(ctx context.Context, token, profileID string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("%w", ErrEmptyToken)
	}

	if profileID == "" {
		return nil, fmt.Errorf("%w", ErrEmptyProfileID)
	}

	u, err := url.Parse(BaseURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: Timeout,
		},
		baseURL:   u,
		ctx:       ctx,
		now:       time.Now,
		token:     token,
		profileID: profileID,
		userAgent: UserAgent,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// WithHTTPClient replaces the default HTTP client, e.g. with one using a fake transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc != nil {
			c.httpClient = hc
		}

		return nil
	}
}

// WithBaseURL points the client to a different diary host.
func WithBaseURL(base string) Option {
	return func(c *Client) error {
		u, err := url.Parse(base)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
		}

		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidBaseURL, base)
		}

		c.baseURL = u

		return nil
	}
}

// WithTimeout sets the overall HTTP request timeout. Zero disables the timeout. A client given with WithHTTPClient
// is copied, not modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc

		return nil
	}
}

// WithNow replaces the clock used to fill in omitted date bounds.
func WithNow(now func() time.Time) Option {
	return func(c *Client) error {
		if now != nil {
			c.now = now
		}

		return nil
	}
}

// GetHomework fetches homework due between from and to (inclusive) and returns simplified records in service order.
// A zero from or to bound is replaced with the current date.
func (c *Client) GetHomework(from, to time.Time) ([]homework.Homework, error) {
	today := c.now()

	if from.IsZero() {
		from = today
	}

	if to.IsZero() {
		to = today
	}

	raw, err := c.getHomework(from, to)
	if err != nil {
		return nil, err
	}

	return homework.Map(raw), nil
}

// GetHomeworkAt fetches homework due on a single date.
func (c *Client) GetHomeworkAt(at time.Time) ([]homework.Homework, error) {
	return c.GetHomework(at, at)
}

// CloseConnections closes all connections on its transport.
func (c *Client) CloseConnections() {
	c.httpClient.CloseIdleConnections()
}
