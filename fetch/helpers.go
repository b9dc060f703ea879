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
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dkorunic/mash-homework/homework"
)

var (
	ErrNetwork          = errors.New("network error")
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrDecode           = errors.New("could not decode homework listing")
)

// getHomework fetches raw homework listing for a date range and decodes it, returning raw records and optional
// error.
func (c *Client) getHomework(from, to time.Time) ([]homework.ClientHomework, error) {
	u := c.homeworkURL(from, to)

	req, err := http.NewRequestWithContext(c.ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Auth-Token", c.token)
	req.Header.Set("Profile-Id", c.profileID)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		select {
		case <-c.ctx.Done():
			return nil, c.ctx.Err()
		default:
			return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// drain rest of the body
		io.Copy(io.Discard, resp.Body) //nolint:errcheck

		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	raw, err := homework.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return raw, nil
}

// homeworkURL builds homework listing URL with begin and end prepared date query parameters.
func (c *Client) homeworkURL(from, to time.Time) *url.URL {
	u := c.baseURL.JoinPath(HomeworkPath)

	q := url.Values{}
	q.Set("begin_prepared_date", formatQueryDate(from))
	q.Set("end_prepared_date", formatQueryDate(to))
	u.RawQuery = q.Encode()

	return u
}

// formatQueryDate formats a date as DD.MM.YYYY.
func formatQueryDate(t time.Time) string {
	return t.Format(QueryDate)
}
