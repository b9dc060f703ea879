// @license
// Copyright (C) 2025  Dinko Korunic
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

package format

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dkorunic/mash-homework/homework"
	"github.com/dkorunic/mash-homework/logger"
	"github.com/google/renameio/v2/maybe"
	"github.com/google/uuid"
	"github.com/jordic/goics"
)

const (
	icalProdID  = "-//dkorunic//mash-homework//RU"
	icalUIDHost = "@mash-homework"
	icalPerm    = 0o644
)

var ErrICalWrite = errors.New("unable to write iCalendar file")

var icalEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`)

// Calendar is a list of homework rendered as an iCalendar document with one all-day event per due date.
type Calendar struct {
	ProfileID string
	Items     []homework.Homework
	Stamp     time.Time
}

// EventID returns a stable identifier for homework made of lowercase hexadecimal characters only, so that repeated
// exports of the same assignment update existing calendar entries instead of duplicating them.
func EventID(profileID string, h homework.Homework) string {
	name := strings.Join([]string{profileID, h.SubjectName, h.Date, h.Task}, "\x00")

	return strings.ReplaceAll(uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String(), "-", "")
}

// EventUID returns iCalendar UID for homework.
func EventUID(profileID string, h homework.Homework) string {
	return EventID(profileID, h) + icalUIDHost
}

// EmitICal builds VCALENDAR component, skipping homework without a parseable due date.
func (c Calendar) EmitICal() goics.Componenter {
	cal := goics.NewComponent()
	cal.SetType("VCALENDAR")
	cal.AddProperty("VERSION", "2.0")
	cal.AddProperty("PRODID", icalProdID)
	cal.AddProperty("CALSCALE", "GREGORIAN")

	stamp := c.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	for _, h := range c.Items {
		due, err := h.DueDate()
		if err != nil {
			logger.Warn().Msgf("Skipping homework for %v in iCalendar export: %v", h.SubjectName, err)

			continue
		}

		ev := goics.NewComponent()
		ev.SetType("VEVENT")
		ev.AddProperty("UID", EventUID(c.ProfileID, h))

		k, v := goics.FormatDateTime("DTSTAMP", stamp)
		ev.AddProperty(k, v)

		k, v = goics.FormatDateField("DTSTART", due)
		ev.AddProperty(k, v)

		k, v = goics.FormatDateField("DTEND", due.AddDate(0, 0, 1))
		ev.AddProperty(k, v)

		ev.AddProperty("SUMMARY", icalEscaper.Replace(h.SubjectName))
		ev.AddProperty("DESCRIPTION", icalEscaper.Replace(description(h)))

		cal.AddComponent(ev)
	}

	return cal
}

// Encode writes iCalendar document to a byte slice.
func (c Calendar) Encode() []byte {
	var buf bytes.Buffer

	goics.NewICalEncode(&buf).Encode(c)

	return buf.Bytes()
}

// WriteICal atomically writes homework list as an iCalendar file.
func WriteICal(file, profileID string, items []homework.Homework) error {
	data := Calendar{ProfileID: profileID, Items: items}.Encode()

	if err := maybe.WriteFile(file, data, icalPerm); err != nil {
		return fmt.Errorf("%w: %w", ErrICalWrite, err)
	}

	return nil
}

// description renders event body: cleaned task text followed by material URLs.
func description(h homework.Homework) string {
	sb := &strings.Builder{}
	sb.WriteString(CleanText(h.Task))

	for _, group := range h.TestURLs {
		for _, u := range group {
			sb.WriteString("\n")
			sb.WriteString(u)
		}
	}

	return sb.String()
}
