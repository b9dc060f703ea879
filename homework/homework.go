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

package homework

import (
	"errors"
	"fmt"
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"
)

const (
	LayoutISODate     = "2006-01-02"
	LayoutDottedDate  = "02.01.2006"
	LayoutISODateTime = "2006-01-02 15:04:05"
)

var (
	ErrUnknownDateFormat = errors.New("unknown date format")

	// dueDateLayouts lists date layouts seen in date_prepared_for, most common first.
	dueDateLayouts = []string{LayoutISODate, LayoutDottedDate, time.RFC3339, LayoutISODateTime}
)

// Decode decodes a JSON array of ClientHomework records from r. Fields that are absent or explicitly null decode to
// their zero values, and a null document decodes to an empty list.
func Decode(r io.Reader) ([]ClientHomework, error) {
	json := jsoniter.ConfigCompatibleWithStandardLibrary

	var raw []ClientHomework
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}

	if raw == nil {
		raw = []ClientHomework{}
	}

	return raw, nil
}

// Map flattens raw homework records into Homework records, one per input record and in the same order.
func Map(raw []ClientHomework) []Homework {
	hw := make([]Homework, 0, len(raw))

	for i := range raw {
		hw = append(hw, mapOne(&raw[i]))
	}

	return hw
}

// mapOne converts a single ClientHomework into a Homework.
func mapOne(c *ClientHomework) Homework {
	entry := &c.HomeworkEntry

	testURLs := make([][]string, 0, len(entry.EomURLs))
	for _, eom := range entry.EomURLs {
		urls := make([]string, 0, len(eom.URLs))
		for _, u := range eom.URLs {
			urls = append(urls, u.URL)
		}

		testURLs = append(testURLs, urls)
	}

	return Homework{
		Date:        entry.Homework.DatePreparedFor,
		CreatedAt:   c.CreatedAt,
		SubjectName: entry.Homework.Subject.Name,
		Task:        entry.Description,
		TestURLs:    testURLs,
	}
}

// DueDate parses the raw due date of the homework in local timezone.
func (h Homework) DueDate() (time.Time, error) {
	return parseFirstDateTime(dueDateLayouts, h.Date)
}

// parseFirstDateTime tries each layout in turn and returns the first successfully parsed time.
func parseFirstDateTime(layouts []string, value string) (time.Time, error) {
	for _, l := range layouts {
		if t, err := time.ParseInLocation(l, value, time.Local); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownDateFormat, value)
}
