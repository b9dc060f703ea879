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

package format

import (
	"strings"

	"github.com/dkorunic/mash-homework/homework"
)

const (
	HomeworkPrefix = "📝 Домашнее задание: " // homework title prefix
	TestPrefix     = "🧪 Тестовое задание: " // test message title prefix
	URLPrefix      = "🔗 "
)

// PlainLine formats a single homework as "<subject_name>: <task>".
func PlainLine(h homework.Homework) string {
	return h.SubjectName + ": " + h.Task
}

// PlainMsg formats homework as cleartext block in a string.
func PlainMsg(h homework.Homework, isTest bool) string {
	sb := &strings.Builder{}

	plainAddHeader(sb, h, isTest)
	sb.WriteString(CleanText(h.Task))
	sb.WriteString("\n")
	plainFormatURLs(sb, h.TestURLs)

	return sb.String()
}

// PlainURLs formats all material URLs, one per line, each indented under the homework line.
func PlainURLs(testURLs [][]string) string {
	sb := &strings.Builder{}

	for _, group := range testURLs {
		for _, u := range group {
			sb.WriteString("  ")
			sb.WriteString(u)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// plainFormatURLs writes material URLs with a link prefix.
//
//nolint:interfacer
func plainFormatURLs(sb *strings.Builder, testURLs [][]string) {
	for _, group := range testURLs {
		for _, u := range group {
			sb.WriteString(URLPrefix)
			sb.WriteString(u)
			sb.WriteString("\n")
		}
	}
}

// PlainFormatSubject adds cleartext header containing prefix, subject name and due date.
//
//nolint:interfacer
func PlainFormatSubject(sb *strings.Builder, h homework.Homework, isTest bool) {
	if isTest {
		sb.WriteString(TestPrefix)
	} else {
		sb.WriteString(HomeworkPrefix)
	}

	sb.WriteString(h.SubjectName)

	if h.Date != "" {
		sb.WriteString(" / ")
		sb.WriteString(h.Date)
	}
}

// plainAddHeader adds cleartext header and a delimiter.
func plainAddHeader(sb *strings.Builder, h homework.Homework, isTest bool) {
	PlainFormatSubject(sb, h, isTest)
	sb.WriteString("\n\n")
}
