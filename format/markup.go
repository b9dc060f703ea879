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

// MarkupMsg formats homework as preformatted Markup block in a string.
func MarkupMsg(h homework.Homework, isTest bool) string {
	sb := &strings.Builder{}

	markupAddHeader(sb, h, isTest)

	sb.WriteString("```\n")
	sb.WriteString(strings.ReplaceAll(CleanText(h.Task), "```", "'''"))
	sb.WriteString("\n```\n")

	for _, group := range h.TestURLs {
		for _, u := range group {
			sb.WriteString("<")
			sb.WriteString(u)
			sb.WriteString(">\n")
		}
	}

	return sb.String()
}

// markupAddHeader adds Markup bold header containing subject name and due date.
func markupAddHeader(sb *strings.Builder, h homework.Homework, isTest bool) {
	sb.WriteString("*")
	PlainFormatSubject(sb, h, isTest)
	sb.WriteString("*\n\n")
}
