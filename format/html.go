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
	"html"
	"strings"

	"github.com/dkorunic/mash-homework/homework"
)

// HTMLMsg formats homework as HTML with a bold header and preformatted task in a string.
func HTMLMsg(h homework.Homework, isTest bool) string {
	sb := &strings.Builder{}

	htmlAddHeader(sb, h, isTest)

	sb.WriteString("<pre>\n")
	sb.WriteString(html.EscapeString(CleanText(h.Task)))
	sb.WriteString("\n</pre>\n")

	for _, group := range h.TestURLs {
		for _, u := range group {
			u = html.EscapeString(u)

			sb.WriteString(`<a href="`)
			sb.WriteString(u)
			sb.WriteString(`">`)
			sb.WriteString(u)
			sb.WriteString("</a>\n")
		}
	}

	return sb.String()
}

// htmlAddHeader adds HTML bold header containing subject name and due date.
func htmlAddHeader(sb *strings.Builder, h homework.Homework, isTest bool) {
	header := &strings.Builder{}
	PlainFormatSubject(header, h, isTest)

	sb.WriteString("<b>")
	sb.WriteString(html.EscapeString(header.String()))
	sb.WriteString("</b>\n")
}
