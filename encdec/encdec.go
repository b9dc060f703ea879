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

package encdec

import (
	"bytes"
	"encoding/gob"

	"github.com/dkorunic/mash-homework/msgtypes"
)

// DecodeMsgs decodes a GOB-encoded slice of messages. Empty input decodes to an empty slice.
func DecodeMsgs(val []byte) ([]msgtypes.Message, error) {
	msgs := []msgtypes.Message{}

	if len(val) == 0 {
		return msgs, nil
	}

	err := gob.NewDecoder(bytes.NewReader(val)).Decode(&msgs)

	return msgs, err
}

// EncodeMsgs encodes a given list of messages using GOB encoding.
func EncodeMsgs(msgs []msgtypes.Message) ([]byte, error) {
	var buf bytes.Buffer

	err := gob.NewEncoder(&buf).Encode(msgs)

	return buf.Bytes(), err
}
