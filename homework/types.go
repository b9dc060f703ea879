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

// Attachment is an opaque attachment reference; the client does not use its contents.
type Attachment struct{}

// RemoteAttachment is an opaque remote attachment reference.
type RemoteAttachment struct{}

// Subject structure holds the school subject of a homework assignment.
type Subject struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	ExamName string `json:"exam_name"`
}

// HomeworkData structure holds scheduling metadata of a homework assignment.
type HomeworkData struct {
	ID              uint64  `json:"id"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
	DeletedAt       string  `json:"deleted_at"`
	DeletedBy       string  `json:"deleted_by"`
	TeacherID       uint64  `json:"teacher_id"`
	SubjectID       uint32  `json:"subject_id"`
	IsRequired      bool    `json:"is_required"`
	MarkRequired    bool    `json:"mark_required"`
	GroupID         uint64  `json:"group_id"`
	DateAssignedOn  string  `json:"date_assigned_on"`
	DatePreparedFor string  `json:"date_prepared_for"`
	Subject         Subject `json:"subject"`
}

// EomURLEntry is a single electronic online material link.
type EomURLEntry struct {
	URLType     string `json:"url_type"`
	URL         string `json:"url"`
	ProfileType string `json:"profile_type"`
}

// EomURL groups links of one electronic online material (a test, a book, ...).
type EomURL struct {
	MaterialID  uint64        `json:"material_id"`
	Type        string        `json:"type"`
	ContentType string        `json:"content_type"`
	URLs        []EomURLEntry `json:"urls"`
}

// HomeworkEntry structure holds a single assignment instance.
type HomeworkEntry struct {
	ID                         uint64       `json:"id"`
	CreatedAt                  string       `json:"created_at"`
	UpdatedAt                  string       `json:"updated_at"`
	DeletedAt                  string       `json:"deleted_at"`
	HomeworkID                 uint64       `json:"homework_id"`
	Description                string       `json:"description"`
	Duration                   uint32       `json:"duration"`
	NoDuration                 bool         `json:"no_duration"`
	Homework                   HomeworkData `json:"homework"`
	Attachments                []Attachment `json:"attachments"`
	HomeworkEntryStudentAnswer string       `json:"homework_entry_student_answer"`
	ControllableItems          []uint64     `json:"controllable_items"`
	HomeworkEntryComments      []string     `json:"homework_entry_comments"`
	StudentIDs                 []uint64     `json:"student_ids"`
	AttachmentIDs              []uint64     `json:"attachment_ids"`
	ControllableItemIDs        []uint64     `json:"controllable_item_ids"`
	Books                      string       `json:"books"`
	Tests                      string       `json:"tests"`
	Scripts                    string       `json:"scripts"`
	Data                       string       `json:"data"`
	UpdateComment              string       `json:"update_comment"`
	GameApps                   string       `json:"game_apps"`
	AtomicObjects              string       `json:"atomic_objects"`
	RelatedMaterials           string       `json:"related_materials"`
	EomURLs                    []EomURL     `json:"eom_urls"`
	LongTerm                   bool         `json:"long_term"`
	IsDigitalHomework          bool         `json:"is_digital_homework"`
}

// ClientHomework is a student-specific view of one homework entry, as returned by the homework listing endpoint.
type ClientHomework struct {
	ID                uint64             `json:"id"`
	CreatedAt         string             `json:"created_at"`
	UpdatedAt         string             `json:"updated_at"`
	DeletedAt         string             `json:"deleted_at"`
	StudentID         uint64             `json:"student_id"`
	HomeworkEntryID   uint64             `json:"homework_entry_id"`
	StudentName       string             `json:"student_name"`
	Comment           string             `json:"comment"`
	IsReady           bool               `json:"is_ready"`
	Attachments       []Attachment       `json:"attachments"`
	RemoteAttachments []RemoteAttachment `json:"remote_attachments"`
	HomeworkEntry     HomeworkEntry      `json:"homework_entry"`
	AttachmentIDs     []uint64           `json:"attachment_ids"`
}

// Homework is the simplified homework record.
type Homework struct {
	Date        string     // due date, verbatim from the service
	CreatedAt   string     // creation timestamp, verbatim from the service
	SubjectName string
	Task        string
	TestURLs    [][]string // one slice per material, in source order
}
