package notify

import (
	"bytes"
	"mime"
	"mime/quotedprintable"
	"strings"
	"time"
)

type Message struct {
	From    string
	To      string
	Subject string
	Body    string
	Date    time.Time
}

// Bytes renders the message as a plain-text RFC 5322 mail.
func (m Message) Bytes() []byte {
	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}
	var body bytes.Buffer
	qp := quotedprintable.NewWriter(&body)
	_, _ = qp.Write([]byte(m.Body))
	_ = qp.Close()

	var b bytes.Buffer
	b.WriteString("To: " + oneLine(m.To) + "\r\n")
	b.WriteString("From: " + oneLine(m.From) + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("UTF-8", oneLine(m.Subject)) + "\r\n")
	b.WriteString("Date: " + date.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
	b.WriteString("\r\n")
	b.Write(body.Bytes())
	return b.Bytes()
}

// oneLine keeps header values from injecting extra headers.
func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(strings.TrimSpace(s))
}

func extractEmail(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "<"); i >= 0 {
		if j := strings.Index(s, ">"); j > i {
			return strings.TrimSpace(s[i+1 : j])
		}
	}
	return s
}
