package voice

import (
	"bytes"
	"encoding/xml"
	"errors"
)

// Markup describes the next call-control instruction returned to the
// telephony provider. The vocabulary is deliberately small: speak a prompt,
// then either record the caller's reply or hang up.
//
// Speak text is caller-influenced (AI replies quote transcripts), so rendering
// goes through encoding/xml: reserved characters must never break the control
// structure.
type Markup struct {
	Speak string

	// RecordAction is the URL the provider posts the recording to. Setting it
	// emits a record instruction; the URL must embed the webhook api_key so
	// the loop self-sustains without provider reconfiguration.
	RecordAction  string
	RecordSeconds int

	Hangup bool
}

type markupResponse struct {
	XMLName  xml.Name       `xml:"response"`
	Playtext *markupPlay    `xml:"playtext,omitempty"`
	Record   *markupRecord  `xml:"record,omitempty"`
	Hangup   *markupHangup  `xml:"hangup,omitempty"`
}

type markupPlay struct {
	Data string `xml:"data,attr"`
}

type markupRecord struct {
	Action     string `xml:"action,attr"`
	MaxLength  int    `xml:"maxlength,attr"`
	Terminator string `xml:"terminator,attr"`
	PlayBeep   bool   `xml:"playbeep,attr"`
}

type markupHangup struct{}

// RenderMarkup serializes a Markup to the provider XML dialect.
func RenderMarkup(m Markup) (string, error) {
	if m.RecordAction != "" && m.Hangup {
		return "", errors.New("voice: record and hangup are mutually exclusive")
	}
	if m.RecordAction == "" && !m.Hangup {
		return "", errors.New("voice: markup needs a record action or a hangup")
	}

	var r markupResponse
	if m.Speak != "" {
		r.Playtext = &markupPlay{Data: m.Speak}
	}
	if m.RecordAction != "" {
		sec := m.RecordSeconds
		if sec <= 0 {
			sec = 30
		}
		r.Record = &markupRecord{
			Action:     m.RecordAction,
			MaxLength:  sec,
			Terminator: "#",
			PlayBeep:   true,
		}
	}
	if m.Hangup {
		r.Hangup = &markupHangup{}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
