package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strconv"

	"missedcall/internal/intake"
)

// TwiML is a minimal Twilio Markup Language response builder.
// Only the verbs the intake flow needs are modelled.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlGather struct {
	XMLName   xml.Name `xml:"Gather"`
	NumDigits int      `xml:"numDigits,attr"`
	Timeout   int      `xml:"timeout,attr"`
	Action    string   `xml:"action,attr"`
	Method    string   `xml:"method,attr"`
	Verbs     []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Text    string   `xml:",chardata"`
}

type twimlPlay struct {
	XMLName xml.Name `xml:"Play"`
	URL     string   `xml:",chardata"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// RenderTwiML maps an intake response to TwiML. gatherAction is the URL the
// gateway posts the collected digit to; it is only used for menus.
func RenderTwiML(res intake.Response, gatherAction string) (string, error) {
	var r twimlResponse

	switch res.Action {
	case intake.ActionMenu:
		if gatherAction == "" {
			return "", errors.New("telephony: gather action required for menu")
		}
		g := twimlGather{
			NumDigits: 1,
			Timeout:   int(res.GatherTimeout.Seconds()),
			Action:    gatherAction,
			Method:    "POST",
		}
		if g.Timeout <= 0 {
			g.Timeout = int(intake.DefaultGatherTimeout.Seconds())
		}
		switch {
		case res.GreetingAudioURL != "":
			g.Verbs = append(g.Verbs, twimlPlay{URL: res.GreetingAudioURL})
		case res.GreetingText != "":
			g.Verbs = append(g.Verbs, twimlSay{Text: res.GreetingText})
		default:
			return "", errors.New("telephony: menu without greeting")
		}
		r.Verbs = append(r.Verbs, g)
		// reached only when the gather times out with no digit
		if res.NoInputMessage != "" {
			r.Verbs = append(r.Verbs, twimlSay{Text: res.NoInputMessage})
		}
		r.Verbs = append(r.Verbs, twimlHangup{})
	case intake.ActionHangup:
		if res.Message != "" {
			r.Verbs = append(r.Verbs, twimlSay{Text: res.Message})
		}
		r.Verbs = append(r.Verbs, twimlHangup{})
	default:
		return "", errors.New("telephony: unknown intake action " + strconv.Quote(string(res.Action)))
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

// apologyTwiML is the fallback when rendering itself fails.
const apologyTwiML = xml.Header + `<Response>
  <Say>We&#39;re sorry, we can&#39;t take your call right now. Please try again later. Goodbye.</Say>
  <Hangup></Hangup>
</Response>`
