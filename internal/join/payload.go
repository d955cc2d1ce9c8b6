package join

import (
	"encoding/json"
	"net/url"
	"strings"

	"rollcall/internal/errs"
)

// JoinPath is the deep-link path students land on after scanning.
const JoinPath = "/attendance/join"

// Payload identifies one check-in attempt. Both wire forms carry exactly
// these two fields.
type Payload struct {
	Token     string `json:"token"`
	LectureID string `json:"lectureId"`
}

// Link renders the deep-link URL form: <origin>/attendance/join?lec=<id>&j=<token>.
// Parameter order is part of the wire format.
func (p Payload) Link(origin string) string {
	return strings.TrimRight(origin, "/") + JoinPath +
		"?lec=" + url.QueryEscape(p.LectureID) + "&j=" + url.QueryEscape(p.Token)
}

// JSON renders the generic-scanner form: {"token":"<token>","lectureId":"<lectureId>"}.
func (p Payload) JSON() string {
	b, _ := json.Marshal(p)
	return string(b)
}

// ParsePayload accepts either wire form of a scanned payload: the deep-link
// URL or the JSON object. Anything else is a ValidationError.
func ParsePayload(raw string) (Payload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Payload{}, errs.NewValidationError("empty join payload")
	}

	if strings.HasPrefix(raw, "{") {
		var p Payload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return Payload{}, errs.NewValidationError("malformed join payload")
		}
		return p.validate()
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Payload{}, errs.NewValidationError("malformed join link")
	}
	q := u.Query()
	p := Payload{Token: q.Get("j"), LectureID: q.Get("lec")}
	return p.validate()
}

func (p Payload) validate() (Payload, error) {
	if p.LectureID == "" {
		return Payload{}, errs.NewValidationError("join payload missing lecture id")
	}
	if p.Token == "" {
		return Payload{}, errs.NewValidationError("join payload missing token")
	}
	return p, nil
}
