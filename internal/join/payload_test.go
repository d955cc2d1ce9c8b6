package join

import (
	"testing"

	"rollcall/internal/errs"
)

func TestPayloadWireForms(t *testing.T) {
	p := Payload{Token: "tok-abc", LectureID: "lec-7"}

	link := p.Link("https://campus.example")
	wantLink := "https://campus.example/attendance/join?lec=lec-7&j=tok-abc"
	if link != wantLink {
		t.Errorf("Link() = %q, want %q", link, wantLink)
	}

	js := p.JSON()
	wantJSON := `{"token":"tok-abc","lectureId":"lec-7"}`
	if js != wantJSON {
		t.Errorf("JSON() = %q, want %q", js, wantJSON)
	}

	// Both produced forms must round-trip through the consumer.
	for _, raw := range []string{link, js} {
		got, err := ParsePayload(raw)
		if err != nil {
			t.Fatalf("ParsePayload(%q) error = %v", raw, err)
		}
		if got != p {
			t.Errorf("ParsePayload(%q) = %+v, want %+v", raw, got, p)
		}
	}
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Payload
		wantErr bool
	}{
		{
			name: "deep link",
			raw:  "https://campus.example/attendance/join?lec=lec-1&j=tok-1",
			want: Payload{Token: "tok-1", LectureID: "lec-1"},
		},
		{
			name: "relative link",
			raw:  "/attendance/join?lec=lec-1&j=tok-1",
			want: Payload{Token: "tok-1", LectureID: "lec-1"},
		},
		{
			name: "json form",
			raw:  `{"token":"tok-1","lectureId":"lec-1"}`,
			want: Payload{Token: "tok-1", LectureID: "lec-1"},
		},
		{
			name: "json with surrounding whitespace",
			raw:  "  {\"token\":\"tok-1\",\"lectureId\":\"lec-1\"}\n",
			want: Payload{Token: "tok-1", LectureID: "lec-1"},
		},
		{name: "empty", raw: "", wantErr: true},
		{name: "broken json", raw: `{"token":`, wantErr: true},
		{name: "link missing token", raw: "/attendance/join?lec=lec-1", wantErr: true},
		{name: "link missing lecture", raw: "/attendance/join?j=tok-1", wantErr: true},
		{name: "json missing lecture", raw: `{"token":"tok-1"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePayload(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePayload(%q) expected error, got %+v", tt.raw, got)
				}
				if !errs.IsValidation(err) {
					t.Errorf("ParsePayload(%q) error = %v, want ValidationError", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePayload(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParsePayload(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}
