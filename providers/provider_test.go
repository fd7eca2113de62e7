package providers

import (
	"encoding/json"
	"testing"
)

func TestMessage_UnmarshalPlainString(t *testing.T) {
	var m Message
	if err := json.Unmarshal([]byte(`{"role":"user","content":"hello"}`), &m); err != nil {
		t.Fatal(err)
	}
	if m.Role != RoleUser || m.Content != "hello" {
		t.Errorf("got %+v", m)
	}
	if m.ContentParts != nil {
		t.Error("ContentParts should be nil for string content")
	}
}

func TestMessage_UnmarshalContentParts(t *testing.T) {
	raw := `{"role":"user","content":[{"type":"text","text":"what is "},{"type":"text","text":"this?"},{"type":"image_url","image_url":{"url":"data:image/png;base64,AA"}}]}`
	var m Message
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatal(err)
	}
	if len(m.ContentParts) != 3 {
		t.Fatalf("parts = %d, want 3", len(m.ContentParts))
	}
	// Text parts collapse into Content for text-only adapters.
	if m.Content != "what is this?" {
		t.Errorf("Content = %q", m.Content)
	}
}

func TestMessage_MarshalRoundTrip(t *testing.T) {
	m := Message{Role: RoleAssistant, Content: "fine"}
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	var back Message
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back.Role != m.Role || back.Content != m.Content {
		t.Errorf("round trip changed message: %+v", back)
	}
}

func TestFlattenText_CopiesWithoutParts(t *testing.T) {
	in := []Message{{
		Role:         RoleUser,
		Content:      "txt",
		ContentParts: []ContentPart{{Type: ContentTypeText, Text: "txt"}},
	}}
	out := FlattenText(in)
	if out[0].ContentParts != nil {
		t.Error("flattened copy still has content parts")
	}
	out[0].Content = "changed"
	if in[0].Content != "txt" {
		t.Error("FlattenText aliases the input")
	}
}

func TestRequest_LastUserContent(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"empty", Request{}, ""},
		{"last is user", Request{Messages: []Message{{Role: RoleUser, Content: "q"}}}, "q"},
		{"last is assistant", Request{Messages: []Message{
			{Role: RoleUser, Content: "q"},
			{Role: RoleAssistant, Content: "a"},
		}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.LastUserContent(); got != tt.want {
				t.Errorf("LastUserContent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHTTPReason(t *testing.T) {
	if got := HTTPReason(503); got != "http_503" {
		t.Errorf("HTTPReason(503) = %q", got)
	}
}

func TestErrorString(t *testing.T) {
	e := StatusError("groq", 429, "rate limited")
	if got := e.Error(); got != "groq: rate limited (http_429)" {
		t.Errorf("Error() = %q", got)
	}
}

func TestReasonOf_NonAdapterError(t *testing.T) {
	if got := ReasonOf(json.Unmarshal([]byte("{"), &struct{}{})); got != "unknown" {
		t.Errorf("ReasonOf = %q, want unknown", got)
	}
}
