package conversation_test

import (
	"errors"
	"testing"

	"convolens/internal/conversation"
	"convolens/internal/services"
)

func TestParseJSONArray(t *testing.T) {
	data := []byte(`[
		{"speaker": "Alice", "message": "Studies show this works."},
		{"speaker": "Bob", "text": "Everyone knows that's wrong."}
	]`)
	conv, err := conversation.Parse(data, conversation.FormatJSON, "en")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(conv.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(conv.Messages))
	}
	if conv.Messages[0].Speaker != "Alice" {
		t.Fatalf("unexpected speaker: %s", conv.Messages[0].Speaker)
	}
	if conv.Messages[1].Text != "Everyone knows that's wrong." {
		t.Fatalf("unexpected text: %s", conv.Messages[1].Text)
	}
}

func TestParseJSONTranscriptWrapper(t *testing.T) {
	data := []byte(`{"transcript": [{"user": "carol", "content": "Because of the evidence."}]}`)
	conv, err := conversation.Parse(data, conversation.FormatJSON, "en")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(conv.Messages) != 1 || conv.Messages[0].Speaker != "carol" {
		t.Fatalf("unexpected messages: %+v", conv.Messages)
	}
}

func TestParseJSONLogWrapper(t *testing.T) {
	data := []byte(`{"log": {"messages": [{"author": "dave", "utterance": "Or else."}]}}`)
	conv, err := conversation.Parse(data, conversation.FormatJSON, "en")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(conv.Messages) != 1 || conv.Messages[0].Speaker != "dave" {
		t.Fatalf("unexpected messages: %+v", conv.Messages)
	}
}

func TestParseJSONMissingSpeakerFallsBack(t *testing.T) {
	data := []byte(`[{"text": "no attribution here"}]`)
	conv, err := conversation.Parse(data, conversation.FormatJSON, "en")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if conv.Messages[0].Speaker != conversation.UnknownSpeaker {
		t.Fatalf("expected unknown speaker, got %s", conv.Messages[0].Speaker)
	}
}

func TestParseJSONNotAList(t *testing.T) {
	_, err := conversation.Parse([]byte(`{"status": "ok"}`), conversation.FormatJSON, "en")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseTextSpeakerTags(t *testing.T) {
	data := []byte("Alice: I thought you cared about this.\nBob: You're overreacting.\nand it shows.\n")
	conv, err := conversation.Parse(data, conversation.FormatText, "en")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(conv.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(conv.Messages))
	}
	// Untagged line continues the previous speaker's turn.
	if conv.Messages[2].Speaker != "Bob" {
		t.Fatalf("expected continuation to keep Bob, got %s", conv.Messages[2].Speaker)
	}
}

func TestParseTextUntaggedLead(t *testing.T) {
	data := []byte("a line with no speaker tag\nAlice: hello\n")
	conv, err := conversation.Parse(data, conversation.FormatText, "en")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if conv.Messages[0].Speaker != conversation.UnknownSpeaker {
		t.Fatalf("expected unknown speaker for lead line, got %s", conv.Messages[0].Speaker)
	}
}

func TestParseCSVWithHeader(t *testing.T) {
	data := []byte("speaker,message\nAlice,according to the research\nBob,that never happened\n")
	conv, err := conversation.Parse(data, conversation.FormatCSV, "en")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(conv.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(conv.Messages))
	}
	if conv.Messages[1].Speaker != "Bob" || conv.Messages[1].Text != "that never happened" {
		t.Fatalf("unexpected message: %+v", conv.Messages[1])
	}
}

func TestParseCSVWithoutHeader(t *testing.T) {
	data := []byte("Alice,you'll regret this\nBob,think of the children\n")
	conv, err := conversation.Parse(data, conversation.FormatCSV, "en")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(conv.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(conv.Messages))
	}
	if conv.Messages[0].Speaker != "Alice" {
		t.Fatalf("unexpected speaker: %s", conv.Messages[0].Speaker)
	}
}

func TestParseEmptyTranscript(t *testing.T) {
	_, err := conversation.Parse([]byte("[]"), conversation.FormatJSON, "en")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty transcript, got %v", err)
	}
}

func TestParseUnsupportedFormat(t *testing.T) {
	_, err := conversation.Parse([]byte("x"), "pdf", "en")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		file string
		want string
		ok   bool
	}{
		{file: "call.json", want: "json", ok: true},
		{file: "CALL.TXT", want: "txt", ok: true},
		{file: "export.csv", want: "csv", ok: true},
		{file: "report.pdf", want: "pdf", ok: false},
		{file: "noext", want: "", ok: false},
	}
	for _, tc := range cases {
		format, ok := conversation.DetectFormat(tc.file)
		if format != tc.want || ok != tc.ok {
			t.Fatalf("DetectFormat(%q) = %q %v, want %q %v", tc.file, format, ok, tc.want, tc.ok)
		}
	}
}

func TestSpeakers(t *testing.T) {
	conv := &conversation.Conversation{Messages: []conversation.Message{
		{Speaker: "Alice", Text: "a"},
		{Speaker: "Bob", Text: "b"},
		{Speaker: "Alice", Text: "c"},
	}}
	speakers := conv.Speakers()
	if len(speakers) != 2 || speakers[0] != "Alice" || speakers[1] != "Bob" {
		t.Fatalf("unexpected speakers: %v", speakers)
	}
}
