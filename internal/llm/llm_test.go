package llm

import (
	"context"
	"testing"

	"blogsmith/internal/core"
)

func TestSplitConversationRolesAndOrder(t *testing.T) {
	messages := []core.Message{
		{Role: core.RoleSystem, Content: "You write product articles."},
		{Role: core.RoleUser, Content: "Write about the ArcticShell."},
		{Role: core.RoleAssistant, Content: "{\"title\": \"draft\"}"},
		{Role: core.RoleUser, Content: "Make it shorter."},
	}

	contents, system := splitConversation(messages)

	if system != "You write product articles." {
		t.Errorf("unexpected system instruction: %q", system)
	}
	if len(contents) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(contents))
	}
	wantRoles := []string{"user", "model", "user"}
	wantTexts := []string{"Write about the ArcticShell.", "{\"title\": \"draft\"}", "Make it shorter."}
	for i, content := range contents {
		if content.Role != wantRoles[i] {
			t.Errorf("turn %d: expected role %q, got %q", i, wantRoles[i], content.Role)
		}
		if content.Parts[0].Text != wantTexts[i] {
			t.Errorf("turn %d: expected text %q, got %q", i, wantTexts[i], content.Parts[0].Text)
		}
	}
}

func TestSplitConversationJoinsSystemMessages(t *testing.T) {
	messages := []core.Message{
		{Role: core.RoleSystem, Content: "Rule one."},
		{Role: core.RoleSystem, Content: "Rule two."},
	}
	contents, system := splitConversation(messages)
	if len(contents) != 0 {
		t.Errorf("system messages must not appear as turns, got %d", len(contents))
	}
	if system != "Rule one.\nRule two." {
		t.Errorf("unexpected joined system instruction: %q", system)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(context.Background(), "", "", nil); err == nil {
		t.Fatal("expected an error without an API key")
	}
}
