package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/matprat/matprat/pkg/models"
)

// fakeChatModel records prompts and returns a canned reply.
type fakeChatModel struct {
	reply   string
	err     error
	prompts [][]*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einoModel.Option) (*schema.Message, error) {
	f.prompts = append(f.prompts, input)
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.reply}, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func newTestChatService(fake *fakeChatModel) (*ChatService, *SessionService) {
	sessions := newTestSessionService()
	// nutrition nil: context enrichment is optional and omitted here.
	return NewChatService(sessions, nil, fake), sessions
}

func TestSendMessage_AppendsTurn(t *testing.T) {
	fake := &fakeChatModel{reply: "Her er planen"}
	chat, sessions := newTestChatService(fake)

	resp, err := chat.SendMessage(context.Background(), "", "Lag en plan")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if resp.UserMessage.Content != "Lag en plan" || resp.UserMessage.Role != models.RoleUser {
		t.Fatalf("UserMessage = %+v", resp.UserMessage)
	}
	if resp.ModelMessage.Content != "Her er planen" || resp.ModelMessage.Role != models.RoleModel {
		t.Fatalf("ModelMessage = %+v", resp.ModelMessage)
	}

	session, err := sessions.LoadSession(resp.SessionID)
	if err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if len(session.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(session.Messages))
	}
}

func TestSendMessage_EmptyMessage(t *testing.T) {
	chat, _ := newTestChatService(&fakeChatModel{reply: "x"})

	if _, err := chat.SendMessage(context.Background(), "", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("SendMessage() error = %v, want ErrEmptyMessage", err)
	}
}

func TestSendMessage_UnknownSession(t *testing.T) {
	chat, _ := newTestChatService(&fakeChatModel{reply: "x"})

	if _, err := chat.SendMessage(context.Background(), "no-such-id", "hei"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("SendMessage() error = %v, want ErrSessionNotFound", err)
	}
}

func TestSendMessage_ModelFailureLeavesSessionUntouched(t *testing.T) {
	fake := &fakeChatModel{err: errors.New("upstream down")}
	chat, sessions := newTestChatService(fake)

	session, _ := sessions.CreateSession()
	if _, err := chat.SendMessage(context.Background(), session.ID, "hei"); err == nil {
		t.Fatalf("SendMessage() error = nil, want model failure")
	}

	loaded, _ := sessions.LoadSession(session.ID)
	if len(loaded.Messages) != 0 {
		t.Fatalf("len(Messages) = %d after failed turn, want 0", len(loaded.Messages))
	}
}

func TestSendMessage_PromptShape(t *testing.T) {
	fake := &fakeChatModel{reply: "svar"}
	chat, sessions := newTestChatService(fake)

	session, _ := sessions.CreateSession()
	sessions.AppendTurn(session.ID, "første", "svar én")

	if _, err := chat.SendMessage(context.Background(), session.ID, "andre"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if len(fake.prompts) != 1 {
		t.Fatalf("model called %d times, want 1", len(fake.prompts))
	}
	prompt := fake.prompts[0]
	// system + two history messages + new user message
	if len(prompt) != 4 {
		t.Fatalf("len(prompt) = %d, want 4", len(prompt))
	}
	if prompt[0].Role != schema.System || !strings.Contains(prompt[0].Content, "Måltidsplan") {
		t.Fatalf("prompt[0] = %+v, want system instructions", prompt[0])
	}
	if prompt[1].Role != schema.User || prompt[2].Role != schema.Assistant {
		t.Fatalf("history roles = %v, %v", prompt[1].Role, prompt[2].Role)
	}
	if prompt[3].Role != schema.User || prompt[3].Content != "andre" {
		t.Fatalf("prompt[3] = %+v, want the new user message", prompt[3])
	}
}

func TestSendPreferences_BuildsOpeningMessage(t *testing.T) {
	fake := &fakeChatModel{reply: "planen kommer"}
	chat, sessions := newTestChatService(fake)

	prefs := &models.MealPreferences{
		DietType:    "vegetarisk",
		Allergies:   []string{"nøtter", "egg"},
		Budget:      400,
		MealsPerDay: 3,
	}
	resp, err := chat.SendPreferences(context.Background(), prefs)
	if err != nil {
		t.Fatalf("SendPreferences() error = %v", err)
	}

	msg := resp.UserMessage.Content
	for _, want := range []string{"vegetarisk", "nøtter, egg", "400 kr", "3"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("opening message %q missing %q", msg, want)
		}
	}

	// The preferences message becomes the session title (truncated).
	session, _ := sessions.LoadSession(resp.SessionID)
	if session.Title == "" || session.Title == "New Chat" {
		t.Fatalf("Title = %q, want derived from preferences message", session.Title)
	}
}

func TestBuildPreferencesMessage_UnspecifiedFields(t *testing.T) {
	msg := BuildPreferencesMessage(&models.MealPreferences{Budget: 300})
	if !strings.Contains(msg, "Ikke spesifisert") {
		t.Fatalf("message %q should mark unspecified fields", msg)
	}
	if strings.Contains(msg, "matlaging per dag") {
		t.Fatalf("message %q should omit zero-valued optional fields", msg)
	}
}
