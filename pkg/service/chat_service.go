// Conversation turns against the configured chat model
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/matprat/matprat/pkg/db"
	"github.com/matprat/matprat/pkg/models"
	"github.com/matprat/matprat/pkg/utils"
)

// ErrEmptyMessage rejects a turn with no user content.
var ErrEmptyMessage = errors.New("message is required")

// maxContextFoodsPerCategory caps how many foods each category contributes
// to the prompt context. The full dataset is several thousand records.
const maxContextFoodsPerCategory = 8

// systemInstructions is the meal-planner persona. The model is told to
// structure every generated plan with the section headings the extractor
// looks for.
const systemInstructions = `Du er en vennlig norsk måltidsplanlegger. Du hjelper brukeren med å lage
ukentlige måltidsplaner tilpasset kosthold, allergier, budsjett og utstyr.

Når du genererer en komplett måltidsplan, strukturer svaret i markdown med
disse overskriftene, i denne rekkefølgen:

## Måltidsplan
## Handleliste
## Oppskrifter
## Tips og Triks

Bruk norske råvarenavn og oppgi priser i norske kroner. Hold deg innenfor
brukerens budsjett og ta hensyn til alle allergier.`

// ChatService runs one conversation turn: prompt assembly, one model call,
// then the append of the completed turn.
type ChatService struct {
	sessions  *SessionService
	nutrition *NutritionService
	chatModel einoModel.BaseChatModel
	logger    *slog.Logger
}

// NewChatService creates a chat service. chatModel may be nil when no
// provider credentials are configured; sessions and exports still work,
// only new turns fail.
func NewChatService(sessions *SessionService, nutrition *NutritionService, chatModel einoModel.BaseChatModel) *ChatService {
	return &ChatService{
		sessions:  sessions,
		nutrition: nutrition,
		chatModel: chatModel,
		logger:    utils.GetLogger(),
	}
}

// SendMessage runs one turn in the given session (the current session when
// id is empty, created on demand). The turn is only appended after the
// model call succeeds, so a failed call leaves the session untouched.
func (s *ChatService) SendMessage(ctx context.Context, sessionID, userMessage string) (*models.TurnResponse, error) {
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return nil, ErrEmptyMessage
	}
	if s.chatModel == nil {
		return nil, errors.New("no chat model configured")
	}

	var session *db.ChatSession
	var err error
	if sessionID == "" {
		session, err = s.sessions.CurrentSession()
	} else {
		session, err = s.sessions.LoadSession(sessionID)
	}
	if err != nil {
		return nil, err
	}

	history := s.buildPrompt(session.Messages, userMessage)
	reply, err := s.chatModel.Generate(ctx, history)
	if err != nil {
		return nil, fmt.Errorf("failed to generate model reply: %w", err)
	}

	updated, err := s.sessions.AppendTurn(session.ID, userMessage, reply.Content)
	if err != nil {
		return nil, err
	}

	n := len(updated.Messages)
	return &models.TurnResponse{
		SessionID:    updated.ID,
		UserMessage:  updated.Messages[n-2],
		ModelMessage: updated.Messages[n-1],
	}, nil
}

// SendPreferences turns the structured preferences form into the opening
// user message of the current session and runs a normal turn on it.
func (s *ChatService) SendPreferences(ctx context.Context, prefs *models.MealPreferences) (*models.TurnResponse, error) {
	return s.SendMessage(ctx, "", BuildPreferencesMessage(prefs))
}

// buildPrompt assembles the system instruction (with nutrition context when
// available), the session history and the new user message.
func (s *ChatService) buildPrompt(messages db.MessageList, userMessage string) []*schema.Message {
	system := systemInstructions
	if ctx := s.nutritionContext(); ctx != "" {
		system += "\n\n" + ctx
	}

	prompt := make([]*schema.Message, 0, len(messages)+2)
	prompt = append(prompt, &schema.Message{Role: schema.System, Content: system})
	for _, msg := range messages {
		role := schema.User
		if msg.Role == db.RoleModel {
			role = schema.Assistant
		}
		prompt = append(prompt, &schema.Message{Role: role, Content: msg.Content})
	}
	prompt = append(prompt, &schema.Message{Role: schema.User, Content: userMessage})
	return prompt
}

// nutritionContext renders a compact categorized food list for the system
// prompt. When the reference data is unavailable the context is simply
// omitted; a turn never fails because of it.
func (s *ChatService) nutritionContext() string {
	if s.nutrition == nil {
		return ""
	}
	foods := s.nutrition.FoodsByCalorieRange(0, 1000)
	if len(foods) == 0 {
		return ""
	}
	categories := s.nutrition.CategorizeFoods(foods)

	var b strings.Builder
	b.WriteString("Utvalg fra Matvaretabellen (per 100 g):\n")
	for _, category := range categories {
		b.WriteString("\n")
		b.WriteString(category.Label)
		b.WriteString(":\n")
		for i, food := range category.Foods {
			if i >= maxContextFoodsPerCategory {
				break
			}
			fmt.Fprintf(&b, "- %s: %.0f kcal, %.1f g protein, %.1f g fett, %.1f g karbohydrater\n",
				food.Name, food.Nutrition.Calories, food.Nutrition.Protein,
				food.Nutrition.Fat, food.Nutrition.Carbs)
		}
	}
	return b.String()
}

// BuildPreferencesMessage renders the preferences form as the Norwegian
// opening message the model is prompted with.
func BuildPreferencesMessage(prefs *models.MealPreferences) string {
	var b strings.Builder
	b.WriteString("Jeg ønsker en ukentlig måltidsplan med disse preferansene:\n")

	writeLine := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			value = "Ikke spesifisert"
		}
		fmt.Fprintf(&b, "- %s: %s\n", label, value)
	}

	writeLine("Kosthold", prefs.DietType)
	writeLine("Allergier", strings.Join(prefs.Allergies, ", "))
	writeLine("Mat jeg liker", prefs.Likes)
	writeLine("Mat jeg ikke liker", prefs.Dislikes)
	fmt.Fprintf(&b, "- Ukentlig budsjett: %d kr\n", prefs.Budget)
	writeLine("Kjøkkenutstyr", prefs.Equipment)
	if prefs.CookTime > 0 {
		fmt.Fprintf(&b, "- Tid til matlaging per dag: %d minutter\n", prefs.CookTime)
	}
	if prefs.MealsPerDay > 0 {
		fmt.Fprintf(&b, "- Antall måltider per dag: %d\n", prefs.MealsPerDay)
	}
	if prefs.Portions > 0 {
		fmt.Fprintf(&b, "- Antall porsjoner: %d\n", prefs.Portions)
	}
	return b.String()
}
