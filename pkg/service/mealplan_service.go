// Meal plan extraction and export
package service

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/matprat/matprat/pkg/db"
	"github.com/matprat/matprat/pkg/utils"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ErrNoMealPlan is returned when a conversation holds no complete meal plan.
var ErrNoMealPlan = errors.New("ingen måltidsplan funnet i samtalehistorikken")

// Section labels the model is instructed to emit. A message counts as a
// meal plan only when it contains the primary marker plus at least one
// other section; a lone mention of "Måltidsplan" is just conversation.
const primaryMarker = "Måltidsplan"

var secondaryMarkers = []string{"Handleliste", "Oppskrifter", "Tips og Triks"}

// MealPlanService isolates the most recent complete meal plan from a
// session's history and renders it for export.
type MealPlanService struct {
	md     goldmark.Markdown
	logger *slog.Logger
}

// NewMealPlanService creates a meal plan service
func NewMealPlanService() *MealPlanService {
	return &MealPlanService{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger: utils.GetLogger(),
	}
}

// ExtractLatestMealPlan returns the markdown of the most recent complete
// meal plan in the history, or "" when none exists. "" is a valid outcome,
// not an error.
func (s *MealPlanService) ExtractLatestMealPlan(messages []db.Message) string {
	anchor := findAnchor(messages)
	if anchor < 0 {
		return ""
	}
	parts := collectFromAnchor(messages, anchor)
	return strings.Join(parts, "\n\n")
}

// findAnchor scans backward for the most recent model message containing
// the primary marker and at least two of the four section markers in total.
func findAnchor(messages []db.Message) int {
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Role != db.RoleModel {
			continue
		}
		if !containsFold(msg.Content, primaryMarker) {
			continue
		}
		count := 1
		for _, marker := range secondaryMarkers {
			if containsFold(msg.Content, marker) {
				count++
			}
		}
		if count >= 2 {
			return i
		}
	}
	return -1
}

// collectFromAnchor gathers model message contents from the anchor forward,
// stopping at the first user message. Model messages past that point belong
// to a later exchange and are ignored.
func collectFromAnchor(messages []db.Message, anchor int) []string {
	var parts []string
	for i := anchor; i < len(messages); i++ {
		if messages[i].Role == db.RoleUser {
			break
		}
		if messages[i].Role == db.RoleModel {
			parts = append(parts, messages[i].Content)
		}
	}
	return parts
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// ExportHTML extracts the latest meal plan and renders it as a standalone
// HTML document ready for printing or PDF conversion. Returns ErrNoMealPlan
// when the history holds no complete plan.
func (s *MealPlanService) ExportHTML(messages []db.Message) ([]byte, error) {
	markdown := s.ExtractLatestMealPlan(messages)
	if markdown == "" {
		return nil, ErrNoMealPlan
	}

	var body bytes.Buffer
	if err := s.md.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("failed to render meal plan markdown: %w", err)
	}

	var doc bytes.Buffer
	doc.WriteString(htmlHeader)
	doc.Write(body.Bytes())
	doc.WriteString(htmlFooter)
	return doc.Bytes(), nil
}

// Print stylesheet for the exported document, A4 with the app's palette.
const htmlHeader = `<!DOCTYPE html>
<html lang="no">
<head>
<meta charset="UTF-8">
<title>Måltidsplan</title>
<style>
@page { margin: 20mm; }
body { font-family: Arial, sans-serif; font-size: 11pt; line-height: 1.6; color: #333; }
h1 { color: #0078d4; font-size: 18pt; margin-top: 20pt; margin-bottom: 10pt; border-bottom: 2px solid #0078d4; padding-bottom: 5pt; }
h2 { color: #0078d4; font-size: 14pt; margin-top: 15pt; margin-bottom: 8pt; }
h3 { font-size: 12pt; margin-top: 12pt; margin-bottom: 6pt; }
table { width: 100%; border-collapse: collapse; margin: 10pt 0; }
th, td { border: 1px solid #ddd; padding: 8pt; text-align: left; }
th { background-color: #f0f0f0; font-weight: bold; }
code { background-color: #f5f5f5; padding: 2pt 4pt; border-radius: 3pt; }
pre { background-color: #f5f5f5; padding: 10pt; border-radius: 5pt; overflow-x: auto; }
ul, ol { margin: 8pt 0; padding-left: 20pt; }
li { margin: 4pt 0; }
p { margin: 8pt 0; }
</style>
</head>
<body>
`

const htmlFooter = `
</body>
</html>
`
