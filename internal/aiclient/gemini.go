package aiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const unknownSentinel = "UNKNOWN"

// Gemini implements Identifier, Composer and Analyst against the Google
// generative AI API. With Skip set the external call is bypassed and
// canned responses come back, for development without an API key.
type Gemini struct {
	client *genai.Client
	model  string
	Skip   bool
}

// NewGemini creates the client. When skip is true apiKey may be empty.
func NewGemini(ctx context.Context, apiKey, model string, skip bool) (*Gemini, error) {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	g := &Gemini{model: model, Skip: skip}
	if skip {
		return g, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	g.client = client
	return g, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Identify sends the frame plus a light roster description and expects back
// a bare member id or the UNKNOWN sentinel.
func (g *Gemini) Identify(ctx context.Context, imageJPEG []byte, candidates []Candidate) (string, error) {
	if g.Skip {
		return "", ErrUnknown
	}
	if len(imageJPEG) == 0 || len(candidates) == 0 {
		return "", ErrUnknown
	}

	roster, err := json.Marshal(candidates)
	if err != nil {
		return "", fmt.Errorf("marshal roster: %w", err)
	}

	prompt := fmt.Sprintf(`Analiza la imagen de este socio e identifícalo comparándolo con la base de datos de miembros proporcionada.

Base de datos de miembros (ID y Nombre):
%s

Instrucciones:
1. Si encuentras una coincidencia clara basándote en rasgos faciales, devuelve únicamente el ID del miembro.
2. Si no estás seguro o no hay coincidencia, devuelve "UNKNOWN".
3. No añadas explicaciones, solo el ID o "UNKNOWN".`, roster)

	m := g.client.GenerativeModel(g.model)
	m.SetTemperature(0.1)

	resp, err := m.GenerateContent(ctx, genai.ImageData("jpeg", imageJPEG), genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	out := firstText(resp)
	if out == "" || out == unknownSentinel {
		return "", ErrUnknown
	}
	// The model must answer with an id from the roster; anything else is
	// treated as no match.
	for _, c := range candidates {
		if c.ID == out {
			return out, nil
		}
	}
	return "", ErrUnknown
}

// ComposeTemplate writes a short Spanish WhatsApp message for a member.
// On any failure a static fallback is returned instead of an error, so
// sending never blocks on the AI being up.
func (g *Gemini) ComposeTemplate(ctx context.Context, kind, memberName, tone string) (string, error) {
	fallback := fmt.Sprintf("Hola %s, te recordamos que tu membresía por %s está pendiente. ¡Te esperamos en el gym! 🏋️", memberName, kind)
	if g.Skip {
		return fallback, nil
	}
	if tone == "" {
		tone = "amigable"
	}

	prompt := fmt.Sprintf(`Escribe un mensaje de WhatsApp corto y profesional en español para un miembro de gimnasio llamado %s.
Motivo: %s.
Tono deseado: %s.
Instrucciones: Usa emojis, incluye un llamado a la acción claro y no excedas los 60 palabras. Evita sonar como spam.`, memberName, kind, tone)

	m := g.client.GenerativeModel(g.model)
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return fallback, nil
	}
	if out := firstText(resp); out != "" {
		return out, nil
	}
	return fallback, nil
}

// AnalyticsSummary produces the executive summary shown on the dashboard.
func (g *Gemini) AnalyticsSummary(ctx context.Context, statsJSON string) (string, error) {
	if g.Skip {
		return "Análisis no disponible en modo desarrollo.", nil
	}

	prompt := fmt.Sprintf(`Actúa como un experto consultor de negocios para gimnasios.
Analiza los siguientes datos de miembros y proporciona un resumen ejecutivo en español de máximo 150 palabras.
Incluye recomendaciones para retención de miembros.
Datos: %s`, statsJSON)

	m := g.client.GenerativeModel(g.model)
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	out := firstText(resp)
	if out == "" {
		return "", fmt.Errorf("no content generated")
	}
	return out, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]))
}
