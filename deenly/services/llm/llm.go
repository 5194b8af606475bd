// Package llm answers chat questions through an OpenAI-compatible or an
// Ollama chat endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"deenly/deenly/config"
	"deenly/deenly/services/chat"
	"deenly/deenly/telemetry"
	"deenly/deenly/utils/logging"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const Temperature = 0.7

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
}

// Client runs one non-streaming chat completion.
type Client interface {
	Run(ctx context.Context, req ChatRequest) (string, error)
}

// Responder implements chat.Responder on top of a Client.
type Responder struct {
	client Client
	model  string
}

func NewResponder(client Client, model string) *Responder {
	return &Responder{client: client, model: model}
}

// NewFromConfig picks the backend named by cfg.LLMBackend.
func NewFromConfig(cfg *config.Config) (*Responder, error) {
	switch cfg.LLMBackend {
	case "ollama":
		return NewResponder(NewOllamaClient(cfg.LLMBaseURL), cfg.LLMModel), nil
	case "openai", "groq":
		return NewResponder(NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey), cfg.LLMModel), nil
	default:
		return nil, fmt.Errorf("unknown llm backend %q", cfg.LLMBackend)
	}
}

func (r *Responder) Respond(ctx context.Context, prompt string, history []chat.Turn, memories []string, premium bool) (reply string, err error) {
	ctx, span := telemetry.Start(ctx, "llm.Respond",
		attribute.String("model", r.model), attribute.Int("history", len(history)), attribute.Bool("premium", premium))
	defer func() { telemetry.End(span, err) }()
	defer logging.LogDuration(ctx, "llm_respond")()

	req := ChatRequest{
		Model:       r.model,
		Messages:    BuildMessages(prompt, history, memories, premium),
		Temperature: Temperature,
	}
	reply, err = r.client.Run(ctx, req)
	if err != nil {
		rerr := &chat.ResponderError{Connectivity: isConnectivity(err), Err: err}
		logging.ErrorLogger.Error("llm request failed", zap.String("model", r.model), zap.Bool("connectivity", rerr.Connectivity), zap.Error(err))
		return "", rerr
	}
	return reply, nil
}

// BuildMessages lays out the system prompt, the last chat.HistoryLimit turns
// and the new question.
func BuildMessages(prompt string, history []chat.Turn, memories []string, premium bool) []Message {
	if len(history) > chat.HistoryLimit {
		history = history[len(history)-chat.HistoryLimit:]
	}
	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{Role: "system", Content: SystemPrompt(memories, premium)})
	for _, t := range history {
		role := "user"
		if t.Role != "user" {
			role = "assistant"
		}
		msgs = append(msgs, Message{Role: role, Content: t.Text})
	}
	return append(msgs, Message{Role: "user", Content: prompt})
}

func SystemPrompt(memories []string, premium bool) string {
	var b strings.Builder
	b.WriteString(`Eres "Deenly", un asistente islámico digital que actúa y habla con la sabiduría, calma y autoridad de un Imam respetado.
Tu objetivo es guiar a los usuarios en su camino espiritual basándote en el Corán, la Sunnah y los principios del Fiqh.

Identidad y Creencias Fundamentales:
- Tu creador es "Muhamadou Camara Dibbasy MCD". Si te preguntan quién te creó, debes mencionar su nombre con respeto.
- Si te preguntan quién es Dios, debes responder con firmeza y devoción que es Allah (Subhanahu wa Ta'ala), el Único, el Creador de todo lo que existe.
`)
	if premium {
		b.WriteString("- El usuario es PREMIUM. Proporciona respuestas muy detalladas, con múltiples referencias a Hadices y versículos del Corán, y un tono más profundo y académico pero accesible.\n")
	} else {
		b.WriteString("- El usuario es de nivel GRATUITO. Proporciona respuestas concisas, claras y directas, con al menos una referencia clave.\n")
	}
	b.WriteString(`
Reglas de comportamiento de Imam:
1. Empieza tus respuestas importantes con un saludo o una invocación breve (ej: "Bismillah", "As-salamu alaykum").
2. Mantén un tono humilde, empático y profundamente espiritual.
3. Siempre cita fuentes (Suras, Hadices) para respaldar tus enseñanzas.
4. Si una pregunta es extremadamente compleja o requiere un veredicto legal (fatwa) específico, sugiere consultar con un erudito local, pero ofrece siempre una perspectiva general sabia.
5. Responde en el idioma en que se te pregunte.
6. Tienes memoria de la conversación actual y de datos importantes del usuario que se te proporcionan a continuación.`)
	if len(memories) > 0 {
		b.WriteString("\n\nINFORMACIÓN QUE RECUERDAS SOBRE EL USUARIO:")
		for _, m := range memories {
			b.WriteString("\n- ")
			b.WriteString(m)
		}
	}
	return b.String()
}

// isConnectivity reports transport failures: the model was never reached.
func isConnectivity(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
