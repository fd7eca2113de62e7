// Package responder synthesizes a canned chat response when every adapter in
// the fallback chain has failed. Selection is a fixed keyword decision table,
// not model inference, so the gateway can still answer with a best-effort
// payload instead of surfacing a hard error.
package responder

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/gawin-ai/gateway/providers"
)

// ModelName is the synthetic model identifier stamped on every terminal
// response so callers can tell canned text apart from real completions.
const ModelName = "fallback-template"

// ProviderName is the provider identifier used on terminal responses.
const ProviderName = "fallback"

// topic is one row of the decision table: if any keyword matches the last
// user message, one of the templates is returned.
type topic struct {
	name      string
	keywords  []string
	templates []string
}

// The table is matched top to bottom; the first topic with a keyword hit
// wins. The final entry has no keywords and acts as the default.
var topics = []topic{
	{
		name:     "greeting",
		keywords: []string{"hello", "hi ", "hey", "good morning", "good evening", "how are you"},
		templates: []string{
			"Hello! I'm running in offline mode right now, but I'm still happy to help. Ask me about math, coding, science, or writing and I'll share what guidance I can.",
			"Hi there! My AI providers are temporarily unreachable, but you can still ask your question and I'll do my best with built-in guidance.",
		},
	},
	{
		name:     "math",
		keywords: []string{"math", "calculate", "equation", "algebra", "geometry", "derivative", "integral", "+", "solve"},
		templates: []string{
			"I can't reach a live model right now, but here's a general approach for math problems: restate what's given, identify what's asked, pick the rule or formula that links them, and work one step at a time, checking units and signs as you go. Try re-sending your question in a moment for a worked answer.",
			"My math engines are briefly offline. A reliable method in the meantime: write the problem formally, simplify both sides, and verify the result by substituting it back in. Please retry shortly for a full solution.",
		},
	},
	{
		name:     "coding",
		keywords: []string{"code", "coding", "program", "function", "bug", "debug", "compile", "python", "javascript", "golang", " go ", "error"},
		templates: []string{
			"I'm temporarily without live model access, but for coding questions a good loop is: reproduce the problem with the smallest possible example, read the exact error text, and change one thing at a time. Re-send your question shortly and I'll look at the actual code with you.",
			"My coding assistants are briefly unavailable. Until they're back: isolate the failing piece, add a print or log at the boundary, and compare expected versus actual values. Please retry in a moment.",
		},
	},
	{
		name:     "science",
		keywords: []string{"science", "physics", "chemistry", "biology", "experiment", "molecule", "energy", "cell"},
		templates: []string{
			"Live answers are briefly unavailable. For science questions, start from the governing principle (conservation laws, reaction balance, cell structure) and reason from cause to effect. Re-send your question soon for a detailed explanation.",
		},
	},
	{
		name:     "writing",
		keywords: []string{"write", "essay", "paragraph", "grammar", "story", "summary", "summarize"},
		templates: []string{
			"I can't generate fresh text at the moment. A solid writing scaffold while you wait: one-sentence thesis, three supporting points each with evidence, and a closing line that echoes the thesis. Please retry shortly for tailored help.",
		},
	},
	{
		name:     "default",
		keywords: nil,
		templates: []string{
			"All of my AI providers are temporarily unreachable, so this is a built-in reply. Your question was received; please try again in a moment and I'll give you a proper answer.",
			"I'm in offline mode right now and can't produce a live answer. Nothing was lost on your side, so please re-send your question shortly.",
		},
	},
}

// Responder produces terminal responses. Construct with New; the zero value
// panics on use. A single Responder is shared by every in-flight request, so
// access to the template generator is serialized.
type Responder struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Responder with time-seeded template selection.
func New() *Responder {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Responder whose template selection is driven by the
// given seed. Tests use a fixed seed for reproducible output.
func NewSeeded(seed int64) *Responder {
	return &Responder{rng: rand.New(rand.NewSource(seed))}
}

// Respond builds a canned response for req. reasons is the per-adapter
// failure list aggregated by the chain; it is echoed on the response for
// observability and never shown as an error to the caller.
func (r *Responder) Respond(req *providers.Request, reasons []string) *providers.Response {
	t := topicFor(req)
	r.mu.Lock()
	tmpl := t.templates[r.rng.Intn(len(t.templates))]
	r.mu.Unlock()
	return &providers.Response{
		ID:       fmt.Sprintf("fallback-%d", time.Now().UnixNano()),
		Object:   "chat.completion",
		Created:  time.Now().Unix(),
		Model:    ModelName,
		Provider: ProviderName,
		Choices: []providers.Choice{{
			Index:        0,
			Message:      providers.Message{Role: providers.RoleAssistant, Content: tmpl},
			FinishReason: "stop",
		}},
		FallbackReasons: append([]string(nil), reasons...),
	}
}

// Topic returns the name of the decision-table row that would answer text.
// Exposed for metrics labelling.
func Topic(text string) string {
	return match(strings.ToLower(text)).name
}

// TopicFor returns the decision-table row name selected for req, honouring
// its Action hint the same way Respond does.
func TopicFor(req *providers.Request) string {
	return topicFor(req).name
}

// topicFor selects the table row for req. A client Action naming a topic
// ("math", "coding", ...) wins outright; otherwise keywords in the last user
// message decide.
func topicFor(req *providers.Request) topic {
	if action := strings.ToLower(strings.TrimSpace(req.Action)); action != "" {
		for _, t := range topics {
			if t.name == action {
				return t
			}
		}
	}
	return match(strings.ToLower(req.LastUserContent()))
}

func match(text string) topic {
	for _, t := range topics {
		for _, kw := range t.keywords {
			if strings.Contains(text, kw) {
				return t
			}
		}
	}
	return topics[len(topics)-1]
}
