package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Analysis is the structured guess a remote vision model returns for
// one price tag image.
type Analysis struct {
	Transcription string  `json:"transcription"`
	Price         float64 `json:"price"`
	GuessedName   string  `json:"guessedName"`
	ProductCode   string  `json:"productCode,omitempty"`
}

// Analyzer sends a captured still to a vision model and extracts a
// structured price tag reading. Implementations are best-effort
// network collaborators: a failed call returns an error, a usable
// reading is always non-nil.
type Analyzer interface {
	// AnalyzePriceTag analyzes a JPEG-encoded still image.
	AnalyzePriceTag(ctx context.Context, jpegImage []byte) (*Analysis, error)
	// Close releases the analyzer's resources.
	Close() error
}

// priceTagPrompt is the shared prompt used by all vision providers.
const priceTagPrompt = `Sua tarefa é atuar como um sistema OCR avançado. Analise a imagem de uma etiqueta de preço e retorne um JSON.
1. **transcription**: Transcreva absolutamente TODO texto e número que você conseguir ver na imagem, na ordem em que aparecem. Este campo é obrigatório.
2. **price**: A partir da transcrição, encontre o número que mais parece ser um preço (ex: com 'R$', vírgula, ou em destaque). Retorne como um número. Se não encontrar, retorne 0.
3. **guessedName**: Com base no texto transcrito, monte o nome mais descritivo possível para o item. Se for um produto, inclua marca e detalhes. O nome não deve ser vazio.
4. **productCode**: Extraia qualquer código de barras numérico ou SKU que encontrar.

Retorne APENAS o JSON, no formato:
{
  "transcription": "...",
  "price": 0.00,
  "guessedName": "...",
  "productCode": "..."
}

Importante:
- O price deve ser um número (não uma string).
- Não inclua nenhum texto antes ou depois do JSON.
- Não use blocos de código markdown.`

// parseAnalysisJSON parses the JSON response from a vision model.
func parseAnalysisJSON(text string) (*Analysis, error) {
	text = strings.TrimSpace(text)

	// Remove markdown code blocks if present
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	text = text[startIdx : endIdx+1]

	var a Analysis
	if err := json.Unmarshal([]byte(text), &a); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	if a.Price < 0 {
		a.Price = 0
	}

	// The model's transcription is a better name than nothing when it
	// could not assemble one.
	a.GuessedName = strings.TrimSpace(a.GuessedName)
	if a.GuessedName == "" {
		a.GuessedName = strings.TrimSpace(a.Transcription)
	}
	if a.GuessedName == "" {
		a.GuessedName = PlaceholderRemote
	}

	a.ProductCode = strings.TrimSpace(a.ProductCode)

	return &a, nil
}
