package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"docanalyzer/logger"
	"docanalyzer/types"
)

type GenerateRequest struct {
	Model  string `json:"model"`
	System string `json:"system,omitempty"`
	Prompt string `json:"prompt"`
}

type GenerateResponse struct {
	Response string `json:"response"`
}

// Agent talks to an Ollama-compatible generation endpoint. The format
// model handles short rewriting tasks (query reformulation), the main
// model handles correction, answering and summarization.
type Agent struct {
	url         string
	model       string
	formatModel string
	client      *http.Client
	log         *logger.Logger
}

func New(url, model, formatModel string, log *logger.Logger) *Agent {
	if formatModel == "" {
		formatModel = model
	}
	return &Agent{
		url:         url,
		model:       model,
		formatModel: formatModel,
		client:      &http.Client{Timeout: 5 * time.Minute},
		log:         log,
	}
}

// Generate sends a single prompt and returns the full completion. The
// endpoint may reply with one JSON object or a stream of chunks; both
// shapes are handled.
func (a *Agent) Generate(ctx context.Context, model, prompt string) (string, error) {
	start := time.Now()

	reqBody, err := json.Marshal(GenerateRequest{
		Model:  model,
		Prompt: prompt,
	})
	if err != nil {
		return "", &types.GenerationError{Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	if count, err := countTokens(reqBody); err == nil {
		a.log.Debug("sending prompt to LLM", "model", model, "tokens", count, "bytes", len(reqBody))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", &types.GenerationError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", &types.GenerationError{Err: fmt.Errorf("failed to make request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &types.GenerationError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &types.GenerationError{Err: fmt.Errorf("LLM API error: status %d, body: %s", resp.StatusCode, string(body))}
	}

	a.log.Debug("LLM response received", "model", model, "took", time.Since(start))

	var genResp GenerateResponse
	if err := json.Unmarshal(body, &genResp); err == nil && genResp.Response != "" {
		return genResp.Response, nil
	}

	// Streamed reply: concatenate the chunks.
	var output strings.Builder
	decoder := json.NewDecoder(bytes.NewReader(body))
	for decoder.More() {
		var chunk GenerateResponse
		if err := decoder.Decode(&chunk); err != nil {
			break
		}
		output.WriteString(chunk.Response)
	}
	return output.String(), nil
}

// CorrectText fixes OCR artifacts without paraphrasing or summarizing.
func (a *Agent) CorrectText(ctx context.Context, text string) (string, error) {
	prompt := "The following text is extracted using OCR and may contain spelling, grammar, or formatting errors. " +
		"Correct only clear errors in spelling, grammar, or OCR misreads. " +
		"Do not paraphrase, summarize, omit, or invent information. " +
		"Preserve the original structure and wording as much as possible. " +
		"Return only the corrected full text, without any explanation, introductory, or summary sentences.\n\n" +
		"Text:\n" + text

	return a.Generate(ctx, a.model, prompt)
}

// ReformulateQuery fixes spelling and grammar in the user query so it
// embeds better. The caller falls back to the original query on error.
func (a *Agent) ReformulateQuery(ctx context.Context, query string) (string, error) {
	prompt := "Correct only spelling and grammatical mistakes in the following user query for vector search. " +
		"Return ONLY the fixed query, without changing the query's meaning, intent, or adding any extra details. " +
		"Do NOT include explanations, instructions, or additional tokens—simply output the corrected user query ONLY.\n" +
		"User query: " + query

	out, err := a.Generate(ctx, a.formatModel, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Answer produces a grounded answer from the retrieved context. The
// query here is the user's original one, not the reformulated variant.
func (a *Agent) Answer(ctx context.Context, query, docContext string) (string, error) {
	prompt := fmt.Sprintf(`You are an assistant that answers the user's question strictly using the provided context.

User Query:
%s

Context:
%s

Rules:
1. Use only information found in the context.
2. Do not add, assume, or infer anything that is not explicitly in the context.
3. The final answer must be written clearly for the end user.
4. Do not include any explanations about rules, context, or reasoning in the final answer.
5. If the answer is not present in the context, reply exactly with:
"The answer is not found in the provided documents."

Final Answer:
`, query, docContext)

	return a.Generate(ctx, a.model, prompt)
}

// Summarize condenses the document text into key points.
func (a *Agent) Summarize(ctx context.Context, text string) (string, error) {
	prompt := "The following text is extracted via OCR and may contain spelling or grammar errors. " +
		"Carefully correct obvious errors but do not add or invent new information. " +
		"Summarize all key points concisely, using bullet points or short sections. " +
		"Omit any introductory text, explanations, or 'Here is a summary...' commentary. " +
		"Retain the original meaning and structure where possible, but improve readability and clarity. " +
		"If the document has sections (offers, terms, names, dates, policies, conditions, etc.), separate them with headings or clear bullets. " +
		"Only output the cleaned, summarized document content." +
		"\n\nText:\n" + text

	return a.Generate(ctx, a.model, prompt)
}

func countTokens(data []byte) (int, error) {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return 0, err
	}
	tokens := enc.Encode(string(data), nil, nil)
	return len(tokens), nil
}
