package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode"

	"golang.org/x/time/rate"
)

// Provider configuration
const (
	ProviderJina   = "jina"
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"

	EnvProvider     = "DOCGROUND_EMBEDDING_PROVIDER"
	EnvJinaAPIKey   = "JINA_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"

	// Default models
	DefaultJinaModel   = "jina-embeddings-v3"
	DefaultOpenAIModel = "text-embedding-3-small"
	LocalModel         = "local-hashing"

	// Default endpoints
	DefaultJinaBaseURL   = "https://api.jina.ai/v1"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	// Dimensions
	JinaDimension   = 1024
	OpenAIDimension = 1536
	LocalDimension  = 384

	DefaultTimeout = 30 * time.Second
)

var openAIDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// ProviderOptions configures an HTTP embedding provider
type ProviderOptions struct {
	APIKey  string
	Model   string
	BaseURL string // for OpenAI-compatible gateways and tests
	Timeout time.Duration

	// RequestsPerSecond throttles provider calls; zero disables throttling
	RequestsPerSecond float64

	Cache      *Cache
	HTTPClient *http.Client
}

// APIProvider implements Embedder against an OpenAI-compatible /embeddings endpoint.
// OpenAI and Jina share the request and response format.
type APIProvider struct {
	name       string
	apiKey     string
	model      string
	baseURL    string
	dimension  int
	httpClient *http.Client
	cache      *Cache
	limiter    *rate.Limiter
}

// NewOpenAIProvider creates an OpenAI embedder. An empty API key falls back to OPENAI_API_KEY.
func NewOpenAIProvider(opts ProviderOptions) (*APIProvider, error) {
	model := opts.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	dim, ok := openAIDimensions[model]
	if !ok {
		dim = OpenAIDimension
	}
	return newAPIProvider(ProviderOpenAI, EnvOpenAIAPIKey, DefaultOpenAIBaseURL, model, dim, opts)
}

// NewJinaProvider creates a Jina AI embedder. An empty API key falls back to JINA_API_KEY.
func NewJinaProvider(opts ProviderOptions) (*APIProvider, error) {
	model := opts.Model
	if model == "" {
		model = DefaultJinaModel
	}
	return newAPIProvider(ProviderJina, EnvJinaAPIKey, DefaultJinaBaseURL, model, JinaDimension, opts)
}

func newAPIProvider(name, keyEnv, defaultURL, model string, dim int, opts ProviderOptions) (*APIProvider, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(keyEnv)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, keyEnv)
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultURL
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	p := &APIProvider{
		name:       name,
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		dimension:  dim,
		httpClient: client,
		cache:      opts.Cache,
	}
	if opts.RequestsPerSecond > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return p, nil
}

func (p *APIProvider) Embed(ctx context.Context, text string) (*Embedding, error) {
	return embedOne(ctx, p, text)
}

func (p *APIProvider) EmbedBatch(ctx context.Context, texts []string) ([]*Embedding, error) {
	if len(texts) == 0 {
		return []*Embedding{}, nil
	}

	result := make([]*Embedding, len(texts))
	hashes := make([]string, len(texts))
	var missing []int
	for i, text := range texts {
		hashes[i] = ComputeHash(Truncate(text))
		if p.cache != nil {
			if emb, ok := p.cache.Get(hashes[i]); ok {
				result[i] = emb
				continue
			}
		}
		missing = append(missing, i)
	}

	if len(missing) == 0 {
		return result, nil
	}

	inputs := make([]string, len(missing))
	for j, i := range missing {
		inputs[j] = Truncate(texts[i])
	}

	vectors, err := p.callAPI(ctx, inputs)
	if err != nil {
		return nil, &ProviderError{Provider: p.name, Err: err}
	}

	for j, i := range missing {
		emb := &Embedding{
			Vector:    vectors[j],
			Dimension: len(vectors[j]),
			Provider:  p.name,
			Model:     p.model,
			Hash:      hashes[i],
		}
		if p.cache != nil {
			p.cache.Set(emb.Hash, emb)
		}
		result[i] = emb
	}

	return result, nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

// callAPI returns one vector per input, ordered by the provider-assigned index
func (p *APIProvider) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	body, err := json.Marshal(embeddingRequest{Model: p.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	var apiResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(apiResp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(apiResp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range apiResp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		if vectors[d.Index] != nil {
			return nil, fmt.Errorf("duplicate embedding index %d", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}

	return vectors, nil
}

func (p *APIProvider) Dimension() int {
	return p.dimension
}

func (p *APIProvider) Provider() string {
	return p.name
}

func (p *APIProvider) Model() string {
	return p.model
}

func (p *APIProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// LocalProvider embeds text offline by hashing word features into a fixed
// number of buckets. Texts sharing words get similar vectors, which is enough
// for tests and for running without a network provider.
type LocalProvider struct {
	cache *Cache
}

// NewLocalProvider creates a new local embedder
func NewLocalProvider(cache *Cache) *LocalProvider {
	return &LocalProvider{cache: cache}
}

func (l *LocalProvider) Embed(ctx context.Context, text string) (*Embedding, error) {
	return embedOne(ctx, l, text)
}

func (l *LocalProvider) EmbedBatch(ctx context.Context, texts []string) ([]*Embedding, error) {
	out := make([]*Embedding, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, &ProviderError{Provider: ProviderLocal, Err: err}
		}

		text = Truncate(text)
		hash := ComputeHash(text)
		if l.cache != nil {
			if emb, ok := l.cache.Get(hash); ok {
				out[i] = emb
				continue
			}
		}

		emb := &Embedding{
			Vector:    hashVector(text),
			Dimension: LocalDimension,
			Provider:  ProviderLocal,
			Model:     LocalModel,
			Hash:      hash,
		}
		if l.cache != nil {
			l.cache.Set(hash, emb)
		}
		out[i] = emb
	}
	return out, nil
}

func (l *LocalProvider) Dimension() int {
	return LocalDimension
}

func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

func (l *LocalProvider) Model() string {
	return LocalModel
}

func (l *LocalProvider) Close() error {
	return nil
}

func hashVector(text string) []float32 {
	vector := make([]float32, LocalDimension)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		sum := h.Sum32()
		sign := float32(1)
		if sum&1 == 1 {
			sign = -1
		}
		vector[(sum>>1)%LocalDimension] += sign
	}
	return NormalizeVector(vector)
}

// NormalizeVector normalizes a vector to unit length (for cosine similarity)
func NormalizeVector(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val * val)
	}

	if sum == 0 {
		return v
	}

	norm := float32(math.Sqrt(sum))
	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / norm
	}

	return result
}
