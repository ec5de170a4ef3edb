package vectorsearch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/discoveryengine/v1"
	"google.golang.org/api/option"

	"github.com/dshills/docground/pkg/types"
)

const (
	// ProviderDiscovery identifies the Discovery Engine provider
	ProviderDiscovery = "discovery"

	// DefaultLocation is where Discovery Engine apps usually live
	DefaultLocation = "global"

	defaultCollection    = "default_collection"
	defaultServingConfig = "default_search"
	cloudPlatformScope   = "https://www.googleapis.com/auth/cloud-platform"
	snippetSeparator     = " ... "
	maxExtractiveAnswers = 1
	maxExtractiveSegment = 3
)

var (
	// ErrMissingTarget is returned when neither an engine nor a data store is configured
	ErrMissingTarget = errors.New("either engine id or data store id must be set")
	// ErrMissingProject is returned when no project id is configured or found in credentials
	ErrMissingProject = errors.New("project id is required")
)

// DiscoveryConfig configures the Discovery Engine provider. EngineID takes
// precedence over DataStoreID.
type DiscoveryConfig struct {
	ProjectID       string
	Location        string
	EngineID        string
	DataStoreID     string
	CredentialsJSON string // service account key; application default credentials when empty
	Endpoint        string // override for tests and regional endpoints
}

// Discovery searches a Google Discovery Engine (Vertex AI Search) app or data store
type Discovery struct {
	service       *discoveryengine.Service
	servingConfig string
	useEngine     bool
}

// NewDiscovery creates the provider. Extra client options replace credential
// discovery entirely, which tests use to talk to a local server.
func NewDiscovery(ctx context.Context, cfg DiscoveryConfig, opts ...option.ClientOption) (*Discovery, error) {
	if cfg.EngineID == "" && cfg.DataStoreID == "" {
		return nil, ErrMissingTarget
	}
	if cfg.Location == "" {
		cfg.Location = DefaultLocation
	}

	if len(opts) == 0 {
		authOpts, projectID, err := credentialOptions(ctx, cfg.CredentialsJSON)
		if err != nil {
			return nil, err
		}
		opts = authOpts
		if cfg.ProjectID == "" {
			cfg.ProjectID = projectID
		}
	}
	if cfg.ProjectID == "" {
		return nil, ErrMissingProject
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := discoveryengine.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create discovery engine service: %w", err)
	}

	return &Discovery{
		service:       svc,
		servingConfig: ServingConfig(cfg),
		useEngine:     cfg.EngineID != "",
	}, nil
}

// credentialOptions resolves a token source and the project it belongs to
func credentialOptions(ctx context.Context, credentialsJSON string) ([]option.ClientOption, string, error) {
	var (
		creds *google.Credentials
		err   error
	)
	if credentialsJSON != "" {
		creds, err = google.CredentialsFromJSON(ctx, []byte(credentialsJSON), cloudPlatformScope)
	} else {
		creds, err = google.FindDefaultCredentials(ctx, cloudPlatformScope)
	}
	if err != nil {
		return nil, "", fmt.Errorf("discovery engine credentials: %w", err)
	}
	return []option.ClientOption{option.WithTokenSource(creds.TokenSource)}, creds.ProjectID, nil
}

// ServingConfig returns the resource name searched for cfg
func ServingConfig(cfg DiscoveryConfig) string {
	location := cfg.Location
	if location == "" {
		location = DefaultLocation
	}
	parent := fmt.Sprintf("projects/%s/locations/%s/collections/%s", cfg.ProjectID, location, defaultCollection)
	if cfg.EngineID != "" {
		return fmt.Sprintf("%s/engines/%s/servingConfigs/%s", parent, cfg.EngineID, defaultServingConfig)
	}
	return fmt.Sprintf("%s/dataStores/%s/servingConfigs/%s", parent, cfg.DataStoreID, defaultServingConfig)
}

// ScopeFilter restricts results to documents tagged with scope
func ScopeFilter(scope string) string {
	if scope == "" {
		return ""
	}
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(scope)
	return fmt.Sprintf(`orgId: ANY("%s")`, escaped)
}

func (d *Discovery) Name() string {
	return ProviderDiscovery
}

// Search runs one query against the serving config
func (d *Discovery) Search(ctx context.Context, q Query) ([]types.RetrievalResult, error) {
	req := &discoveryengine.GoogleCloudDiscoveryengineV1SearchRequest{
		Query:    q.Text,
		PageSize: int64(min(pageSize(q), MaxRankedPageSize)),
		Filter:   ScopeFilter(q.Scope),
		ContentSearchSpec: &discoveryengine.GoogleCloudDiscoveryengineV1SearchRequestContentSearchSpec{
			SnippetSpec: &discoveryengine.GoogleCloudDiscoveryengineV1SearchRequestContentSearchSpecSnippetSpec{
				ReturnSnippet: true,
			},
			ExtractiveContentSpec: &discoveryengine.GoogleCloudDiscoveryengineV1SearchRequestContentSearchSpecExtractiveContentSpec{
				MaxExtractiveAnswerCount:  maxExtractiveAnswers,
				MaxExtractiveSegmentCount: maxExtractiveSegment,
			},
		},
		QueryExpansionSpec: &discoveryengine.GoogleCloudDiscoveryengineV1SearchRequestQueryExpansionSpec{
			Condition: "AUTO",
		},
		SpellCorrectionSpec: &discoveryengine.GoogleCloudDiscoveryengineV1SearchRequestSpellCorrectionSpec{
			Mode: "AUTO",
		},
	}

	var (
		resp *discoveryengine.GoogleCloudDiscoveryengineV1SearchResponse
		err  error
	)
	if d.useEngine {
		resp, err = d.service.Projects.Locations.Collections.Engines.ServingConfigs.
			Search(d.servingConfig, req).Context(ctx).Do()
	} else {
		resp, err = d.service.Projects.Locations.Collections.DataStores.ServingConfigs.
			Search(d.servingConfig, req).Context(ctx).Do()
	}
	if err != nil {
		return nil, &Error{Provider: ProviderDiscovery, Err: err}
	}

	results := make([]types.RetrievalResult, 0, len(resp.Results))
	for i, r := range resp.Results {
		result, err := convertResult(i, r)
		if err != nil {
			return nil, &Error{Provider: ProviderDiscovery, Err: err}
		}
		results = append(results, result)
	}
	return results, nil
}

// convertResult maps one search hit onto a RetrievalResult
func convertResult(rank int, r *discoveryengine.GoogleCloudDiscoveryengineV1SearchResponseSearchResult) (types.RetrievalResult, error) {
	var (
		name    string
		uri     string
		derived Value
		data    Value
		err     error
	)
	if doc := r.Document; doc != nil {
		name = doc.Name
		if doc.Content != nil {
			uri = doc.Content.Uri
		}
		if derived, err = ParseValue(doc.DerivedStructData); err != nil {
			return types.RetrievalResult{}, fmt.Errorf("decode derivedStructData: %w", err)
		}
		if data, err = ParseValue(doc.StructData); err != nil {
			return types.RetrievalResult{}, fmt.Errorf("decode structData: %w", err)
		}
	}

	id := r.Id
	if id == "" {
		id = fmt.Sprintf("result-%d", rank)
	}

	return types.RetrievalResult{
		ID:         id,
		Title:      resultTitle(derived, data, name),
		Content:    StripHTML(resultContent(derived)),
		SourceLink: firstNonEmpty(derived.Field("link").Text(), uri),
		Score:      RankScore(rank),
	}, nil
}

func resultTitle(derived, data Value, name string) string {
	if title := derived.Field("title").Text(); title != "" {
		return title
	}
	if title := data.Field("title").Text(); title != "" {
		return title
	}
	if name != "" {
		return lastSegment(name)
	}
	return UntitledDocument
}

// resultContent joins every snippet, falling back to the first extractive answer
func resultContent(derived Value) string {
	snippets := derived.Field("snippets").Items()
	if len(snippets) > 0 {
		parts := make([]string, len(snippets))
		for i, s := range snippets {
			parts[i] = s.Field("snippet").Text()
		}
		if content := strings.Join(parts, snippetSeparator); content != "" {
			return content
		}
	}
	return derived.Field("extractive_answers").Index(0).Field("content").Text()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
