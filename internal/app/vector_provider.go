package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"strings"

	"github.com/yungbote/mba-counselor/internal/platform/logger"
	"github.com/yungbote/mba-counselor/internal/platform/pinecone"
	"github.com/yungbote/mba-counselor/internal/platform/qdrant"
)

type VectorProvider string

const (
	VectorProviderPGVector VectorProvider = "pgvector"
	VectorProviderQdrant   VectorProvider = "qdrant"
	VectorProviderPinecone VectorProvider = "pinecone"
)

var (
	resolvePineconeConfig  = pinecone.ResolveConfigFromEnv
	resolveQdrantConfig    = qdrant.ResolveConfigFromEnv
	newPineconeVectorStore = pinecone.NewVectorStore
	newQdrantVectorStore   = qdrant.NewVectorStore
)

type VectorProviderBootstrapErrorCode string

const (
	VectorProviderBootstrapErrorInvalidProvider     VectorProviderBootstrapErrorCode = "invalid_provider"
	VectorProviderBootstrapErrorMissingQdrantURL    VectorProviderBootstrapErrorCode = "missing_qdrant_url"
	VectorProviderBootstrapErrorInvalidQdrantURL    VectorProviderBootstrapErrorCode = "invalid_qdrant_url"
	VectorProviderBootstrapErrorMissingQdrantColl   VectorProviderBootstrapErrorCode = "missing_qdrant_collection"
	VectorProviderBootstrapErrorInvalidQdrantVector VectorProviderBootstrapErrorCode = "invalid_qdrant_vector_dim"
	VectorProviderBootstrapErrorQdrantConfigFailed  VectorProviderBootstrapErrorCode = "qdrant_config_failed"
	VectorProviderBootstrapErrorPineconeConfig      VectorProviderBootstrapErrorCode = "pinecone_config_failed"
	VectorProviderBootstrapErrorConnectFailed       VectorProviderBootstrapErrorCode = "connect_failed"
	VectorProviderBootstrapErrorProviderInitFailed  VectorProviderBootstrapErrorCode = "provider_init_failed"
)

type VectorProviderBootstrapError struct {
	Code     VectorProviderBootstrapErrorCode
	Provider string
	Cause    error
}

func (e *VectorProviderBootstrapError) Error() string {
	if e == nil {
		return "vector provider bootstrap failed"
	}
	return fmt.Sprintf("vector provider bootstrap failed (code=%s provider=%q): %v", e.Code, e.Provider, e.Cause)
}

func (e *VectorProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveVectorStore returns the external index for the configured provider. pgvector
// searches the content table directly, so it yields a nil store.
func resolveVectorStore(ctx context.Context, log *logger.Logger, provider string) (pinecone.VectorStore, error) {
	provider = strings.TrimSpace(strings.ToLower(provider))
	switch VectorProvider(provider) {
	case VectorProviderPGVector, "":
		log.Info("Selecting vector store provider", "provider", VectorProviderPGVector)
		return nil, nil

	case VectorProviderQdrant:
		cfg, err := resolveQdrantConfig()
		if err != nil {
			return nil, bootstrapFailed(log, provider, err)
		}
		log.Info(
			"Selecting vector store provider",
			"provider", provider,
			"qdrant_url", cfg.URL,
			"qdrant_collection", cfg.Collection,
			"qdrant_namespace_prefix", cfg.NamespacePrefix,
			"qdrant_vector_dim", cfg.VectorDim,
		)
		vs, err := newQdrantVectorStore(ctx, log, cfg)
		if err != nil {
			return nil, bootstrapFailed(log, provider, err)
		}
		return instrumentVectorStore(provider, vs), nil

	case VectorProviderPinecone:
		cfg, err := resolvePineconeConfig()
		if err != nil {
			return nil, bootstrapFailed(log, provider, &VectorProviderBootstrapError{
				Code:     VectorProviderBootstrapErrorPineconeConfig,
				Provider: provider,
				Cause:    err,
			})
		}
		log.Info("Selecting vector store provider", "provider", provider, "pinecone_index_host", cfg.IndexHost)
		vs, err := newPineconeVectorStore(log, cfg)
		if err != nil {
			return nil, bootstrapFailed(log, provider, err)
		}
		return instrumentVectorStore(provider, vs), nil

	default:
		return nil, bootstrapFailed(log, provider, &VectorProviderBootstrapError{
			Code:     VectorProviderBootstrapErrorInvalidProvider,
			Provider: provider,
			Cause:    fmt.Errorf("unsupported vector provider %q", provider),
		})
	}
}

func bootstrapFailed(log *logger.Logger, provider string, err error) error {
	classified := classifyVectorProviderBootstrapError(provider, err)
	log.Error(
		"Vector store provider bootstrap failed",
		"provider", provider,
		"error_code", vectorProviderBootstrapErrorCode(classified),
		"error", classified,
	)
	return classified
}

func classifyVectorProviderBootstrapError(provider string, err error) error {
	var already *VectorProviderBootstrapError
	if errors.As(err, &already) {
		return err
	}
	wrap := func(code VectorProviderBootstrapErrorCode) error {
		return &VectorProviderBootstrapError{Code: code, Provider: provider, Cause: err}
	}

	var urlErr *neturl.Error
	if errors.As(err, &urlErr) {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	errLower := strings.ToLower(err.Error())
	if strings.Contains(errLower, "ready check failed") || strings.Contains(errLower, "connection refused") {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}

	var cfgErr *qdrant.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case qdrant.ConfigErrorMissingURL:
			return wrap(VectorProviderBootstrapErrorMissingQdrantURL)
		case qdrant.ConfigErrorInvalidURL:
			return wrap(VectorProviderBootstrapErrorInvalidQdrantURL)
		case qdrant.ConfigErrorMissingCollection:
			return wrap(VectorProviderBootstrapErrorMissingQdrantColl)
		case qdrant.ConfigErrorInvalidVectorDim:
			return wrap(VectorProviderBootstrapErrorInvalidQdrantVector)
		default:
			return wrap(VectorProviderBootstrapErrorQdrantConfigFailed)
		}
	}
	return wrap(VectorProviderBootstrapErrorProviderInitFailed)
}

func vectorProviderBootstrapErrorCode(err error) VectorProviderBootstrapErrorCode {
	var bootstrapErr *VectorProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return VectorProviderBootstrapErrorConnectFailed
}
