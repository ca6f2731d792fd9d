package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	logger "github.com/sirupsen/logrus"

	"github.com/aicode-cli/aicode/internal/domain/entities"
	domainRepos "github.com/aicode-cli/aicode/internal/domain/repositories"
)

const (
	defaultMaxOutputTokens = 4096
	requestTimeout         = 120 * time.Second
)

// ModelRepository talks to the OpenAI Responses API. It is the only
// component with network access; the reconciliation core never reaches it.
// The client is built on first use so runs that never prompt the model do
// not require an API key.
type ModelRepository struct {
	settings *entities.Settings

	once    sync.Once
	client  openai.Client
	initErr error
}

// NewModelRepository builds the OpenAI-backed model repository. The API
// key comes from the settings file or the OPENAI_API_KEY environment
// variable, with a .env file honored when present.
func NewModelRepository(settings *entities.Settings) domainRepos.ModelRepository {
	return &ModelRepository{settings: settings}
}

func (r *ModelRepository) Name() string { return "openai" }

func (r *ModelRepository) init() {
	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded environment from .env")
	}

	key := strings.TrimSpace(r.settings.ResolveAPIKey())
	if key == "" {
		r.initErr = errors.New("no OpenAI API key: set OPENAI_API_KEY or the openai_api_key setting")
		return
	}
	r.client = openai.NewClient(option.WithAPIKey(key))
}

// Submit sends one prompt and returns the model's text verbatim.
func (r *ModelRepository) Submit(ctx context.Context, req entities.ModelRequest) (string, error) {
	r.once.Do(r.init)
	if r.initErr != nil {
		return "", r.initErr
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	params := responses.ResponseNewParams{
		Model:           shared.ResponsesModel(r.settings.Model),
		MaxOutputTokens: openai.Int(defaultMaxOutputTokens),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(req.UserPrompt,
					responses.EasyInputMessageRoleUser),
			},
		},
	}
	if strings.TrimSpace(req.SystemPrompt) != "" {
		params.Instructions = openai.String(req.SystemPrompt)
	}
	if req.WantJSON {
		obj := shared.NewResponseFormatJSONObjectParam()
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{OfJSONObject: &obj},
		}
	}

	resp, err := r.client.Responses.New(ctx, params)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: model request timed out", entities.ErrScanTimeout)
		}
		return "", fmt.Errorf("model request failed: %w", err)
	}

	text := resp.OutputText()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("model returned an empty response")
	}
	return text, nil
}
