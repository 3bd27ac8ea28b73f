package sources

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/trusthire/backend/internal/apiclient"
	"github.com/trusthire/backend/internal/storage/models"
)

const githubBaseURL = "https://api.github.com"

// GitHub looks up a claimed developer handle. Its evidence is additive:
// profile existence, repository count and followers each contribute signal
// rather than collapsing into found/not-found.
type GitHub struct {
	api     *apiclient.Client
	baseURL string
	token   string
	timeout time.Duration
	logger  *zap.Logger
}

func NewGitHub(token string, opts Options) *GitHub {
	opts.fill()
	return &GitHub{
		api:     opts.Client,
		baseURL: githubBaseURL,
		token:   token,
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
}

func (g *GitHub) Source() models.SourceID   { return models.SourceGitHub }
func (g *GitHub) Category() models.Category { return models.CategoryBackground }

type githubUser struct {
	Login       string    `json:"login"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	CreatedAt   time.Time `json:"created_at"`
}

func (g *GitHub) Verify(ctx context.Context, target Target) models.EvidenceItem {
	item := newItem(models.SourceGitHub, models.CategoryBackground, target.Value)
	started := time.Now()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	header := http.Header{}
	header.Set("Accept", "application/vnd.github+json")
	if g.token != "" {
		header.Set("Authorization", "Bearer "+g.token)
	}

	var user githubUser
	_, err := g.api.GetJSON(ctx, apiclient.Request{
		Source:   string(models.SourceGitHub),
		Category: "developer",
		URL:      g.baseURL + "/users/" + target.Value,
		Header:   header,
	}, &user)
	if err != nil {
		// An unknown handle is a negative result, not an adapter failure.
		var advErr *apiclient.AdapterError
		if errors.As(err, &advErr) && advErr.StatusCode == http.StatusNotFound {
			item.Developer = &models.DeveloperEvidence{}
			g.logger.Info("github profile not found", zap.String("handle", target.Value))
			finish(&item, started, nil)
			return item
		}
		finish(&item, started, err)
		return item
	}

	item.Developer = &models.DeveloperEvidence{
		ProfileFound: true,
		PublicRepos:  user.PublicRepos,
		Followers:    user.Followers,
		CreatedAt:    user.CreatedAt,
	}
	item.Found = true

	g.logger.Info("github lookup completed",
		zap.String("handle", target.Value),
		zap.Int("public_repos", user.PublicRepos),
		zap.Int("followers", user.Followers),
	)
	finish(&item, started, nil)
	return item
}
