package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	gh "github.com/google/go-github/v57/github"
	"github.com/nickromney-org/release-radar/internal/version"
	"golang.org/x/oauth2"
)

// Client wraps the GitHub API client
type Client struct {
	gh            *gh.Client
	Owner         string
	Repo          string
	ChangelogPath string
	ChangelogRef  string
}

// Option configures a Client
type Option func(*clientOptions)

type clientOptions struct {
	changelogPath string
	changelogRef  string
	timeout       time.Duration
	baseURL       string
}

// WithChangelog sets the changelog file path and git ref
func WithChangelog(path, ref string) Option {
	return func(o *clientOptions) {
		if path != "" {
			o.changelogPath = path
		}
		if ref != "" {
			o.changelogRef = ref
		}
	}
}

// WithTimeout bounds every API request
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = d
	}
}

// WithBaseURL points the client at another API root (GitHub Enterprise, tests)
func WithBaseURL(u string) Option {
	return func(o *clientOptions) {
		o.baseURL = u
	}
}

// NewClient creates a new GitHub API client
func NewClient(token, owner, repo string, opts ...Option) (*Client, error) {
	o := clientOptions{
		changelogPath: "CHANGELOG.md",
		changelogRef:  "main",
		timeout:       30 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	httpClient := &http.Client{Timeout: o.timeout}
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, ts)
		httpClient.Timeout = o.timeout
	}

	client := gh.NewClient(httpClient)
	if o.baseURL != "" {
		base := o.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL %q: %w", o.baseURL, err)
		}
		client.BaseURL = u
	}

	return &Client{
		gh:            client,
		Owner:         owner,
		Repo:          repo,
		ChangelogPath: o.changelogPath,
		ChangelogRef:  o.changelogRef,
	}, nil
}

// ListReleases fetches up to max releases, newest first
func (c *Client) ListReleases(ctx context.Context, max int) ([]version.Release, error) {
	if max <= 0 {
		max = 30
	}

	perPage := max
	if perPage > 100 {
		perPage = 100
	}
	opts := &gh.ListOptions{PerPage: perPage}

	var result []version.Release
	for page := 1; page <= 10; page++ { // Safety limit of 10 pages
		opts.Page = page

		releases, resp, err := c.gh.Repositories.ListReleases(ctx, c.Owner, c.Repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list releases (page %d): %w", page, err)
		}

		for _, ghRelease := range releases {
			// Skip drafts and prereleases
			if ghRelease.GetDraft() || ghRelease.GetPrerelease() {
				continue
			}

			release, err := c.parseRelease(ghRelease)
			if err != nil {
				// Skip tags that are not semantic versions
				continue
			}

			result = append(result, *release)
			if len(result) >= max {
				return result, nil
			}
		}

		// Check if we've reached the last page
		if resp == nil || resp.NextPage == 0 {
			break
		}
	}

	return result, nil
}

// GetReleaseByTag fetches one release by version ("1.2.3" or "v1.2.3").
// It returns (nil, nil) when the tag has no release.
func (c *Client) GetReleaseByTag(ctx context.Context, ver string) (*version.Release, error) {
	ghRelease, resp, err := c.gh.Repositories.GetReleaseByTag(ctx, c.Owner, c.Repo, version.Tag(ver))
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get release %s: %w", ver, err)
	}

	return c.parseRelease(ghRelease)
}

// GetChangelog fetches the aggregated changelog document
func (c *Client) GetChangelog(ctx context.Context) (string, error) {
	file, _, _, err := c.gh.Repositories.GetContents(ctx, c.Owner, c.Repo, c.ChangelogPath,
		&gh.RepositoryContentGetOptions{Ref: c.ChangelogRef})
	if err != nil {
		return "", fmt.Errorf("failed to get %s: %w", c.ChangelogPath, err)
	}
	if file == nil {
		return "", fmt.Errorf("failed to get %s: path is a directory", c.ChangelogPath)
	}

	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", c.ChangelogPath, err)
	}

	return content, nil
}

// IsRateLimit reports whether err came from GitHub rate limiting
func IsRateLimit(err error) bool {
	var rle *gh.RateLimitError
	var arle *gh.AbuseRateLimitError
	return errors.As(err, &rle) || errors.As(err, &arle)
}

// parseRelease converts a GitHub release to our Release type
func (c *Client) parseRelease(ghRelease *gh.RepositoryRelease) (*version.Release, error) {
	tagName := ghRelease.GetTagName()
	if tagName == "" {
		return nil, fmt.Errorf("release has no tag name")
	}

	// Parse version (removing 'v' prefix if present)
	ver, err := semver.NewVersion(tagName)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", tagName, err)
	}

	return &version.Release{
		Version:     ver,
		Body:        ghRelease.GetBody(),
		Source:      version.SourceReleaseBody,
		URL:         ghRelease.GetHTMLURL(),
		PublishedAt: ghRelease.GetPublishedAt().Time,
	}, nil
}

// ReleaseURL returns the public release page for a version
func (c *Client) ReleaseURL(ver string) string {
	return fmt.Sprintf("https://github.com/%s/%s/releases/tag/%s", c.Owner, c.Repo, version.Tag(ver))
}

// FullName returns owner/repo
func (c *Client) FullName() string {
	return c.Owner + "/" + c.Repo
}
