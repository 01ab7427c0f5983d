package steps

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/cli/go-gh/v2/pkg/api"
)

// GitHubPrefix marks a source stored in a GitHub repository:
// gh:OWNER/REPO/PATH[@REF].
const GitHubPrefix = "gh:"

// maxCSVBytes bounds what we are willing to read from any source.
const maxCSVBytes int64 = 16 << 20

// Kind is the type of location a source string points to.
type Kind int

const (
	KindFile Kind = iota
	KindHTTP
	KindGitHub
)

func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindGitHub:
		return "github"
	default:
		return "file"
	}
}

// KindOf classifies a source string.
func KindOf(source string) Kind {
	switch {
	case strings.HasPrefix(source, GitHubPrefix):
		return KindGitHub
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return KindHTTP
	default:
		return KindFile
	}
}

// repoPath is a parsed gh: source.
type repoPath struct {
	Owner string
	Repo  string
	Path  string
	Ref   string
}

func parseRepoPath(source string) (repoPath, error) {
	s := strings.TrimPrefix(source, GitHubPrefix)
	var ref string
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s, ref = s[:i], s[i+1:]
		if ref == "" {
			return repoPath{}, fmt.Errorf("invalid source %q: empty ref after @", source)
		}
	}
	parts := strings.SplitN(s, "/", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || strings.Trim(parts[2], "/") == "" {
		return repoPath{}, fmt.Errorf("invalid source %q (expected gh:OWNER/REPO/PATH[@REF])", source)
	}
	return repoPath{Owner: parts[0], Repo: parts[1], Path: strings.Trim(parts[2], "/"), Ref: ref}, nil
}

// HTTPClient is used for http(s) sources and the raw GitHub fallback.
// Tests may replace it.
var HTTPClient = http.DefaultClient

// Fetch returns the raw CSV bytes behind a source.
func Fetch(ctx context.Context, source string) ([]byte, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("source must not be empty")
	}
	switch KindOf(source) {
	case KindGitHub:
		rp, err := parseRepoPath(source)
		if err != nil {
			return nil, err
		}
		if useGhClient() {
			return fetchRepoFileWithGh(ctx, rp)
		}
		return fetchRepoFileRaw(ctx, rp)
	case KindHTTP:
		return fetchURL(ctx, source)
	default:
		return readFile(source)
	}
}

// Load fetches and parses the steps CSV at source.
func Load(ctx context.Context, source string) ([]Day, error) {
	raw, err := Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	days, err := Parse(bytes.NewReader(raw))
	if err != nil {
		if errors.Is(err, ErrNoData) {
			return nil, err
		}
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}
	return days, nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{Source: path, cause: err}
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	b, err := readLimited(f, path, maxCSVBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return b, nil
}

// readLimited reads at most limit bytes of r and fails rather than truncate.
func readLimited(r io.Reader, source string, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, &TooLargeError{Source: source, Limit: limit}
	}
	return b, nil
}

func fetchURL(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

	resp, err := HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{Source: rawURL, cause: &StatusError{Code: resp.StatusCode, URL: rawURL}}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, URL: rawURL}
	}

	b, err := readLimited(resp.Body, rawURL, maxCSVBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return b, nil
}

// useGhClient returns true if go-gh can find credentials (env token or gh login).
func useGhClient() bool {
	if os.Getenv("GITHUB_TOKEN") != "" || os.Getenv("GH_TOKEN") != "" {
		return true
	}
	_, err := api.DefaultRESTClient()
	return err == nil
}

type contentsResponse struct {
	Type        string `json:"type"`
	Encoding    string `json:"encoding"`
	Content     string `json:"content"`
	DownloadURL string `json:"download_url"`
}

func fetchRepoFileWithGh(ctx context.Context, rp repoPath) ([]byte, error) {
	client, err := api.DefaultRESTClient()
	if err != nil {
		if isGhAuthMissing(err) {
			return nil, &AuthError{Message: "GitHub credentials not found", cause: err}
		}
		return nil, err
	}

	path := fmt.Sprintf("repos/%s/%s/contents/%s", url.PathEscape(rp.Owner), url.PathEscape(rp.Repo), escapePath(rp.Path))
	if rp.Ref != "" {
		path += "?ref=" + url.QueryEscape(rp.Ref)
	}

	var resp contentsResponse
	if err := client.DoWithContext(ctx, http.MethodGet, path, nil, &resp); err != nil {
		var httpErr *api.HTTPError
		if errors.As(err, &httpErr) {
			switch httpErr.StatusCode {
			case http.StatusNotFound:
				return nil, &NotFoundError{Source: rp.String(), cause: err}
			case http.StatusUnauthorized, http.StatusForbidden:
				return nil, &AuthError{Message: httpErr.Message, cause: err}
			}
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", rp, err)
	}
	if resp.Type != "" && resp.Type != "file" {
		return nil, fmt.Errorf("%s is a %s, not a file", rp, resp.Type)
	}

	// The contents API omits content for files over 1MB.
	if resp.Content == "" && resp.DownloadURL != "" {
		return fetchURL(ctx, resp.DownloadURL)
	}
	if resp.Encoding != "" && resp.Encoding != "base64" {
		return nil, fmt.Errorf("unsupported content encoding %q", resp.Encoding)
	}
	b, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(resp.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", rp, err)
	}
	return b, nil
}

// rawBaseURL serves public repository files without credentials.
var rawBaseURL = "https://raw.githubusercontent.com"

func fetchRepoFileRaw(ctx context.Context, rp repoPath) ([]byte, error) {
	ref := rp.Ref
	if ref == "" {
		ref = "HEAD"
	}
	u := fmt.Sprintf("%s/%s/%s/%s/%s", rawBaseURL, url.PathEscape(rp.Owner), url.PathEscape(rp.Repo), url.PathEscape(ref), escapePath(rp.Path))
	b, err := fetchURL(ctx, u)
	if err != nil {
		if IsNotFound(err) {
			// Private repositories also answer 404 without credentials.
			return nil, &NotFoundError{Source: rp.String(), cause: err}
		}
		return nil, err
	}
	return b, nil
}

func (rp repoPath) String() string {
	s := GitHubPrefix + rp.Owner + "/" + rp.Repo + "/" + rp.Path
	if rp.Ref != "" {
		s += "@" + rp.Ref
	}
	return s
}

func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
