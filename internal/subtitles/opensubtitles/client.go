package opensubtitles

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"autotagger/internal/services"
)

const (
	defaultBaseURL     = "https://api.opensubtitles.com/api/v1"
	defaultUserAgent   = "plex-autotagger"
	defaultHTTPTimeout = 45 * time.Second
	downloadMemoTTL    = 6 * time.Hour
)

// CredentialsFunc supplies the account username and password on first login.
type CredentialsFunc func(ctx context.Context) (username, password string, err error)

// Config describes the OpenSubtitles client configuration.
type Config struct {
	APIKey    string
	UserAgent string
	BaseURL   string
	Username  string
	Password  string
	// Credentials is consulted when Username or Password is empty.
	Credentials CredentialsFunc
	HTTPClient  *http.Client
	// MinInterval overrides the spacing between API calls. Negative disables pacing.
	MinInterval time.Duration
}

// Client wraps the OpenSubtitles REST API.
type Client struct {
	apiKey      string
	userAgent   string
	baseURL     *url.URL
	http        *http.Client
	username    string
	password    string
	credentials CredentialsFunc
	pace        *pacer
	downloads   *cache.Cache

	tokenMu sync.RWMutex
	token   string
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "opensubtitles", "init", "api key is required", nil)
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "opensubtitles", "init", "parse base url", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	interval := cfg.MinInterval
	if interval == 0 {
		interval = MinInterval
	}
	return &Client{
		apiKey:      apiKey,
		userAgent:   userAgent,
		baseURL:     baseURL,
		http:        httpClient,
		username:    strings.TrimSpace(cfg.Username),
		password:    cfg.Password,
		credentials: cfg.Credentials,
		pace:        newPacer(interval),
		downloads:   cache.New(downloadMemoTTL, time.Hour),
	}, nil
}

// SearchRequest describes subtitle discovery filters.
type SearchRequest struct {
	TMDBID    int64
	Languages []string
}

// Uploader identifies who published a subtitle.
type Uploader struct {
	Name string `json:"name"`
	Rank string `json:"rank"`
}

// Subtitle represents a subtitle candidate returned by OpenSubtitles.
type Subtitle struct {
	ID              string
	FileID          int64
	FileName        string
	Language        string
	Release         string
	Uploader        Uploader
	Downloads       int
	HearingImpaired bool
}

// Label renders the subtitle the way selection prompts display it.
func (s Subtitle) Label() string {
	name := s.FileName
	if name == "" {
		name = s.Release
	}
	return fmt.Sprintf("lang: %s, name: %s, uploader: %s (%s)", s.Language, name, s.Uploader.Name, s.Uploader.Rank)
}

// SearchResponse bundles the subtitles returned by a query.
type SearchResponse struct {
	Subtitles []Subtitle
	Total     int
}

// DownloadResult captures the downloaded subtitle payload.
type DownloadResult struct {
	Data        []byte
	FileName    string
	DownloadURL string
}

// Login authenticates once per process and returns the session token. The
// token is reused by every later call; it is never refreshed.
func (c *Client) Login(ctx context.Context) (string, error) {
	if c == nil {
		return "", errors.New("opensubtitles: client is nil")
	}
	c.tokenMu.RLock()
	token := c.token
	c.tokenMu.RUnlock()
	if token != "" {
		return token, nil
	}

	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	if c.token != "" {
		return c.token, nil
	}

	username, password := c.username, c.password
	if (username == "" || password == "") && c.credentials != nil {
		var err error
		username, password, err = c.credentials(ctx)
		if err != nil {
			return "", services.Wrap(services.ErrAuthentication, "opensubtitles", "login", "read credentials", err)
		}
	}
	if strings.TrimSpace(username) == "" || password == "" {
		return "", services.Wrap(services.ErrAuthentication, "opensubtitles", "login", "username and password are required", nil)
	}

	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "opensubtitles", "login", "encode login request", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL.JoinPath("login").String(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var payload loginResponse
	if err := c.do(req, "login", &payload); err != nil {
		return "", err
	}
	if payload.Token == "" {
		return "", services.Wrap(services.ErrAuthentication, "opensubtitles", "login", "login response missing token", nil)
	}
	c.token = payload.Token
	return c.token, nil
}

// Search queries the OpenSubtitles API for subtitles of a TMDB episode.
func (c *Client) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	if c == nil {
		return SearchResponse{}, errors.New("opensubtitles: client is nil")
	}
	if req.TMDBID <= 0 {
		return SearchResponse{}, services.Wrap(services.ErrValidation, "opensubtitles", "search", "tmdb id must be positive", nil)
	}
	endpoint := c.baseURL.JoinPath("subtitles")
	params := url.Values{}
	params.Set("tmdb_id", strconv.FormatInt(req.TMDBID, 10))
	if len(req.Languages) > 0 {
		params.Set("languages", strings.Join(req.Languages, ","))
	}
	endpoint.RawQuery = params.Encode()

	httpReq, err := c.newRequest(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return SearchResponse{}, err
	}
	var payload searchResponse
	if err := c.do(httpReq, "search", &payload); err != nil {
		return SearchResponse{}, err
	}

	subtitles := make([]Subtitle, 0, len(payload.Data))
	for _, entry := range payload.Data {
		file, ok := entry.Attributes.primaryFile()
		if !ok {
			continue
		}
		subtitles = append(subtitles, Subtitle{
			ID:              entry.ID,
			FileID:          file.FileID,
			FileName:        file.FileName,
			Language:        entry.Attributes.Language,
			Release:         entry.Attributes.Release,
			Uploader:        entry.Attributes.Uploader,
			Downloads:       entry.Attributes.DownloadCount,
			HearingImpaired: entry.Attributes.HearingImpaired,
		})
	}
	return SearchResponse{Subtitles: subtitles, Total: payload.Meta.Total}, nil
}

// Download retrieves the subtitle contents for the specified subtitle file.
func (c *Client) Download(ctx context.Context, fileID int64) (DownloadResult, error) {
	if c == nil {
		return DownloadResult{}, errors.New("opensubtitles: client is nil")
	}
	if fileID <= 0 {
		return DownloadResult{}, services.Wrap(services.ErrValidation, "opensubtitles", "download", "invalid file id", nil)
	}
	memoKey := strconv.FormatInt(fileID, 10)
	if cached, ok := c.downloads.Get(memoKey); ok {
		if result, ok := cached.(DownloadResult); ok {
			result.Data = append([]byte(nil), result.Data...)
			return result, nil
		}
	}

	token, err := c.Login(ctx)
	if err != nil {
		return DownloadResult{}, err
	}
	payload, err := json.Marshal(map[string]any{"file_id": fileID})
	if err != nil {
		return DownloadResult{}, services.Wrap(services.ErrValidation, "opensubtitles", "download", "encode download request", err)
	}
	endpoint := c.baseURL.JoinPath("download")
	httpReq, err := c.newRequest(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return DownloadResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	var info downloadResponse
	if err := c.do(httpReq, "download", &info); err != nil {
		return DownloadResult{}, err
	}
	if info.Link == "" {
		return DownloadResult{}, services.Wrap(services.ErrNetwork, "opensubtitles", "download", "download response missing link", nil)
	}
	downloadURL, err := endpoint.Parse(info.Link)
	if err != nil {
		return DownloadResult{}, services.Wrap(services.ErrNetwork, "opensubtitles", "download", "parse download url", err)
	}

	dataReq, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL.String(), nil)
	if err != nil {
		return DownloadResult{}, services.Wrap(services.ErrValidation, "opensubtitles", "download", "build link request", err)
	}
	dataReq.Header.Set("User-Agent", c.userAgent)
	dataResp, err := c.http.Do(dataReq)
	if err != nil {
		return DownloadResult{}, services.Wrap(services.ErrNetwork, "opensubtitles", "download", "fetch subtitle payload", err)
	}
	defer dataResp.Body.Close()
	if dataResp.StatusCode >= 400 {
		return DownloadResult{}, statusError("download", dataResp)
	}
	data, err := io.ReadAll(dataResp.Body)
	if err != nil {
		return DownloadResult{}, services.Wrap(services.ErrNetwork, "opensubtitles", "download", "read subtitle data", err)
	}

	result := DownloadResult{
		Data:        data,
		FileName:    info.FileName,
		DownloadURL: downloadURL.String(),
	}
	c.downloads.SetDefault(memoKey, DownloadResult{
		Data:        append([]byte(nil), data...),
		FileName:    result.FileName,
		DownloadURL: result.DownloadURL,
	})
	return result, nil
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	if err := c.pace.wait(ctx); err != nil {
		return nil, services.Wrap(services.ErrCancelled, "opensubtitles", strings.ToLower(method), "request cancelled", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "opensubtitles", strings.ToLower(method), "build request", err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, op string, dest any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return services.Wrap(services.ErrNetwork, "opensubtitles", op, "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return statusError(op, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return services.Wrap(services.ErrNetwork, "opensubtitles", op, "decode response", err)
	}
	return nil
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	message := fmt.Sprintf("%s failed (%s): %s", op, resp.Status, strings.TrimSpace(string(body)))
	marker := services.ErrNetwork
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		marker = services.ErrAuthentication
	case http.StatusNotFound:
		marker = services.ErrNotFound
	}
	return services.Wrap(marker, "opensubtitles", op, message, nil)
}

type loginResponse struct {
	Token  string `json:"token"`
	Status int    `json:"status"`
}

type searchResponse struct {
	Data []struct {
		ID         string           `json:"id"`
		Attributes searchAttributes `json:"attributes"`
	} `json:"data"`
	Meta struct {
		Total int `json:"total_count"`
	} `json:"meta"`
}

type searchAttributes struct {
	Language        string       `json:"language"`
	Release         string       `json:"release"`
	DownloadCount   int          `json:"download_count"`
	HearingImpaired bool         `json:"hearing_impaired"`
	Uploader        Uploader     `json:"uploader"`
	Files           []searchFile `json:"files"`
}

func (a searchAttributes) primaryFile() (searchFile, bool) {
	for _, file := range a.Files {
		if file.FileID > 0 {
			return file, true
		}
	}
	return searchFile{}, false
}

type searchFile struct {
	FileID   int64  `json:"file_id"`
	FileName string `json:"file_name"`
}

type downloadResponse struct {
	Link     string `json:"link"`
	FileName string `json:"file_name"`
}
