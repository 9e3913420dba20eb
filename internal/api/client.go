package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/madokanomi/publimatch-cli/internal/types"
)

// APIError represents a non-2xx response from the backend.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" && e.Message != "" {
		return fmt.Sprintf("publimatch api error: %s (%d): %s", e.Code, e.Status, e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("publimatch api error: %s (%d)", e.Code, e.Status)
	}
	if e.Message != "" {
		return fmt.Sprintf("publimatch api error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("publimatch api error (%d)", e.Status)
}

type apiErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client talks to the publimatch backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs a backend client. Token may be empty for
// unauthenticated calls (login).
func NewClient(baseURL, token string) (*Client, error) {
	normalized, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: normalized,
		token:   token,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}, nil
}

// WithToken returns a copy of the client authenticated as the holder of
// the given token.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// NormalizeBaseURL normalizes a backend base URL and ensures it has a scheme.
func NormalizeBaseURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("backend url cannot be empty")
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid backend url: %w", err)
	}
	if parsed.Scheme == "" {
		return "", fmt.Errorf("backend url must include scheme (https://)")
	}
	value = strings.TrimRight(value, "/")
	return value, nil
}

// LoginRequest describes the login call.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful authentication.
type LoginResponse struct {
	ID           string     `json:"id"`
	DisplayName  string     `json:"display_name"`
	Role         types.Role `json:"role"`
	CompanyAdmin bool       `json:"company_admin"`
	Token        string     `json:"token"`
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var resp LoginResponse
	req := LoginRequest{Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", nil, req, &resp); err != nil {
		return LoginResponse{}, err
	}
	return resp, nil
}

// Notifications fetches the caller's notification list, newest first.
func (c *Client) Notifications(ctx context.Context) ([]types.NotificationItem, error) {
	var resp []types.NotificationItem
	if err := c.doJSON(ctx, http.MethodGet, "/notifications", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// DeleteNotification acknowledges a notification server-side.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/notifications/"+url.PathEscape(id), nil, nil, nil)
}

// Conversations fetches the caller's conversations, most recently active first.
func (c *Client) Conversations(ctx context.Context) ([]types.ConversationSummary, error) {
	var resp []types.ConversationSummary
	if err := c.doJSON(ctx, http.MethodGet, "/chat/conversations", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Messages fetches the message list of one conversation.
func (c *Client) Messages(ctx context.Context, conversationID string) ([]types.Message, error) {
	var resp []types.Message
	path := "/chat/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

type sendMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	ReceiverID     string `json:"receiver_id"`
	Text           string `json:"text"`
}

// SendMessage posts a message and returns the server echo.
func (c *Client) SendMessage(ctx context.Context, conversationID, receiverID, text string) (types.Message, error) {
	var resp types.Message
	req := sendMessageRequest{ConversationID: conversationID, ReceiverID: receiverID, Text: text}
	if err := c.doJSON(ctx, http.MethodPost, "/chat/messages", nil, req, &resp); err != nil {
		return types.Message{}, err
	}
	return resp, nil
}

type ensureConversationRequest struct {
	TargetUserID string `json:"target_user_id"`
}

// EnsureConversation gets or creates the conversation with the target user.
func (c *Client) EnsureConversation(ctx context.Context, targetUserID string) (types.ConversationSummary, error) {
	var resp types.ConversationSummary
	req := ensureConversationRequest{TargetUserID: targetUserID}
	if err := c.doJSON(ctx, http.MethodPost, "/chat/conversations", nil, req, &resp); err != nil {
		return types.ConversationSummary{}, err
	}
	return resp, nil
}

// Campaign fetches full campaign details.
func (c *Client) Campaign(ctx context.Context, id string) (types.Campaign, error) {
	var resp types.Campaign
	if err := c.doJSON(ctx, http.MethodGet, "/campaigns/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return types.Campaign{}, err
	}
	return resp, nil
}

// FinalizeCampaign confirms a finalize request.
func (c *Client) FinalizeCampaign(ctx context.Context, id string) error {
	path := "/campaigns/" + url.PathEscape(id) + "/finalize"
	return c.doJSON(ctx, http.MethodPut, path, nil, nil, nil)
}

// RejectFinalize declines a finalize request.
func (c *Client) RejectFinalize(ctx context.Context, id string) error {
	path := "/campaigns/" + url.PathEscape(id) + "/reject"
	return c.doJSON(ctx, http.MethodPatch, path, nil, nil, nil)
}

type inviteStatusRequest struct {
	Status types.InviteStatus `json:"status"`
}

// UpdateInviteStatus records the caller's response to a campaign invitation.
func (c *Client) UpdateInviteStatus(ctx context.Context, inviteID string, status types.InviteStatus) error {
	path := "/invites/" + url.PathEscape(inviteID) + "/status"
	return c.doJSON(ctx, http.MethodPatch, path, nil, inviteStatusRequest{Status: status}, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, reqBody any, respBody any) error {
	endpoint, err := c.buildURL(path, query)
	if err != nil {
		return err
	}

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	// Correlates client requests with backend logs.
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload apiErrorPayload
		if err := json.Unmarshal(respData, &payload); err == nil {
			apiErr.Code = payload.Error
			apiErr.Message = payload.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(respData))
		}
		return apiErr
	}

	if respBody == nil {
		return nil
	}
	if len(respData) == 0 {
		return nil
	}
	return json.Unmarshal(respData, respBody)
}

func (c *Client) buildURL(path string, query url.Values) (string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	endpoint := base.ResolveReference(ref)
	if query != nil && len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}
	return endpoint.String(), nil
}
