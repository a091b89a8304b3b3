package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/josephgoksu/CreditDesk/models"
)

const (
	clientRequests = "/client/credit-requests"
	bankerRequests = "/banker/credit-requests"
)

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, body models.LoginRequest) (*models.LoginResponse, error) {
	var out models.LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("login: backend returned no token")
	}
	return &out, nil
}

// ListClientRequests returns the signed-in client's requests.
func (c *Client) ListClientRequests(ctx context.Context) ([]models.CreditRequest, error) {
	var out []models.CreditRequest
	if err := c.doJSON(ctx, http.MethodGet, clientRequests, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetClientRequest returns one of the client's requests.
func (c *Client) GetClientRequest(ctx context.Context, id string) (*models.CreditRequest, error) {
	var out models.CreditRequest
	if err := c.doJSON(ctx, http.MethodGet, requestPath(clientRequests, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRequest submits a new credit request. With files it uses the
// multipart upload endpoint.
func (c *Client) CreateRequest(ctx context.Context, body models.CreditRequestCreate, files []Upload) (*models.CreditRequest, error) {
	var out models.CreditRequest
	var err error
	if len(files) > 0 {
		err = c.doMultipart(ctx, clientRequests+"/upload", body, files, &out)
	} else {
		err = c.doJSON(ctx, http.MethodPost, clientRequests, body, &out)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ResubmitRequest replaces the data of an existing request, which reruns the
// agents on it.
func (c *Client) ResubmitRequest(ctx context.Context, id string, body models.CreditRequestCreate, files []Upload) (*models.CreditRequest, error) {
	var out models.CreditRequest
	var err error
	if len(files) > 0 {
		err = c.doMultipart(ctx, requestPath(clientRequests, id, "resubmit", "upload"), body, files, &out)
	} else {
		err = c.doJSON(ctx, http.MethodPost, requestPath(clientRequests, id, "resubmit"), body, &out)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBankerRequests returns every request visible to the banker.
func (c *Client) ListBankerRequests(ctx context.Context) ([]models.BankerRequest, error) {
	var out []models.BankerRequest
	if err := c.doJSON(ctx, http.MethodGet, bankerRequests, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBankerRequest returns the banker view of a request.
func (c *Client) GetBankerRequest(ctx context.Context, id string) (*models.BankerRequest, error) {
	var out models.BankerRequest
	if err := c.doJSON(ctx, http.MethodGet, requestPath(bankerRequests, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddComment posts a banker comment.
func (c *Client) AddComment(ctx context.Context, id string, body models.CommentCreate) (*models.Comment, error) {
	var out models.Comment
	if err := c.doJSON(ctx, http.MethodPost, requestPath(bankerRequests, id, "comments"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Decide records a banker decision.
func (c *Client) Decide(ctx context.Context, id string, body models.DecisionCreate) (*models.DecisionResponse, error) {
	var out models.DecisionResponse
	if err := c.doJSON(ctx, http.MethodPost, requestPath(bankerRequests, id, "decision"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AskAgent sends a follow-up question to one agent and returns the updated
// transcript.
func (c *Client) AskAgent(ctx context.Context, id string, body models.AgentChatRequest) (*models.AgentChatResponse, error) {
	var out models.AgentChatResponse
	if err := c.doJSON(ctx, http.MethodPost, requestPath(bankerRequests, id, "agent-chat"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AgentTranscript returns the conversation with one agent.
func (c *Client) AgentTranscript(ctx context.Context, id, agent string) (*models.AgentChatResponse, error) {
	var out models.AgentChatResponse
	path := requestPath(bankerRequests, id, "agent-chat", url.PathEscape(agent))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.AgentName == "" {
		out.AgentName = agent
	}
	return &out, nil
}

// Rerun runs every agent again on a request.
func (c *Client) Rerun(ctx context.Context, id string) (*models.RerunResponse, error) {
	var out models.RerunResponse
	if err := c.doJSON(ctx, http.MethodPost, requestPath(bankerRequests, id, "rerun"), struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
