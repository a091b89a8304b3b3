package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/josephgoksu/CreditDesk/models"
	"github.com/josephgoksu/CreditDesk/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(Config{BaseURL: server.URL, Token: "tok"})
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "not a url"})
	assert.Error(t, err)

	c, err := New(Config{BaseURL: "http://localhost:8000/api/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api", c.BaseURL())
}

func TestClient_Headers(t *testing.T) {
	var gotAuth, gotID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotID = r.Header.Get(RequestIDHeader)
		assert.Equal(t, "/api/banker/credit-requests", r.URL.Path)
		_, _ = w.Write([]byte(`[]`))
	})

	reqs, err := c.ListBankerRequests(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reqs)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Len(t, gotID, 36)

	anon := c.WithToken("")
	_, err = anon.ListBankerRequests(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClient_Login(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		var body models.LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "banker@example.com", body.Email)
		_, _ = w.Write([]byte(`{"token": "t1", "role": "banker", "user_id": "u1"}`))
	})

	resp, err := c.Login(context.Background(), models.LoginRequest{Email: "banker@example.com", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "t1", resp.Token)
	assert.Equal(t, models.RoleBanker, resp.Role)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantMsg  string
		sentinel error
	}{
		{name: "fastapi detail", status: 404, body: `{"detail": "Request not found"}`, wantMsg: "Request not found", sentinel: types.ErrNotFound},
		{name: "unauthorized", status: 401, body: `{"detail": "Invalid token"}`, wantMsg: "Invalid token", sentinel: types.ErrNotLoggedIn},
		{name: "forbidden", status: 403, body: `{"detail": "Forbidden"}`, wantMsg: "Forbidden", sentinel: types.ErrForbidden},
		{
			name:    "validation list",
			status:  422,
			body:    `{"detail": [{"loc": ["body", "amount"], "msg": "field required", "type": "missing"}]}`,
			wantMsg: "amount: field required",
		},
		{name: "plain text", status: 500, body: "Internal   Server\nError", wantMsg: "Internal Server Error"},
		{name: "message field", status: 502, body: `{"message": "upstream down"}`, wantMsg: "upstream down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set(RequestIDHeader, "srv-id")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.GetBankerRequest(context.Background(), "r1")
			require.Error(t, err)

			var apiErr *types.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Equal(t, "srv-id", apiErr.RequestID)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}
}

func TestClient_GetBankerRequestDecodesAgents(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/banker/credit-requests/a b", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": "a b",
			"status": "in_review",
			"created_at": "2025-01-02T10:00:00",
			"updated_at": "2025-01-02T11:00:00Z",
			"client_id": "c1",
			"agents": {"decision": {"score": 0.4, "flags": ["HUMAN_REVIEW_REQUIRED"], "explanations": {"decision_details": {"recommendation": "review"}}}}
		}`))
	})

	req, err := c.GetBankerRequest(context.Background(), "a b")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInReview, req.Status)
	decision := req.Agents.Get("decision")
	require.NotNil(t, decision)
	assert.JSONEq(t, `{"decision_details": {"recommendation": "review"}}`, string(decision.Explanations))
}

func TestClient_BankerActions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/api/banker/credit-requests/r1/comments":
			assert.JSONEq(t, `{"message": "Test commentaire"}`, string(body))
			_, _ = w.Write([]byte(`{"author_id": "u1", "message": "Test commentaire", "created_at": "2025-01-02T10:00:00Z"}`))
		case "/api/banker/credit-requests/r1/decision":
			assert.JSONEq(t, `{"decision": "review", "note": "Besoin de docs"}`, string(body))
			_, _ = w.Write([]byte(`{"status": "in_review", "note": "Besoin de docs"}`))
		case "/api/banker/credit-requests/r1/rerun":
			assert.Equal(t, http.MethodPost, r.Method)
			_, _ = w.Write([]byte(`{"status": "ok", "agents": {"fraud": {"score": 0.1}}}`))
		case "/api/banker/credit-requests/r1/agent-chat":
			assert.JSONEq(t, `{"agent_name": "document", "message": "Que vois-tu?"}`, string(body))
			_, _ = w.Write([]byte(`{"agent_name": "document", "messages": [{"role": "banker", "content": "Que vois-tu?"}, {"role": "agent", "content": "stub-reply"}]}`))
		case "/api/banker/credit-requests/r1/agent-chat/fraud":
			assert.Equal(t, http.MethodGet, r.Method)
			_, _ = w.Write([]byte(`{"messages": []}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	comment, err := c.AddComment(ctx, "r1", models.CommentCreate{Message: "Test commentaire"})
	require.NoError(t, err)
	assert.Equal(t, "u1", comment.AuthorID)

	dec, err := c.Decide(ctx, "r1", models.DecisionCreate{Decision: models.DecisionReview, Note: "Besoin de docs"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInReview, dec.Status)

	rerun, err := c.Rerun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "ok", rerun.Status)
	require.NotNil(t, rerun.Agents.Get("fraud"))

	chat, err := c.AskAgent(ctx, "r1", models.AgentChatRequest{AgentName: "document", Message: "Que vois-tu?"})
	require.NoError(t, err)
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, "agent", chat.Messages[1].Role)

	transcript, err := c.AgentTranscript(ctx, "r1", "fraud")
	require.NoError(t, err)
	assert.Equal(t, "fraud", transcript.AgentName)
	assert.Empty(t, transcript.Messages)
}

func TestClient_CreateRequestJSONAndMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/client/credit-requests":
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		case "/api/client/credit-requests/upload", "/api/client/credit-requests/r7/resubmit/upload":
			if assert.NoError(t, r.ParseMultipartForm(1<<20)) {
				assert.Contains(t, r.FormValue("payload"), `"amount":5000`)
				files := r.MultipartForm.File["files"]
				if assert.Len(t, files, 1) {
					assert.Equal(t, "salary.pdf", files[0].Filename)
				}
			}
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id": "r7", "status": "pending"}`))
	})
	ctx := context.Background()
	body := models.CreditRequestCreate{Amount: 5000, DurationMonths: 24, EmploymentType: "salaried", ContractType: "CDI", FamilyStatus: "single"}

	created, err := c.CreateRequest(ctx, body, nil)
	require.NoError(t, err)
	assert.Equal(t, "r7", created.ID)

	_, err = c.CreateRequest(ctx, body, []Upload{{Name: "salary.pdf", Content: strings.NewReader("%PDF")}})
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/docs/salary.pdf", []byte("%PDF"), 0o644))
	uploads, closeAll, err := OpenUploads(fs, []string{"/docs/salary.pdf"})
	require.NoError(t, err)
	defer closeAll()

	_, err = c.ResubmitRequest(ctx, "r7", body, uploads)
	require.NoError(t, err)
}

func TestOpenUploads_Missing(t *testing.T) {
	_, closeAll, err := OpenUploads(afero.NewMemMapFs(), []string{"/nope.pdf"})
	require.Error(t, err)
	closeAll()
}

func TestClient_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListClientRequests(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
