package peppyrus_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/peppol-bookkeeping/internal/peppyrus"
)

func TestSend(t *testing.T) {
	var gotPath, gotKey, gotContentType string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"messageId":"msg-123"}`))
	}))
	defer srv.Close()

	client := peppyrus.NewClient("secret", peppyrus.WithBaseURL(srv.URL))

	response, err := client.Send(context.Background(), []byte("<Invoice/>"))
	require.NoError(t, err)

	assert.Equal(t, "/v1/message/send", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "application/xml", gotContentType)
	assert.Equal(t, "<Invoice/>", string(gotBody))
	assert.Contains(t, response, "msg-123")
}

func TestSendGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("bad key"))
	}))
	defer srv.Close()

	client := peppyrus.NewClient("wrong", peppyrus.WithBaseURL(srv.URL))

	_, err := client.Send(context.Background(), []byte("<Invoice/>"))
	var apiErr *peppyrus.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "bad key")
}

func TestListInbox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/message/list", r.URL.Path)
		assert.Equal(t, "INBOX", r.URL.Query().Get("folder"))
		json.NewEncoder(w).Encode([]peppyrus.Message{
			{ID: "m-1", Sender: "0208:0123456789", Date: "2026-03-01"},
			{ID: "m-2", Sender: "0208:0987654321", Date: "2026-03-02"},
		})
	}))
	defer srv.Close()

	client := peppyrus.NewClient("key", peppyrus.WithBaseURL(srv.URL))

	messages, err := client.ListInbox(context.Background())
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "m-1", messages[0].ID)
	assert.Equal(t, "0208:0987654321", messages[1].Sender)
}

func TestListInboxEmptyOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := peppyrus.NewClient("key", peppyrus.WithBaseURL(srv.URL))

	messages, err := client.ListInbox(context.Background())
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestGetDocument(t *testing.T) {
	document := base64.StdEncoding.EncodeToString([]byte("<Invoice>payload</Invoice>"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/message/m-42", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"document": document})
	}))
	defer srv.Close()

	client := peppyrus.NewClient("key", peppyrus.WithBaseURL(srv.URL))

	raw, err := client.GetDocument(context.Background(), "m-42")
	require.NoError(t, err)
	assert.Equal(t, "<Invoice>payload</Invoice>", string(raw))
}

func TestGetDocumentMissingPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	client := peppyrus.NewClient("key", peppyrus.WithBaseURL(srv.URL))

	_, err := client.GetDocument(context.Background(), "m-1")
	assert.ErrorIs(t, err, peppyrus.ErrNoDocument)
}

func TestGetDocumentGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := peppyrus.NewClient("key", peppyrus.WithBaseURL(srv.URL))

	_, err := client.GetDocument(context.Background(), "m-1")
	var apiErr *peppyrus.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := peppyrus.NewClient("key", peppyrus.WithBaseURL(srv.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListInbox(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
