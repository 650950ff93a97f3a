package twilio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendToSender(t *testing.T) {
	var gotPath, gotUser, gotPass string
	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"To":   r.PostFormValue("To"),
			"From": r.PostFormValue("From"),
			"Body": r.PostFormValue("Body"),
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient("AC123", "secret", "+15550001111", "+15559998888", nil)
	client.baseURL = server.URL

	err := client.SendToSender(context.Background(), "+15551234567", "Done!")

	require.NoError(t, err)
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", gotPath)
	assert.Equal(t, "AC123", gotUser)
	assert.Equal(t, "secret", gotPass)
	assert.Equal(t, "+15551234567", gotForm["To"])
	assert.Equal(t, "+15550001111", gotForm["From"])
	assert.Equal(t, "Done!", gotForm["Body"])
}

func TestClient_SendToReceiverUsesConfiguredNumber(t *testing.T) {
	var gotTo string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotTo = r.PostFormValue("To")
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient("AC123", "secret", "+15550001111", "+15559998888", nil)
	client.baseURL = server.URL

	require.NoError(t, client.SendToReceiver(context.Background(), "summary"))
	assert.Equal(t, "+15559998888", gotTo)
}

func TestClient_SendErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message": "invalid number"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient("AC123", "secret", "+15550001111", "+15559998888", nil)
	client.baseURL = server.URL

	err := client.SendToSender(context.Background(), "bogus", "hi")
	assert.ErrorContains(t, err, "twilio API error: 400")
}
