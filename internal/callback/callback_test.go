package callback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteAdmitted(t *testing.T) {
	var received Payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/complete", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL, []byte("test-secret"))
	result, err := client.Complete(context.Background(), Payload{
		VideoID: "v1",
		Hashes:  []string{"aaaa"},
	})

	require.NoError(t, err)
	assert.Equal(t, ResultAdmitted, result)
	assert.Equal(t, "v1", received.VideoID)
}

func TestCompleteDuplicate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer server.Close()

	client := New(server.URL, []byte("test-secret"))
	result, err := client.Complete(context.Background(), Payload{VideoID: "v2"})

	require.NoError(t, err)
	assert.Equal(t, ResultDuplicate, result)
}

func TestCompleteRetryableOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, []byte("test-secret"))
	result, err := client.Complete(context.Background(), Payload{VideoID: "v3"})

	assert.Error(t, err)
	assert.Equal(t, ResultRetryableError, result)
}

func TestCompleteSendsSignedBearerToken(t *testing.T) {
	secret := []byte("test-secret")
	var authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL, secret)
	_, err := client.Complete(context.Background(), Payload{VideoID: "v4"})
	require.NoError(t, err)

	require.True(t, len(authHeader) > len("Bearer "))
	tokenString := authHeader[len("Bearer "):]

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	require.NoError(t, err)
	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "v4", claims["video_id"])
}
