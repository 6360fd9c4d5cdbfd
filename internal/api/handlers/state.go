package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
)

// OAuth state carries the flow name ("login" or "register") across the
// provider redirect, prefixed with a random nonce so every round trip is
// unique: <nonce>.<base64url(flow)>.

func newOAuthState(flow string) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(nonce) + "." +
		base64.RawURLEncoding.EncodeToString([]byte(flow)), nil
}

func parseOAuthState(state string) (string, error) {
	_, encoded, ok := strings.Cut(state, ".")
	if !ok {
		return "", errors.New("malformed oauth state")
	}
	flow, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", errors.New("malformed oauth state")
	}
	return string(flow), nil
}
