package utils

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFromDBURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"postgresql://user:pw@db:5433/fts", "db:5433"},
		{"postgresql://user:pw@db/fts", "db:5432"},
		{"postgres://db:6000/fts?sslmode=disable", "db:6000"},
		{"postgresql://user@localhost", "localhost:5432"},
		{"mysql://db/fts", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFromDBURL(tt.url))
		})
	}
}

func TestExtractFromNatsURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"nats://localhost:4222", "localhost:4222"},
		{"nats://nats", "nats:4222"},
		{"nats://u:p@a:1,nats://b:2", "a:1"},
		{"tls://secure:4443/", "secure:4443"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFromNatsURL(tt.url))
		})
	}
}

func TestWaitForTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	assert.NoError(t, WaitForTCP(ln.Addr().String(), time.Second))

	addr := ln.Addr().String()
	ln.Close()
	assert.Error(t, WaitForTCP(addr, 300*time.Millisecond))
}
