package realtime

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestStreamUrl(t *testing.T) {
	var streamUrl string
	var err error

	streamUrl, err = StreamUrl("https://stock.example.com", "/api/v1")
	assert.Equal(t, err, nil)
	assert.Equal(t, streamUrl, "wss://stock.example.com/api/v1/entries/stream")

	streamUrl, err = StreamUrl("http://localhost:8000", "/api/v1/")
	assert.Equal(t, err, nil)
	assert.Equal(t, streamUrl, "ws://localhost:8000/api/v1/entries/stream")

	// absolute base ignores the origin
	streamUrl, err = StreamUrl("", "https://stock.example.com/api/v1")
	assert.Equal(t, err, nil)
	assert.Equal(t, streamUrl, "wss://stock.example.com/api/v1/entries/stream")

	// query and fragment stripped
	streamUrl, err = StreamUrl("", "https://stock.example.com/api/v1?cache=0#top")
	assert.Equal(t, err, nil)
	assert.Equal(t, streamUrl, "wss://stock.example.com/api/v1/entries/stream")

	// already upgraded scheme passes through
	streamUrl, err = StreamUrl("", "wss://stock.example.com/api/v1")
	assert.Equal(t, err, nil)
	assert.Equal(t, streamUrl, "wss://stock.example.com/api/v1/entries/stream")

	_, err = StreamUrl("", "ftp://stock.example.com/api/v1")
	assert.NotEqual(t, err, nil)

	_, err = StreamUrl("", "/api/v1")
	assert.NotEqual(t, err, nil)
}

func TestStreamUrlDeterministic(t *testing.T) {
	a, err := StreamUrl("https://stock.example.com", "/api/v1")
	assert.Equal(t, err, nil)
	b, err := StreamUrl("https://stock.example.com", "/api/v1")
	assert.Equal(t, err, nil)
	assert.Equal(t, a, b)
}
