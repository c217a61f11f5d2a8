package monitor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"scentdb/internal/pipeline"
)

func TestHubBuffersEventTail(t *testing.T) {
	h := NewHub()

	for i := 0; i < historySize+20; i++ {
		h.Publish(pipeline.Event{Stage: "import", Message: fmt.Sprintf("batch %d", i)})
	}

	tail := h.History()
	assert.Len(t, tail, historySize)
	assert.Equal(t, "batch 20", tail[0].Message)
	assert.Equal(t, fmt.Sprintf("batch %d", historySize+19), tail[len(tail)-1].Message)
}

func TestHubStats(t *testing.T) {
	h := NewHub()
	h.Publish(pipeline.Event{Stage: "collect"})

	s := h.Stats()
	assert.Zero(t, s.Clients)
	assert.Equal(t, 1, s.Events)
}
