package logging_test

import (
	"io"
	"strings"
	"testing"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/logging"
	"github.com/stretchr/testify/assert"
)

func TestTailReturnsRecentEntriesInOrder(t *testing.T) {
	log := logging.New(io.Discard, false, 100)

	var w strings.Builder
	log.Tail(&w, 100)
	assert.Equal(t, "", w.String())

	log.Info("this is a test", "check", "test")
	w.Reset()
	log.Tail(&w, 100)
	assert.Equal(t, "test: this is a test\n", w.String())

	log.Info("this is another test", "check", "test2")

	w.Reset()
	log.Tail(&w, 100) // asking for too many entries is fine
	assert.Equal(t, "test: this is a test\ntest2: this is another test\n", w.String())

	w.Reset()
	log.Tail(&w, 2) // asking for exactly the right number is fine
	assert.Equal(t, "test: this is a test\ntest2: this is another test\n", w.String())

	w.Reset()
	log.Tail(&w, 1) // fewer entries returns only the most recent
	assert.Equal(t, "test2: this is another test\n", w.String())

	w.Reset()
	log.Tail(&w, 0)
	assert.Equal(t, "", w.String())
}

func TestTailEvictsOldestPastCapacity(t *testing.T) {
	log := logging.New(io.Discard, false, 2)

	log.Info("first", "check", "a")
	log.Info("second", "check", "b")
	log.Info("third", "check", "c")

	var w strings.Builder
	log.Tail(&w, 10)
	assert.Equal(t, "b: second\nc: third\n", w.String())
}

func TestVerboseAlsoWritesToStderr(t *testing.T) {
	var stderr strings.Builder
	log := logging.New(&stderr, true, 10)

	log.Debug("trace line", "check", "verbose-test")

	assert.Contains(t, stderr.String(), "trace line")
}
