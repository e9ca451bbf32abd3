package publish

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractURL_FindsHTTPSURLInText(t *testing.T) {
	text := "All done, the article is live at https://cms.example.com/articles/42 now."
	assert.Equal(t, "https://cms.example.com/articles/42", extractURL(text))
}

func TestExtractURL_NoURLReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", extractURL("nothing to see here"))
}

func TestUnmarshalToolInput_ParsesClickAction(t *testing.T) {
	var action computerAction
	err := unmarshalToolInput([]byte(`{"action":"left_click","coordinate":[10,20]}`), &action)
	require.NoError(t, err)
	assert.Equal(t, "left_click", action.Action)
	assert.Equal(t, [2]int{10, 20}, action.Coordinate)
}

func TestUnmarshalToolInput_ParsesTypeAction(t *testing.T) {
	var action computerAction
	err := unmarshalToolInput([]byte(`{"action":"type","text":"hello"}`), &action)
	require.NoError(t, err)
	assert.Equal(t, "type", action.Action)
	assert.Equal(t, "hello", action.Text)
}

func TestUnmarshalToolInput_InvalidJSONErrors(t *testing.T) {
	var action computerAction
	err := unmarshalToolInput([]byte(`not json`), &action)
	assert.Error(t, err)
}

func TestEstimateTurnCost_ComputesFromTokenUsage(t *testing.T) {
	cost := estimateTurnCost(1_000_000, 1_000_000)
	assert.InDelta(t, 18.0, cost, 0.0001)
}

func TestEstimateTurnCost_ZeroTokensIsZero(t *testing.T) {
	assert.Zero(t, estimateTurnCost(0, 0))
}

func TestWriteScreenshot_WritesFileToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, writeScreenshot(path, []byte("fake-png-bytes")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fake-png-bytes", string(data))
}
