package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/vise/api/schemas"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissionsArray(t *testing.T) {
	missionsPath = writeTemp(t, "missions.json", `[
		{"target_url": "https://a.test/", "intents": [
			{"action": "CLICK", "target_locator": "#go"},
			{"action": "TYPE", "target_locator": "//input", "payload": "hello"}
		]},
		{"target_url": "https://b.test/", "intents": [
			{"action": "SCROLL", "scroll": {"direction": "down", "distance": 500}}
		]}
	]`)
	targetURL = ""
	t.Cleanup(func() { missionsPath, targetURL = "", "" })

	missions, err := loadMissions()
	require.NoError(t, err)
	require.Len(t, missions, 2)
	assert.Equal(t, "https://a.test/", missions[0].TargetURL)
	assert.Equal(t, schemas.ActionClick, missions[0].Intents[0].Action)
	assert.Equal(t, "hello", missions[0].Intents[1].Payload)
	require.NotNil(t, missions[1].Intents[0].Scroll)
	assert.Equal(t, 500.0, missions[1].Intents[0].Scroll.Distance)
}

func TestLoadMissionsSingleURLWithIntentList(t *testing.T) {
	missionsPath = writeTemp(t, "intents.json", `[
		{"action": "WAIT", "wait_ms": 250}
	]`)
	targetURL = "https://c.test/"
	t.Cleanup(func() { missionsPath, targetURL = "", "" })

	missions, err := loadMissions()
	require.NoError(t, err)
	require.Len(t, missions, 1)
	assert.Equal(t, "https://c.test/", missions[0].TargetURL)
	assert.Equal(t, schemas.ActionWait, missions[0].Intents[0].Action)
	assert.Equal(t, 250, missions[0].Intents[0].WaitMs)
}

func TestLoadMissionsMissingTargetURL(t *testing.T) {
	missionsPath = writeTemp(t, "missions.json", `[{"intents": []}]`)
	targetURL = ""
	t.Cleanup(func() { missionsPath, targetURL = "", "" })

	_, err := loadMissions()
	assert.ErrorContains(t, err, "target_url")
}

func TestLoadMissionsBadJSON(t *testing.T) {
	missionsPath = writeTemp(t, "missions.json", `{not json`)
	targetURL = ""
	t.Cleanup(func() { missionsPath, targetURL = "", "" })

	_, err := loadMissions()
	assert.Error(t, err)
}
