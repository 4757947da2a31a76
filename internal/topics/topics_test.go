package topics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBundledCatalog(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"7", "8"}, c.Grades())
	assert.Contains(t, c.Topics("7"), "Geometry")
	assert.Contains(t, c.Subtopics("8", "Geometry"), "Pythagorean Theorem")
	assert.Nil(t, c.Topics("12"))
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.NotEmpty(t, c.Grades())
}

func TestLoadCustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"9": {"Physics": ["Motion"]}}`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"9"}, c.Grades())
	assert.Equal(t, []string{"Motion"}, c.Subtopics("9", "Physics"))
}

func TestLoadRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"9": `), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.NoError(t, c.Validate("7", map[string][]string{
		"Geometry": {"Triangles"},
	}))
	assert.NoError(t, c.Validate("7", map[string][]string{
		"Statistics": nil, // whole topic
	}))
	assert.Error(t, c.Validate("12", map[string][]string{"Geometry": nil}))
	assert.Error(t, c.Validate("7", map[string][]string{"Chemistry": nil}))
	assert.Error(t, c.Validate("7", map[string][]string{"Geometry": {"Calculus"}}))
	assert.Error(t, c.Validate("7", map[string][]string{}))
}
