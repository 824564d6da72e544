package agent

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainAllowed(t *testing.T) {
	allowed := []string{
		"https://tuwien.at/studium",
		"https://www.tuwien.at/studium",
		"https://tiss.tuwien.ac.at/course/courseDetails.xhtml",
		"https://vowi.fsinf.at/wiki/TU_Wien",
		"http://htu.at",
	}
	for _, u := range allowed {
		assert.True(t, DomainAllowed(u), "should allow %s", u)
	}

	rejected := []string{
		"https://evil.example.com",
		"https://tuwien.at.evil.example.com",
		"https://nottuwien.at",
		"https://sub.winf.at",
		"not a url at all ://",
		"",
	}
	for _, u := range rejected {
		assert.False(t, DomainAllowed(u), "should reject %s", u)
	}
}

func TestURLToolRejectsDisallowedDomainWithoutNetwork(t *testing.T) {
	tool := NewURLSummarizeTool(nil, nil)

	args, _ := json.Marshal(map[string]string{"url": "https://evil.example.com/page"})
	out := tool.Invoke(context.Background(), json.RawMessage(args))

	assert.Contains(t, out, "URL domain not allowed")
	assert.Contains(t, out, "tuwien.at", "the error should name the permitted domains")
}

func TestURLToolInvalidArguments(t *testing.T) {
	tool := NewURLSummarizeTool(nil, nil)

	out := tool.Invoke(context.Background(), json.RawMessage("not json"))
	assert.Contains(t, out, "invalid arguments")
}

func TestIsTISSHost(t *testing.T) {
	assert.True(t, isTISSHost("tiss.tuwien.ac.at"))
	assert.True(t, isTISSHost("www.tiss.tuwien.ac.at"))
	assert.False(t, isTISSHost("tuwien.at"))
}

func TestNewRequestTokenRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		n, err := strconv.Atoi(newRequestToken())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 999)
	}
}

func TestCleanHTMLStripsBoilerplate(t *testing.T) {
	body := []byte(`<html><head><style>body{}</style></head><body>
		<nav>menu</nav>
		<p>Actual <strong>content</strong> here.</p>
		<script>tracking()</script>
		<footer>imprint</footer>
	</body></html>`)

	text, err := cleanHTML(body)
	require.NoError(t, err)

	assert.Contains(t, text, "Actual **content** here.")
	assert.NotContains(t, text, "menu")
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "imprint")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcde...", truncate("abcdefgh", 5))
}
