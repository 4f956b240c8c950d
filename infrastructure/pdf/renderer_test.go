package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMarkdown = `# Learning Go in 3 Months

## Month 1: Fundamentals

### Week 1

- Install the toolchain
- Read *Effective Go*
- Write **small** programs

1. Variables and types
2. Control flow
3. Functions

> Practice daily, even 20 minutes helps.

` + "```go\nfunc main() {\n\tfmt.Println(\"hello\")\n}\n```" + `

---

Project: build a CLI that uses ` + "`flag`" + ` and [the standard library](https://pkg.go.dev/std).
`

func TestRenderProducesPDF(t *testing.T) {
	r := NewRenderer()

	data, err := r.Render(sampleMarkdown)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestRenderEmptyInput(t *testing.T) {
	r := NewRenderer()

	data, err := r.Render("")
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestRenderPlainParagraph(t *testing.T) {
	r := NewRenderer()

	data, err := r.Render("Just one paragraph, no structure at all.")
	require.NoError(t, err)
	assert.Greater(t, len(data), 100)
}

func TestRenderDeterministicForSameInput(t *testing.T) {
	r := NewRenderer()

	first, err := r.Render(sampleMarkdown)
	require.NoError(t, err)
	second, err := r.Render(sampleMarkdown)
	require.NoError(t, err)
	assert.Equal(t, len(first), len(second))
}
