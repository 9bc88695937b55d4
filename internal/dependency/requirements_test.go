package dependency

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequirements(t *testing.T) {
	input := `
# web
fastapi==0.110.0
uvicorn[standard]>=0.29
pydantic_settings~=2.2  # inline comment
requests!=2.30.0,<3
typing-extensions ; python_version < "3.11"
mypkg @ https://example.com/mypkg.tar.gz
-r dev-requirements.txt
--index-url https://pypi.org/simple
-e git+https://github.com/x/y.git#egg=y
Jinja2
`
	names, err := ParseRequirements(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"fastapi",
		"uvicorn",
		"pydantic_settings",
		"requests",
		"typing-extensions",
		"mypkg",
		"Jinja2",
	}, names)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "pydantic-settings", NormalizeName("Pydantic_Settings"))
	assert.Equal(t, "zope-interface", NormalizeName("zope.interface"))
	assert.Equal(t, NormalizeName("typing_extensions"), NormalizeName("Typing-Extensions"))
}
