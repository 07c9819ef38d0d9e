package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_buildGlobPatterns_excludesNodeModulesByDefault(t *testing.T) {
	patterns := buildGlobPatterns([]string{"**/*.ts"}, []string{"**/*.gen.ts"}, false)

	assert.Equal(t, []string{"**/*.ts", "!**/*.gen.ts", "!**/node_modules"}, patterns)
}

func Test_buildGlobPatterns_allowNodeModulesSkipsExclusion(t *testing.T) {
	patterns := buildGlobPatterns([]string{"**/*.ts"}, nil, true)

	assert.Equal(t, []string{"**/*.ts"}, patterns)
}
