package cleaner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCachedExpressionReusesCompiledExpressions(t *testing.T) {
	first := cachedExpression(`(?m)//.*$`)
	second := cachedExpression(`(?m)//.*$`)
	assert.Same(t, first, second)

	for index := 0; index < expressionCacheSize+10; index++ {
		cachedExpression(fmt.Sprintf(`marker%d`, index))
	}
	assert.LessOrEqual(t, expressionCache.Len(), expressionCacheSize)
	assert.True(t, cachedExpression(`(?m)//.*$`).MatchString("x // y"))
}
