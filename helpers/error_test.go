package helpers

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestFoldErrors(t *testing.T) {
	t.Parallel()

	assert.NoError(t, FoldErrors(nil))
	assert.NoError(t, FoldErrors([]error{nil, nil}))

	e1 := errors.Errorf("first")
	e2 := errors.Errorf("second")
	folded := FoldErrors([]error{e1, nil, e2})
	assert.Error(t, folded)
	assert.Equal(t, "first\nsecond", folded.Error())
}
