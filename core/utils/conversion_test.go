package utils_test

import (
	"testing"

	"brick-manager/core/utils"

	"github.com/stretchr/testify/assert"
)

func TestToBool(t *testing.T) {
	tests := []struct {
		in       string
		fallback bool
		want     bool
	}{
		{"1", false, true},
		{"TRUE", false, true},
		{" yes ", false, true},
		{"on", false, true},
		{"0", true, false},
		{"False", true, false},
		{"no", true, false},
		{"off", true, false},
		{"", true, true},
		{"", false, false},
		{"maybe", true, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, utils.ToBool(tt.in, tt.fallback), "input %q", tt.in)
	}
}

func TestToOptionalInt(t *testing.T) {
	v, err := utils.ToOptionalInt("")
	assert.NoError(t, err)
	assert.Nil(t, v)

	v, err = utils.ToOptionalInt(" 14 ")
	assert.NoError(t, err)
	if assert.NotNil(t, v) {
		assert.Equal(t, 14, *v)
	}

	_, err = utils.ToOptionalInt("bricks")
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"assembled", "konvolut"}, utils.SplitList(" assembled, ,konvolut,"))
	assert.Nil(t, utils.SplitList(""))
	assert.Nil(t, utils.SplitList(" , "))
}
