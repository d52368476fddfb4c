package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuneCodecRoundTrip(t *testing.T) {
	codec := RuneCodec{}

	text := "Payara Server 运行 Jakarta EE"
	tokens := codec.Encode(text)
	assert.Equal(t, len([]rune(text)), len(tokens))
	assert.Equal(t, text, codec.Decode(tokens))
}

func TestRuneCodecEmpty(t *testing.T) {
	codec := RuneCodec{}
	assert.Empty(t, codec.Encode(""))
	assert.Equal(t, "", codec.Decode(nil))
}
