package channel

import (
	"encoding/base64"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func encodeWire(t *testing.T, w wire) string {
	t.Helper()
	raw, err := msgpack.Marshal(&w)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}
