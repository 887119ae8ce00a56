package codec

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/pairsignal/internal/core"
)

// Encode writes the envelope by hand so relayed blobs keep their exact bytes;
// json.Marshal would compact and HTML-escape them.
func Encode(out core.Outbound) ([]byte, error) {
	data := out.Data
	if data == nil {
		data = core.Empty{}
	}
	raw, ok := data.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", out.Type, err)
		}
		raw = b
	}
	typ, err := json.Marshal(out.Type)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", out.Type, err)
	}
	buf := make([]byte, 0, len(typ)+len(raw)+len(`{"type":,"data":}`))
	buf = append(buf, `{"type":`...)
	buf = append(buf, typ...)
	buf = append(buf, `,"data":`...)
	buf = append(buf, raw...)
	buf = append(buf, '}')
	return buf, nil
}
