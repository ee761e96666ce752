package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/newthinker/fundwatch/internal/core"
)

// InstrumentName looks up a single instrument's short name. It is the
// narrow fallback used when a code is missing from the bulk table.
func (e *Eastmoney) InstrumentName(ctx context.Context, symbol string) (string, error) {
	code, market := parseCode(symbol)

	body, err := e.get(ctx, e.quote, "/api/qt/stock/get", map[string]string{
		"secid":  fmt.Sprintf("%s.%s", market, code),
		"fields": "f57,f58",
	})
	if err != nil {
		return "", err
	}

	var result quoteResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", core.Errorf(core.ErrPayloadInvalid, "%s: decoding response: %v", Name, err)
	}
	if result.Data == nil || strings.TrimSpace(result.Data.F58) == "" {
		return "", notFound("%s: no instrument info for %s", Name, code)
	}
	return strings.TrimSpace(result.Data.F58), nil
}

// Response types
type quoteResponse struct {
	Data *quoteData `json:"data"`
}

type quoteData struct {
	F57 string `json:"f57"` // Code
	F58 string `json:"f58"` // Name
}
