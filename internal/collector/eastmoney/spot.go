package eastmoney

import (
	"context"
	"strconv"

	"github.com/newthinker/fundwatch/internal/collector"
	"github.com/newthinker/fundwatch/internal/core"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// All A-share boards: SZ main, SZ ChiNext, SH main, SH STAR, BJ.
const spotBoards = "m:0 t:6,m:0 t:80,m:1 t:2,m:1 t:23,m:0 t:81 s:2048"

// maxSpotPages bounds pagination if the upstream total is bogus.
const maxSpotPages = 200

// Row returns the bulk real-time quote row for code. The whole table is
// downloaded once and reused for the configured TTL; concurrent callers
// share a single download.
func (e *Eastmoney) Row(ctx context.Context, code string) (collector.SpotRow, error) {
	code, _ = parseCode(code)

	rows, err := e.table(ctx)
	if err != nil {
		return collector.SpotRow{}, err
	}
	row, ok := rows[code]
	if !ok {
		return collector.SpotRow{}, notFound("%s: no spot row for %s", Name, code)
	}
	return row, nil
}

func (e *Eastmoney) table(ctx context.Context) (map[string]collector.SpotRow, error) {
	e.mu.RLock()
	if e.rows != nil && e.now().Sub(e.fetchedAt) < e.ttl {
		rows := e.rows
		e.mu.RUnlock()
		return rows, nil
	}
	e.mu.RUnlock()

	v, err, _ := e.inflight.Do("spot", func() (any, error) {
		rows, err := e.fetchTable(ctx)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		e.rows = rows
		e.fetchedAt = e.now()
		e.mu.Unlock()
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]collector.SpotRow), nil
}

func (e *Eastmoney) fetchTable(ctx context.Context) (map[string]collector.SpotRow, error) {
	rows := make(map[string]collector.SpotRow)

	for page := 1; page <= maxSpotPages; page++ {
		body, err := e.get(ctx, e.spot, "/api/qt/clist/get", map[string]string{
			"pn":     strconv.Itoa(page),
			"pz":     strconv.Itoa(e.pageSize),
			"po":     "1",
			"np":     "1",
			"fltt":   "2",
			"invt":   "2",
			"fid":    "f3",
			"fs":     spotBoards,
			"fields": "f2,f3,f12,f14",
		})
		if err != nil {
			return nil, err
		}

		n, total, err := parseSpotPage(body, rows)
		if err != nil {
			return nil, err
		}
		if n == 0 || len(rows) >= total {
			break
		}
	}

	if len(rows) == 0 {
		return nil, core.Errorf(core.ErrNoData, "%s: empty spot table", Name)
	}
	e.logger.Debug("spot table downloaded", zap.Int("rows", len(rows)))
	return rows, nil
}

// parseSpotPage adds the rows of one clist page to rows and returns how many
// rows the page held and the upstream total. data.diff is an array when
// np=1 and an index-keyed object otherwise; both are accepted.
func parseSpotPage(body []byte, rows map[string]collector.SpotRow) (int, int, error) {
	if !gjson.ValidBytes(body) {
		return 0, 0, core.Errorf(core.ErrPayloadInvalid, "%s: spot page is not JSON", Name)
	}
	data := gjson.GetBytes(body, "data")
	if !data.Exists() || data.Type == gjson.Null {
		return 0, 0, nil
	}

	n := 0
	data.Get("diff").ForEach(func(_, row gjson.Result) bool {
		code := row.Get("f12").String()
		if code == "" {
			return true
		}
		n++
		rows[code] = collector.SpotRow{
			Code:      code,
			Name:      row.Get("f14").String(),
			Price:     number(row.Get("f2")),
			ChangePct: number(row.Get("f3")),
		}
		return true
	})
	return n, int(data.Get("total").Int()), nil
}

// number reads a numeric field; suspended stocks report "-".
func number(v gjson.Result) float64 {
	switch v.Type {
	case gjson.Number:
		return v.Float()
	case gjson.String:
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
