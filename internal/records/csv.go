package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ziadkadry99/tradebook/internal/schema"
)

// tradeColumns are the header names accepted in a trades CSV.
var tradeColumns = map[string]bool{
	"brokerName": true, "date": true, "side": true, "code": true, "name": true,
	"price": true, "lots": true, "shares": true, "costNoFee": true,
	"fee": true, "tax": true, "totalCost": true,
}

// ReadTradesCSV parses trades from r. The header row names the columns
// with the app field names (brokerName, costNoFee, ...); unknown columns
// are rejected. onRow, if set, is called after each parsed row.
func ReadTradesCSV(r io.Reader, onRow func(n int)) ([]Trade, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if !tradeColumns[h] {
			return nil, fmt.Errorf("unknown column %q", h)
		}
		header[i] = h
	}

	trades := []Trade{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		row := make(map[string]any, len(header))
		for i, h := range header {
			row[h] = strings.TrimSpace(record[i])
		}
		var t Trade
		if err := schema.Decode(row, &t); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		trades = append(trades, t)
		if onRow != nil {
			onRow(len(trades))
		}
	}
	return trades, nil
}
