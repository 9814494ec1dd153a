package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// 列表接口在不同版本的后端上有两种响应形态：
// 裸数组 [...]，或分页信封 {"results": [...], "count": n}。
// listInto 对两种形态做统一解码，解出来都是切片。

type pagedEnvelope struct {
	Results json.RawMessage `json:"results"`
	Count   int             `json:"count"`
}

// listInto 请求列表接口并把结果解码到 dest（必须是切片指针）
func (c *Client) listInto(ctx context.Context, path string, query url.Values, dest interface{}) error {
	var raw json.RawMessage
	if err := c.get(ctx, path, query, &raw); err != nil {
		return err
	}
	return decodeList(raw, dest)
}

func decodeList(raw json.RawMessage, dest interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	trimmed := firstNonSpace(raw)
	switch trimmed {
	case '[':
		if err := json.Unmarshal(raw, dest); err != nil {
			return fmt.Errorf("decode list: %w", err)
		}
		return nil
	case '{':
		var env pagedEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("decode list envelope: %w", err)
		}
		if len(env.Results) == 0 {
			return nil
		}
		if err := json.Unmarshal(env.Results, dest); err != nil {
			return fmt.Errorf("decode list results: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unexpected list response shape")
}

func firstNonSpace(raw []byte) byte {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}
