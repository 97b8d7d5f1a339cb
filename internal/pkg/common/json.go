package common

import (
	"encoding/json"
	"fmt"
	"io"
)

// DecodeJSONStrict 使用統一設定解析 JSON，禁止未知欄位與多餘資料
func DecodeJSONStrict(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return err
	}

	// 確保沒有多餘資料
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected extra JSON data")
	}
	return nil
}

// ToIndentedJSON 將結構體轉換為縮排的 JSON 字符串
func ToIndentedJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
