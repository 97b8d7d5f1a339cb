package provider

import (
	"regexp"
	"strings"
)

var (
	fencePattern   = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")
	chatterPattern = regexp.MustCompile(`(?i)^\s*(?:sure[,!.]?\s*)?(?:here\s+(?:is|are)|the\s+(?:text|ingredients|label)\s+(?:is|are|reads?)|answer)\b[^\n:]*:\s*`)
	dataURIPattern = regexp.MustCompile(`data:image/[a-zA-Z+.-]+;base64,[A-Za-z0-9+/=]+`)
)

// CleanVisionText 移除模型回覆中的開場白、markdown 圍欄與外層引號，保留換行
func CleanVisionText(text string) string {
	text = fencePattern.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	text = chatterPattern.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	if len(text) >= 2 {
		if (text[0] == '"' && text[len(text)-1] == '"') || (text[0] == '\'' && text[len(text)-1] == '\'') {
			text = strings.TrimSpace(text[1 : len(text)-1])
		}
	}
	return text
}

// sanitizeBody 移除回應中的圖片資料並截斷，用於錯誤訊息
func sanitizeBody(body []byte) string {
	s := dataURIPattern.ReplaceAllString(string(body), "[IMAGE_DATA_REMOVED]")
	if len(s) > 300 {
		s = s[:300] + "..."
	}
	return s
}
