package explain

import "fmt"

// DefaultLanguage 預設輸出語言
const DefaultLanguage = "en"

var languageNames = map[string]string{
	"en": "English",
	"hi": "Hindi (हिन्दी)",
	"bn": "Bengali (বাংলা)",
	"ta": "Tamil (தமிழ்)",
	"te": "Telugu (తెలుగు)",
	"mr": "Marathi (मराठी)",
	"gu": "Gujarati (ગુજરાતી)",
	"kn": "Kannada (ಕನ್ನಡ)",
	"ml": "Malayalam (മലയാളം)",
	"pa": "Punjabi (ਪੰਜਾਬੀ)",
}

// SupportedLanguage 是否為支援的語言代碼
func SupportedLanguage(code string) bool {
	_, ok := languageNames[code]
	return ok
}

// NormalizeLanguage 未知或空白代碼一律回到英文
func NormalizeLanguage(code string) string {
	if SupportedLanguage(code) {
		return code
	}
	return DefaultLanguage
}

// LanguageInstruction 非英文時附加在提示詞後的語言要求
func LanguageInstruction(code string) string {
	if code == DefaultLanguage || !SupportedLanguage(code) {
		return ""
	}
	return fmt.Sprintf("\n\nIMPORTANT: Respond in %s. Use native script and natural language.", languageNames[code])
}
