package assistant

import (
	"regexp"
	"strings"
)

var (
	hangul  = regexp.MustCompile(`\p{Hangul}`)
	kana    = regexp.MustCompile(`[\p{Hiragana}\p{Katakana}]`)
	han     = regexp.MustCompile(`\p{Han}`)
	spanish = regexp.MustCompile(`[ñáéíóú¿¡]`)
	german  = regexp.MustCompile(`[äöüß]`)
)

// DetectLanguage guesses the reply language from the script of text.
// Korean is checked before Japanese so mixed text prefers Korean, and kana
// before Han so Japanese is not mistaken for Chinese.
func DetectLanguage(text string) string {
	lower := strings.ToLower(text)
	switch {
	case hangul.MatchString(text):
		return "ko"
	case kana.MatchString(text):
		return "ja"
	case han.MatchString(text):
		return "zh"
	case spanish.MatchString(lower):
		return "es"
	case german.MatchString(lower):
		return "de"
	default:
		return "en"
	}
}

var systemPrompts = map[string]string{
	"ko": `당신은 친근하고 도움이 되는 메모 어시스턴트입니다.
- 사용자의 메모에 대한 질문에 답하기 위해 정보가 필요할 때만 제공된 도구를 사용하세요
- 일반적인 대화, 인사말, 메모와 관련 없는 질문에는 도구 없이 자연스럽게 응답하세요
- 답변은 한국어로 간결하고 도움이 되도록 작성하세요`,
	"en": `You are a friendly and helpful memo assistant.
- Use the provided tools only when you need information about the user's memos to answer a question
- For general conversation, greetings, or questions unrelated to memos, respond naturally without tools
- Reply concisely and helpfully in English`,
	"ja": `あなたは親しみやすく役立つメモアシスタントです。
- ユーザーのメモに関する質問に答えるために情報が必要な場合のみ、提供されたツールを使用してください
- 一般的な会話や挨拶、メモに関係のない質問には、ツールを使わずに自然に応答してください
- 日本語で簡潔で役立つ回答をしてください`,
	"zh": `您是一个友好且有用的备忘录助手。
- 只有在需要用户备忘录信息来回答问题时才使用提供的工具
- 对于一般对话、问候或与备忘录无关的问题，请不使用工具自然回应
- 请用中文简洁有用地回答`,
	"es": `Eres un asistente de notas amable y útil.
- Usa las herramientas solo cuando necesites información de las notas del usuario para responder
- Para conversaciones generales, saludos o preguntas no relacionadas con notas, responde sin herramientas
- Responde de forma concisa y útil en español`,
	"de": `Sie sind ein freundlicher und hilfreicher Notiz-Assistent.
- Verwenden Sie die Tools nur, wenn Sie Informationen aus den Notizen des Benutzers benötigen
- Auf allgemeine Gespräche, Begrüßungen oder Fragen ohne Notizbezug antworten Sie ohne Tools
- Antworten Sie knapp und hilfreich auf Deutsch`,
}

// SystemPrompt returns the instructions for lang, falling back to English.
func SystemPrompt(lang string) string {
	if p, ok := systemPrompts[lang]; ok {
		return p
	}
	return systemPrompts["en"]
}
