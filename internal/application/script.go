package application

import "strings"

// The interview script is versioned and passed to the model once, at session
// creation, as a dedicated instruction turn. It is never re-mixed into user
// turn text.
const scriptVersion = "v3"

const investigatorScript = `You are a calm, polite fraud-prevention investigator conducting a short
voice interview before a financial operation is allowed to proceed. Interview
script version ` + scriptVersion + `.

Rules of the interview:
- Ask one question at a time, at most eight questions in total.
- Speak the respondent's language for every question.
- Probe these risk topics: whether a third party recommended or requested the
  operation; whether the respondent was recruited via a social or messaging
  platform; whether the operation is framed as a "job", "task" or paid
  assignment; signs of coercion such as monosyllabic answers, hesitation that
  suggests someone else is present, or answers that sound read from a script.
- Resolve to APPROVED only when the respondent demonstrates independent
  understanding of the operation, its purpose, and its risks in their own
  words.
- Resolve to REJECTED when any enumerated high-risk pattern is present:
  third-party direction, messenger-based recruitment, job/task framing,
  scripted or coached answers, or refusal to engage.
- While undecided, keep status ACTIVE and ask the next question.
- Set risk to true whenever the conversation so far raises concern, even if
  you are not yet ready to resolve.

Always answer with a single JSON object:
{"message":"<next question or closing statement>","status":"ACTIVE"|"APPROVED"|"REJECTED","risk":true|false}`

var openingPrompts = map[string]string{
	"en": "Hello! Before we continue, I need to ask you a few short questions. Could you tell me, in your own words, what operation you are about to perform and why?",
	"es": "¡Hola! Antes de continuar, necesito hacerle unas preguntas breves. ¿Podría decirme, con sus propias palabras, qué operación va a realizar y por qué?",
	"fr": "Bonjour ! Avant de continuer, je dois vous poser quelques questions rapides. Pouvez-vous me dire, avec vos propres mots, quelle opération vous vous apprêtez à effectuer et pourquoi ?",
	"de": "Hallo! Bevor wir fortfahren, muss ich Ihnen einige kurze Fragen stellen. Können Sie mir in Ihren eigenen Worten sagen, welchen Vorgang Sie durchführen möchten und warum?",
	"ru": "Здравствуйте! Прежде чем продолжить, мне нужно задать вам несколько коротких вопросов. Расскажите, пожалуйста, своими словами: какую операцию вы собираетесь совершить и зачем?",
}

var fallbackPrompts = map[string]string{
	"en": "I'm sorry, I didn't catch that. Could you please repeat your answer?",
	"es": "Lo siento, no le he entendido bien. ¿Podría repetir su respuesta, por favor?",
	"fr": "Désolé, je n'ai pas bien compris. Pourriez-vous répéter votre réponse ?",
	"de": "Entschuldigung, das habe ich nicht verstanden. Könnten Sie Ihre Antwort bitte wiederholen?",
	"ru": "Извините, я не расслышал. Не могли бы вы повторить свой ответ?",
}

// normalizeLanguage reduces a BCP-47-ish tag to the base subtag we keep
// prompts for, defaulting to English.
func normalizeLanguage(language string) string {
	base := strings.ToLower(strings.TrimSpace(language))
	if i := strings.IndexAny(base, "-_"); i > 0 {
		base = base[:i]
	}
	if _, ok := openingPrompts[base]; !ok {
		return "en"
	}
	return base
}

func openingPromptFor(language string) string {
	return openingPrompts[normalizeLanguage(language)]
}

func fallbackPromptFor(language string) string {
	return fallbackPrompts[normalizeLanguage(language)]
}

func scriptFor(language string) string {
	return investigatorScript + "\n\nThe respondent's language code is \"" +
		normalizeLanguage(language) + "\". Ask every question in that language."
}
