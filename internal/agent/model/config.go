package model

// PersonalUserID is the single-user default applied to watch-history and
// recommendation requests when the classifier omits a user.
const PersonalUserID = "personal_user"

// ================ Config ================
type ConversationConfig struct {
	TTL        string `envconfig:"CONVERSATION_TTL" default:"15m"`
	Classifier struct {
		MaxTurns int `envconfig:"CONVERSATION_CLASSIFIER_MAX_TURNS" default:"5"`
	}
}

type ClassifierModelConfig struct {
	Model       string  `envconfig:"CLASSIFIER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"CLASSIFIER_MAX_TOKENS" default:"800"`
	Temperature float32 `envconfig:"CLASSIFIER_TEMPERATURE" default:"0.1"`
}

type ComposerModelConfig struct {
	Model       string  `envconfig:"COMPOSER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"COMPOSER_MAX_TOKENS" default:"1200"`
	Temperature float32 `envconfig:"COMPOSER_TEMPERATURE" default:"0.4"`
}

type ComposerPromptConfig struct {
	AssistantName string `envconfig:"PROMPT_ASSISTANT_NAME" default:"AniAssist"`
}
