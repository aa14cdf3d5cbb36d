// ABOUTME: Per-language string bundles for the chat engine and assistant
// ABOUTME: English, Hindi and Nepali; unknown languages fall back to English

package locale

// Lang is a supported interface language.
type Lang string

const (
	English Lang = "en"
	Hindi   Lang = "hi"
	Nepali  Lang = "ne"
)

// Strings is the locale-dependent text the conversation engine needs.
type Strings struct {
	Lang           Lang
	AssistantName  string
	Welcome        string
	AssistantError string
}

var bundles = map[Lang]Strings{
	English: {
		Lang:           English,
		AssistantName:  "Agro Assistant",
		Welcome:        "Namaste! I am your Agro Assistant. Ask me anything about farming, crops, or the weather.",
		AssistantError: "Sorry, I could not reach the assistant right now. Please try again in a moment.",
	},
	Hindi: {
		Lang:           Hindi,
		AssistantName:  "कृषि सहायक",
		Welcome:        "नमस्ते! मैं आपका कृषि सहायक हूँ। खेती, फसल या मौसम के बारे में कुछ भी पूछें।",
		AssistantError: "क्षमा करें, अभी मैं उत्तर नहीं दे पा रहा हूँ। कृपया थोड़ी देर बाद फिर से प्रयास करें।",
	},
	Nepali: {
		Lang:           Nepali,
		AssistantName:  "कृषि सहायक",
		Welcome:        "नमस्ते! म तपाईंको कृषि सहायक हुँ। खेती, बाली वा मौसमबारे केही पनि सोध्नुहोस्।",
		AssistantError: "माफ गर्नुहोस्, अहिले म जवाफ दिन सकिरहेको छैन। कृपया पछि फेरि प्रयास गर्नुहोस्।",
	},
}

// For returns the bundle for the given language, falling back to English.
func For(lang Lang) Strings {
	if s, ok := bundles[lang]; ok {
		return s
	}
	return bundles[English]
}

// Parse maps a language code to a supported Lang. Unknown codes report false
// and map to English.
func Parse(code string) (Lang, bool) {
	switch Lang(code) {
	case English, Hindi, Nepali:
		return Lang(code), true
	}
	return English, false
}

// Supported lists the supported language codes.
func Supported() []Lang {
	return []Lang{English, Hindi, Nepali}
}
