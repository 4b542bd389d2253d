// Package infra holds the static answer catalogue for the tax chat.
package infra

import (
	chatdomain "github.com/boddenberg/gst-copilot-bfa-go/internal/chat/domain"
	maindomain "github.com/boddenberg/gst-copilot-bfa-go/internal/domain"
)

type entries map[chatdomain.Intent][]string

// Catalog implements port.AnswerCatalog over fixed English and Hindi text.
type Catalog struct {
	answers     map[maindomain.Language]entries
	suggestions map[maindomain.Language][]string
}

// NewCatalog returns the built-in catalogue.
func NewCatalog() *Catalog {
	return &Catalog{
		answers: map[maindomain.Language]entries{
			maindomain.LanguageEnglish: english,
			maindomain.LanguageHindi:   hindi,
		},
		suggestions: map[maindomain.Language][]string{
			maindomain.LanguageEnglish: {
				"When to file GSTR-3B?",
				"What is GST threshold?",
				"GST rates for goods?",
			},
			maindomain.LanguageHindi: {
				"GSTR-3B कब फाइल करें?",
				"GST सीमा क्या है?",
				"वस्तुओं पर GST दर?",
			},
		},
	}
}

// Answers returns the variants for intent, falling back to English and then
// to the default answer.
func (c *Catalog) Answers(lang maindomain.Language, intent chatdomain.Intent) []string {
	table, ok := c.answers[lang]
	if !ok {
		table = c.answers[maindomain.LanguageEnglish]
	}
	if a := table[intent]; len(a) > 0 {
		return a
	}
	return table[chatdomain.IntentDefault]
}

func (c *Catalog) Suggestions(lang maindomain.Language) []string {
	if s, ok := c.suggestions[lang]; ok {
		return s
	}
	return c.suggestions[maindomain.LanguageEnglish]
}

var english = entries{
	chatdomain.IntentGreeting: {
		"Hello! I'm your Tax Copilot. How can I help you today?",
		"Hi there! Ask me anything about GST, ITR, or tax compliance.",
	},
	chatdomain.IntentGSTR3B: {
		"GSTR-3B must be filed by the **20th of every month**. It's a summary return where you declare your GST liability and pay tax.",
	},
	chatdomain.IntentGSTR1: {
		"GSTR-1 is due on the **10th of every month** (or quarterly for small businesses). It contains details of all outward supplies.",
	},
	chatdomain.IntentThreshold: {
		"GST registration is mandatory if your annual turnover exceeds **₹20 Lakhs** (₹10 Lakhs for special category states).",
	},
	chatdomain.IntentRate: {
		"GST rates vary by category:\n• **5%** - Essential goods\n• **12%** - Standard services\n• **18%** - Most goods & services\n• **28%** - Luxury items",
	},
	chatdomain.IntentITR: {
		"ITR (Income Tax Return) deadline is **31st July** for individuals. Late filing attracts penalty up to ₹5,000.",
	},
	chatdomain.IntentInputTax: {
		"Input Tax Credit (ITC) allows you to deduct GST paid on purchases from GST collected on sales. This reduces your net tax liability.",
	},
	chatdomain.IntentPenalty: {
		"Late GST filing attracts:\n• **Late fee**: ₹50/day (₹25 CGST + ₹25 SGST)\n• **Interest**: 18% per annum on tax due",
	},
	chatdomain.IntentDefault: {
		"I'm not sure about that. Try asking about:\n• GSTR-3B filing date\n• GST threshold\n• GST rates\n• ITR deadline\n• Input tax credit",
	},
}

var hindi = entries{
	chatdomain.IntentGreeting: {
		"नमस्ते! मैं आपका Tax Copilot हूं। आज मैं आपकी कैसे मदद कर सकता हूं?",
		"नमस्कार! GST, ITR या कर अनुपालन के बारे में कुछ भी पूछें।",
	},
	chatdomain.IntentGSTR3B: {
		"GSTR-3B **हर महीने की 20 तारीख** तक दाखिल करना होता है। यह एक सारांश रिटर्न है जहां आप अपनी GST देनदारी घोषित करते हैं।",
	},
	chatdomain.IntentGSTR1: {
		"GSTR-1 **हर महीने की 10 तारीख** को देय है। इसमें सभी आउटवर्ड सप्लाई का विवरण होता है।",
	},
	chatdomain.IntentThreshold: {
		"GST पंजीकरण अनिवार्य है यदि वार्षिक टर्नओवर **₹20 लाख** से अधिक है (विशेष राज्यों के लिए ₹10 लाख)।",
	},
	chatdomain.IntentRate: {
		"GST दरें श्रेणी के अनुसार:\n• **5%** - आवश्यक वस्तुएं\n• **12%** - मानक सेवाएं\n• **18%** - अधिकांश वस्तुएं\n• **28%** - लक्जरी आइटम",
	},
	chatdomain.IntentITR: {
		"ITR की समय सीमा व्यक्तियों के लिए **31 जुलाई** है। देर से फाइलिंग पर ₹5,000 तक जुर्माना।",
	},
	chatdomain.IntentInputTax: {
		"इनपुट टैक्स क्रेडिट (ITC) आपको खरीद पर भुगतान किए गए GST को बिक्री पर एकत्रित GST से घटाने की अनुमति देता है।",
	},
	chatdomain.IntentPenalty: {
		"देर से GST फाइलिंग पर:\n• **विलंब शुल्क**: ₹50/दिन\n• **ब्याज**: कर देय पर 18% वार्षिक",
	},
	chatdomain.IntentDefault: {
		"इस बारे में मुझे जानकारी नहीं है। पूछें:\n• GSTR-3B फाइलिंग तिथि\n• GST सीमा\n• GST दरें\n• ITR समय सीमा",
	},
}
