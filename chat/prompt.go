package chat

import "strings"

// Every prompt variant starts with the same hard rules. Instructions come
// before data and the user's message comes last, so instructions keep
// prompt precedence over anything the user typed.
const guardrailPreamble = `You are a careful health-record assistant. Hard rules, no exceptions:
1. Never state that the patient has or does not have any disease or condition. Do not say "you have X", "you don't have X", "no indication of X" or "this indicates X", and never call the patient healthy or suffering.
2. Never prescribe, recommend or imply starting, stopping or adjusting any medication.
3. Always defer definitive interpretation to a licensed professional: explicitly recommend discussing the results with a doctor.
4. Keep the answer concise, 2 to 4 sentences, unless listing several markers.`

var intentFraming = map[Intent]string{
	IntentSummary:        "Restate the lab values below grouped by date, in plain language, without interpreting them.",
	IntentAbnormal:       "Explain in plain language only the values marked out of range below. Do not speculate about causes.",
	IntentInterpretation: "Describe patterns visible in the data below, strictly bounded to what is shown. If the data is too thin to say anything, say the records do not contain enough information.",
	IntentAdvice:         "Offer only generic lifestyle suggestions such as diet and exercise framing. Nothing prescriptive, no supplements or medication.",
}

func buildPrompt(intent Intent, context, message string) string {
	var b strings.Builder
	b.WriteString(guardrailPreamble)
	b.WriteString("\n\n")
	b.WriteString(intentFraming[intent])
	b.WriteString("\n\nLab data:\n")
	b.WriteString(context)
	b.WriteString("\nUser question: ")
	b.WriteString(message)
	return b.String()
}

// defaultConfidence is the label used when the response text itself gives
// no signal. Advice is inherently less certain than data restatement.
func defaultConfidence(intent Intent) string {
	if intent == IntentAdvice {
		return "low"
	}
	return "medium"
}
