package chat

import "strings"

var crisisResources = map[Category]string{
	CategorySuicide: `If you're having thoughts of suicide, please know that help is available:
- **Vandrevala Foundation Helpline**: Call 1860-2662-345 or 1800-2333-330 (24/7)
- **iCall Psychosocial Helpline**: WhatsApp/Call +91-9152987821 (Mon-Sat, 10 AM to 8 PM)
- **AASRA Suicide Prevention**: Call +91-9820466726 (24/7)
- **Roshni Helpline (Hyderabad)**: +91-4066202000 (24/7)
You are not alone. Reach out for confidential support.`,

	CategoryDomesticViolence: `If you're experiencing domestic violence, these services can help:
- **National Commission for Women (NCW) Helpline**: Call 7827-170-170 (24/7)
- **Police Emergency**: Dial 100 or 112 (Pan-India)
- **Women Helpline (Govt. of India)**: Call 181 (24/7)
- **Shakti Shalini (Delhi NGO)**: +91-8800799971 (Shelter & legal aid)
- **Majlis Legal Centre (Mumbai)**: +91-9833054422 (Legal support)`,

	CategoryMentalHealth: `For mental health support in India:
- **KIRAN Mental Health Helpline (Govt.)**: Call 1800-599-0019 (24/7)
- **NIMHANS Helpline (Bengaluru)**: +91-8046110000 (Mon-Sat, 8 AM to 10 PM)
- **Fortis Stress Helpline**: +91-8376804102 (24/7)
- **The Live Love Laugh Foundation**: Visit livelovelaughfoundation.org for resources
- **Manas Foundation (Delhi)**: +91-9818106144 (Counselling services)`,
}

// SystemPrompt frames the model as a supportive listener.
const SystemPrompt = `You are a supportive listener trained to provide emotional support and guidance. Your role is to:

1. Listen empathetically and provide non-judgmental support
2. Never give medical advice or try to diagnose conditions
3. Encourage professional help when appropriate
4. Maintain appropriate boundaries
5. Focus on emotional support and coping strategies
6. Be direct and clear about your limitations
7. Recognize and respond appropriately to crisis situations

If someone expresses thoughts of self-harm or suicide, immediately provide crisis resources and encourage professional help.

Remember: You are not a replacement for professional mental health care. Make this clear when appropriate.`

// Resource returns the helpline text for category.
func Resource(category Category) string {
	return crisisResources[category]
}

// Resources returns the text blocks for every flagged category, in Categories order.
func Resources(d Detection) []string {
	out := make([]string, 0, len(Categories))
	for _, category := range Categories {
		if d.Has(category) {
			out = append(out, crisisResources[category])
		}
	}
	return out
}

// AppendResources appends each flagged block to response separated by a blank line.
func AppendResources(response string, d Detection) string {
	blocks := Resources(d)
	if len(blocks) == 0 {
		return response
	}
	return response + "\n\n" + strings.Join(blocks, "\n\n")
}
