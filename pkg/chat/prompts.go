package chat

import "math/rand/v2"

var promptPool = []string{
	"What factories do you recommend for producing leather handbags in Italy?",
	"Can you find me a garment factory with low MOQ for a start-up brand?",
	"I need sneaker manufacturers in Portugal. What options are available?",
	"Help me find accessory factories that can handle custom packaging.",
	"What is the typical lead time for dyeing and washing services?",
	"Can you suggest factories that specialize in eco-friendly trims?",
	"I'm looking for a factory in Spain that produces embellished garments.",
	"What should I include in a tech pack for a fashion accessory?",
	"Find me factories offering small-batch production under 500 units.",
	"Which factories can produce custom sneaker soles?",
	"I want to produce scarves with unique prints. Where should I look?",
	"Do you have recommendations for factories with fast turnaround for samples?",
	"What are the price ranges for MOQ in garment factories in France?",
	"Can you advise on factories that accept a basic reference image instead of a tech pack?",
	"I'm interested in factories near Italy but outside the country for leather goods. What do you suggest?",
}

const suggestedPromptCount = 4

func pickPrompts(rnd *rand.Rand) []string {
	out := make([]string, 0, suggestedPromptCount)
	for _, i := range rnd.Perm(len(promptPool))[:suggestedPromptCount] {
		out = append(out, promptPool[i])
	}
	return out
}
