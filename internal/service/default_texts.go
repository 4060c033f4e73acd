package service

import "typeracer/internal/models"

// defaultTexts seed an empty database so tests can be taken out of the box
var defaultTexts = []models.NewText{
	{
		Language:   "en",
		Difficulty: "easy",
		Content:    "The sun came up over the hill and the birds began to sing. A small dog ran across the yard to greet the boy who had just stepped out of the house with a ball in his hand.",
	},
	{
		Language:   "en",
		Difficulty: "easy",
		Content:    "Good typing starts with a calm mind and relaxed hands. Keep your eyes on the screen, rest your fingers on the home row, and let each key come to you without rushing.",
	},
	{
		Language:   "en",
		Difficulty: "easy",
		Content:    "We packed a lunch and walked to the lake. The water was cold, so we sat on the dock, ate our sandwiches, and watched the boats drift slowly past in the warm afternoon light.",
	},
	{
		Language:   "en",
		Difficulty: "medium",
		Content:    "Modern cities depend on systems most people never see. Water flows through pipes laid a century ago, power moves across lines that hum above the streets, and data travels through cables buried beneath the pavement we walk on every day.",
	},
	{
		Language:   "en",
		Difficulty: "medium",
		Content:    "A good habit is built one small repetition at a time. Practising for ten minutes each day does more for your speed than a single long session each week, because steady effort teaches your fingers patterns they will remember.",
	},
	{
		Language:   "en",
		Difficulty: "medium",
		Content:    "The library was quiet except for the soft turning of pages. Students bent over their notes, a librarian sorted returned books onto a cart, and outside the tall windows the first snow of the season began to fall.",
	},
	{
		Language:   "en",
		Difficulty: "hard",
		Content:    "Distributed databases must reconcile conflicting writes without sacrificing availability; consequently, engineers weigh consistency models, quorum sizes, and replication latency against the practical expectations of users who rarely tolerate stale or missing data.",
	},
	{
		Language:   "en",
		Difficulty: "hard",
		Content:    "Photosynthesis converts light energy into chemical energy, storing it in glucose molecules synthesised from carbon dioxide and water; this process, occurring within chloroplasts, sustains nearly every food web on Earth and regulates atmospheric oxygen.",
	},
	{
		Language:   "en",
		Difficulty: "hard",
		Content:    "Economists disagree about whether quantitative easing meaningfully stimulated investment, or merely inflated asset prices; the counterfactual, after all, is unobservable, and each interpretation depends heavily on assumptions embedded in the chosen model.",
	},
}
