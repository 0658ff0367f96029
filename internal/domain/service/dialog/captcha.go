package dialog

import "math/rand"

// Пул эмодзи для капчи. Вариантов в челлендже всегда шесть.
var captchaPool = []string{
	"🍎", "🍋", "🍉", "🍇", "🍓", "🍒",
	"🐱", "🐶", "🦊", "🐼", "🐸", "🦁",
	"⚽", "🏀", "🎲", "🎸", "🚗", "✈️",
}

const captchaOptions = 6

// Challenge — один раунд капчи: шесть вариантов и правильный ответ.
type Challenge struct {
	Options []string
	Answer  string
}

func newChallenge(rnd *rand.Rand) Challenge {
	perm := rnd.Perm(len(captchaPool))

	options := make([]string, 0, captchaOptions)
	for _, i := range perm[:captchaOptions] {
		options = append(options, captchaPool[i])
	}

	return Challenge{
		Options: options,
		Answer:  options[rnd.Intn(captchaOptions)],
	}
}
