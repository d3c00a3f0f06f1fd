package sentiment

import (
	"context"
	"math"
	"strings"
	"unicode"
)

const (
	// alpha normalizes the summed valence into (-1, 1), as in VADER.
	alpha = 15.0

	negationScalar  = -0.74
	boosterStep     = 0.293
	exclamationStep = 0.292
	maxExclamations = 4
	negationWindow  = 3
	butBefore       = 0.5
	butAfter        = 1.5
)

// lexicon holds word valences on a -4..4 scale.
var lexicon = map[string]float64{
	// positive
	"amazing": 2.8, "awesome": 3.1, "beautiful": 2.9, "best": 3.2, "better": 1.9,
	"brilliant": 2.8, "congrats": 2.4, "congratulations": 2.9, "cool": 1.3, "cute": 2.0,
	"enjoy": 2.2, "enjoyed": 2.3, "excellent": 2.7, "excited": 1.4, "exciting": 2.2,
	"fantastic": 2.6, "fav": 2.0, "favorite": 2.0, "favourite": 2.0, "fine": 0.8,
	"fun": 2.3, "funny": 1.9, "genius": 2.3, "glad": 2.0, "good": 1.9,
	"gorgeous": 3.0, "great": 3.1, "happy": 2.7, "helpful": 1.8, "hilarious": 1.7,
	"incredible": 2.5, "inspiring": 2.4, "interesting": 1.7, "legend": 2.0, "legendary": 2.4,
	"liked": 1.8, "lol": 1.8, "love": 3.2, "loved": 2.9,
	"lovely": 2.8, "loving": 2.9, "masterpiece": 3.0, "nice": 1.8, "perfect": 2.7,
	"queen": 1.4, "recommend": 1.5, "respect": 2.1, "slay": 2.0, "smart": 1.7,
	"solid": 1.2, "stunning": 2.9, "support": 1.7, "talented": 2.3,
	"thank": 1.5, "thanks": 1.9, "top": 0.8, "useful": 1.9, "valuable": 2.1,
	"win": 2.8, "wonderful": 2.7, "wow": 2.8, "yes": 1.7, "goat": 2.2,
	"underrated": 1.2, "wholesome": 2.2, "agree": 1.5, "beauty": 2.8, "proud": 2.1,
	"refreshing": 2.0, "honest": 2.3, "genuine": 1.9, "authentic": 1.8, "original": 1.3,

	// negative
	"annoying": -1.7, "awful": -2.0, "bad": -2.5, "boring": -1.3, "broken": -2.1,
	"cringe": -2.0, "cringy": -2.0, "dead": -3.3, "disappointed": -1.9, "disappointing": -2.2,
	"disgusting": -2.4, "dislike": -1.6, "dumb": -2.3, "fail": -2.5, "failed": -2.3,
	"fake": -2.1, "garbage": -2.5, "hate": -2.7, "hated": -3.2, "horrible": -2.5,
	"idiot": -2.3, "lame": -1.8, "lie": -1.6, "lies": -1.8, "liar": -2.9,
	"mediocre": -1.0, "mess": -1.5, "misleading": -1.9, "poor": -2.1, "problem": -1.7,
	"ridiculous": -1.5, "sad": -2.1, "scam": -2.9, "shame": -2.1, "sick": -2.3,
	"stupid": -2.4, "sucks": -1.5, "terrible": -2.1, "toxic": -2.2, "trash": -2.1,
	"ugly": -2.3, "unfollow": -1.5, "unfollowed": -1.5, "useless": -1.8, "waste": -1.8,
	"worse": -2.1, "worst": -3.1, "wrong": -2.1, "yikes": -1.2, "clickbait": -1.8,
	"overrated": -1.3, "problematic": -1.8, "offensive": -2.2, "racist": -3.1, "sellout": -2.0,
	"boycott": -1.3, "cancel": -1.0, "cancelled": -1.0, "controversy": -1.2, "scandal": -2.1,
	"angry": -2.3, "upset": -1.6, "meh": -0.3, "bored": -1.1,
}

// emoji valences are looked up rune by rune.
var emojiLexicon = map[rune]float64{
	'❤': 3.0, '😍': 2.7, '🥰': 2.7, '😂': 1.6, '🤣': 1.6, '😊': 2.2, '🔥': 1.7, '👍': 1.8,
	'👏': 1.9, '🙌': 1.9, '💯': 1.9, '😀': 2.0, '😁': 2.0, '💕': 2.8,
	'👎': -1.8, '😡': -2.6, '🤮': -2.6, '😢': -1.9, '😭': -1.1, '💩': -1.5, '🙄': -1.0, '😒': -1.6,
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "none": true, "nothing": true, "nobody": true,
	"neither": true, "nor": true, "without": true, "cannot": true, "ain't": true, "aint": true,
	"isn't": true, "isnt": true, "wasn't": true, "wasnt": true, "aren't": true, "arent": true,
	"don't": true, "dont": true, "doesn't": true, "doesnt": true, "didn't": true, "didnt": true,
	"can't": true, "cant": true, "won't": true, "wont": true, "couldn't": true, "couldnt": true,
	"shouldn't": true, "shouldnt": true, "wouldn't": true, "wouldnt": true,
}

var boosters = map[string]float64{
	"absolutely": boosterStep, "completely": boosterStep, "extremely": boosterStep, "highly": boosterStep,
	"incredibly": boosterStep, "really": boosterStep, "so": boosterStep, "super": boosterStep,
	"totally": boosterStep, "very": boosterStep, "truly": boosterStep, "most": boosterStep,
	"barely": -boosterStep, "hardly": -boosterStep, "kinda": -boosterStep, "slightly": -boosterStep,
	"somewhat": -boosterStep, "sort": -boosterStep, "little": -boosterStep,
}

// LexiconScorer is a rule-based scorer in the style of VADER. It handles
// negation, intensifiers, "but" contrast and exclamation emphasis. It expects
// cleaned, case-folded text but tolerates raw input.
type LexiconScorer struct{}

// NewLexiconScorer returns the built-in scorer.
func NewLexiconScorer() LexiconScorer {
	return LexiconScorer{}
}

// Score implements Scorer. It never fails.
func (LexiconScorer) Score(_ context.Context, text string) (float64, error) {
	return Compound(text), nil
}

// Compound returns the normalized valence of text in [-1, 1].
func Compound(text string) float64 {
	tokens := tokenize(strings.ToLower(text))

	valences := make([]float64, len(tokens))
	for i, tok := range tokens {
		v, ok := lexicon[tok]
		if !ok {
			continue
		}
		for j := i - 1; j >= 0 && j >= i-negationWindow; j-- {
			if b, ok := boosters[tokens[j]]; ok && j == i-1 {
				if v > 0 {
					v += b
				} else {
					v -= b
				}
			}
			if negations[tokens[j]] {
				v *= negationScalar
				break
			}
		}
		valences[i] = v
	}

	applyBut(tokens, valences)

	sum := 0.0
	for _, v := range valences {
		sum += v
	}
	for _, r := range text {
		sum += emojiLexicon[r]
	}

	if sum != 0 {
		bangs := strings.Count(text, "!")
		if bangs > maxExclamations {
			bangs = maxExclamations
		}
		emphasis := float64(bangs) * exclamationStep
		if sum > 0 {
			sum += emphasis
		} else {
			sum -= emphasis
		}
	}

	return normalize(sum)
}

func applyBut(tokens []string, valences []float64) {
	for i, tok := range tokens {
		if tok != "but" {
			continue
		}
		for j := range valences {
			switch {
			case j < i:
				valences[j] *= butBefore
			case j > i:
				valences[j] *= butAfter
			}
		}
		return
	}
}

func normalize(score float64) float64 {
	if score == 0 {
		return 0
	}
	n := score / math.Sqrt(score*score+alpha)
	return math.Max(-1, math.Min(1, n))
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
