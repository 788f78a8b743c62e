package question

import "sync"

// Bank holds the hand-curated fallback questions served whenever the
// remote generator fails or yields zero valid records. The built-in
// entries can be augmented with rows from the curated Postgres table.
type Bank struct {
	mu      sync.RWMutex
	byCat   map[string][]Question
	generic []Question
}

// NewBank returns a bank seeded with the built-in question sets.
func NewBank() *Bank {
	b := &Bank{byCat: make(map[string][]Question)}
	for cat, qs := range builtin {
		b.byCat[cat] = qs
	}
	b.generic = builtinGeneric
	return b
}

// Add appends curated questions for a category. Invalid records are skipped.
func (b *Bank) Add(categoryID string, qs []Question) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, q := range qs {
		if !q.Valid() {
			continue
		}
		b.byCat[categoryID] = append(b.byCat[categoryID], q)
	}
}

// PerCategory returns a copy of the bank's contents keyed by category.
func (b *Bank) PerCategory() map[string][]Question {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string][]Question, len(b.byCat))
	for cat, qs := range b.byCat {
		cp := make([]Question, len(qs))
		copy(cp, qs)
		out[cat] = cp
	}
	return out
}

// Pick returns up to count fallback questions for the category, or from
// the generic set when the category has no curated entries.
func (b *Bank) Pick(categoryID string, count int) []Question {
	b.mu.RLock()
	defer b.mu.RUnlock()

	src := b.byCat[categoryID]
	if len(src) == 0 {
		src = b.generic
	}
	if count > len(src) {
		count = len(src)
	}
	out := make([]Question, count)
	copy(out, src[:count])
	return out
}

func fb(prompt, a, b, c, d, answer string) Question {
	return Question{
		Prompt:  prompt,
		Options: []string{a, b, c, d},
		Answer:  answer,
		Source:  SourceFallback,
	}
}

var builtin = map[string][]Question{
	"general": {
		fb("How many continents are there on Earth?", "Five", "Six", "Seven", "Eight", "Seven"),
		fb("What is the largest ocean on Earth?", "Atlantic", "Indian", "Arctic", "Pacific", "Pacific"),
		fb("How many colors are in a rainbow?", "Five", "Six", "Seven", "Eight", "Seven"),
		fb("Which planet is known as the Red Planet?", "Venus", "Mars", "Jupiter", "Saturn", "Mars"),
		fb("What is the tallest animal in the world?", "Elephant", "Giraffe", "Ostrich", "Camel", "Giraffe"),
	},
	"science": {
		fb("What is the chemical symbol for gold?", "Go", "Gd", "Au", "Ag", "Au"),
		fb("How many bones does an adult human have?", "196", "206", "216", "226", "206"),
		fb("What gas do plants absorb from the atmosphere?", "Oxygen", "Nitrogen", "Carbon dioxide", "Hydrogen", "Carbon dioxide"),
		fb("What is the speed of light, roughly?", "300,000 km/s", "150,000 km/s", "500,000 km/s", "1,000,000 km/s", "300,000 km/s"),
		fb("Which organ pumps blood through the body?", "Liver", "Lungs", "Heart", "Kidneys", "Heart"),
	},
	"history": {
		fb("In which year did World War II end?", "1943", "1944", "1945", "1946", "1945"),
		fb("Who was the first president of the United States?", "Thomas Jefferson", "John Adams", "George Washington", "Benjamin Franklin", "George Washington"),
		fb("Which ancient civilization built the pyramids of Giza?", "Romans", "Greeks", "Egyptians", "Persians", "Egyptians"),
		fb("The Berlin Wall fell in which year?", "1987", "1989", "1991", "1993", "1989"),
	},
	"geography": {
		fb("What is the capital of Australia?", "Sydney", "Melbourne", "Canberra", "Perth", "Canberra"),
		fb("Which is the longest river in the world?", "Amazon", "Nile", "Yangtze", "Mississippi", "Nile"),
		fb("Mount Everest lies on the border of Nepal and which country?", "India", "China", "Bhutan", "Pakistan", "China"),
		fb("Which desert is the largest hot desert in the world?", "Gobi", "Kalahari", "Sahara", "Atacama", "Sahara"),
	},
	"sports": {
		fb("How many players are on a soccer team on the field?", "Nine", "Ten", "Eleven", "Twelve", "Eleven"),
		fb("In which sport would you perform a slam dunk?", "Volleyball", "Basketball", "Tennis", "Handball", "Basketball"),
		fb("How often are the Summer Olympic Games held?", "Every 2 years", "Every 3 years", "Every 4 years", "Every 5 years", "Every 4 years"),
	},
}

var builtinGeneric = []Question{
	fb("What is the smallest prime number?", "0", "1", "2", "3", "2"),
	fb("How many sides does a hexagon have?", "Five", "Six", "Seven", "Eight", "Six"),
	fb("Which language has the most native speakers worldwide?", "English", "Hindi", "Spanish", "Mandarin Chinese", "Mandarin Chinese"),
	fb("What is the largest mammal on Earth?", "African elephant", "Blue whale", "Sperm whale", "Giraffe", "Blue whale"),
	fb("How many minutes are in a full day?", "1240", "1380", "1440", "1500", "1440"),
}
