package recipe

import (
	"math/rand/v2"
	"time"
)

// Seed returns the two example recipes used when no document has been stored yet.
func Seed(now time.Time) []Recipe {
	createdAt := FormatCreatedAt(now)
	return []Recipe{
		{
			ID:          1,
			Title:       "Sunset Berry Galette",
			Category:    Dessert,
			Ingredients: []string{"2 cups Blueberries", "1 cup Raspberries", "1/2 cup Sugar", "Pastry dough"},
			Steps:       []string{"Prepare the dough", "Mix berries with sugar", "Fold edges", "Bake at 375F for 40m"},
			Images:      []string{"https://images.unsplash.com/photo-1519915028121-7d3463d20b13?auto=format&fit=crop&q=80&w=800"},
			Favorite:    true,
			IsVisible:   true,
			CreatedAt:   createdAt,
		},
		{
			ID:          2,
			Title:       "Truffle Mushroom Risotto",
			Category:    Dinner,
			Ingredients: []string{"Arborio rice", "Wild mushrooms", "Truffle oil", "Parmesan", "Veg stock"},
			Steps:       []string{"Sauté mushrooms", "Toast rice", "Add stock slowly", "Finish with truffle oil"},
			Images:      []string{"https://images.unsplash.com/photo-1476124369491-e7addf5db371?auto=format&fit=crop&q=80&w=800"},
			Favorite:    false,
			IsVisible:   true,
			CreatedAt:   createdAt,
		},
	}
}

// Draft is an unsaved recipe used to prefill the create form.
type Draft struct {
	Title       string   `json:"title"`
	Category    Category `json:"category"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	Images      []string `json:"images"`
}

var suggestions = []Draft{
	{
		Title:       "Neon Glazed Salmon",
		Category:    Healthy,
		Ingredients: []string{"Fresh Salmon", "Miso Paste", "Honey", "Bok Choy", "Ginger"},
		Steps:       []string{"Marinate salmon in miso and honey", "Sear for 4 mins per side", "Steam bok choy", "Garnish with ginger"},
		Images:      []string{"https://images.unsplash.com/photo-1467003909585-2f8a72700288?auto=format&fit=crop&q=80&w=800"},
	},
	{
		Title:       "Cyberpunk Smoothie Bowl",
		Category:    Breakfast,
		Ingredients: []string{"Pitaya", "Frozen Banana", "Hemp Seeds", "Edible Flowers"},
		Steps:       []string{"Blend pitaya and banana", "Pour into chilled bowl", "Topping with seeds and flowers"},
		Images:      []string{"https://images.unsplash.com/photo-1590301157890-4810ed352733?auto=format&fit=crop&q=80&w=800"},
	},
}

// Suggestions returns copies of the built-in draft templates.
func Suggestions() []Draft {
	out := make([]Draft, len(suggestions))
	for i, d := range suggestions {
		out[i] = d.clone()
	}
	return out
}

// Suggest picks one draft template at random.
func Suggest() Draft {
	return suggestions[rand.IntN(len(suggestions))].clone()
}

func (d Draft) clone() Draft {
	d.Ingredients = append([]string(nil), d.Ingredients...)
	d.Steps = append([]string(nil), d.Steps...)
	d.Images = append([]string(nil), d.Images...)
	return d
}
