package question

import "github.com/victornm/quizladder/internal/domain"

// Samples is the starter question set loaded into empty stores.
var Samples = []domain.Question{
	{ID: "1", Topic: "fizik", Text: "What is the formula for force?", Options: [4]string{"F=ma", "F=mv", "F=mgh", "F=1/2mv^2"}, Answer: "a1"},
	{ID: "2", Topic: "fizik", Text: "What is the speed of light in vacuum?", Options: [4]string{"3x10^6 m/s", "3x10^7 m/s", "3x10^8 m/s", "3x10^9 m/s"}, Answer: "a3"},
	{ID: "3", Topic: "fizik", Text: "What is Newton's first law about?", Options: [4]string{"Force", "Inertia", "Acceleration", "Momentum"}, Answer: "a2"},
	{ID: "4", Topic: "fizik", Text: "What is the unit of energy?", Options: [4]string{"Newton", "Watt", "Joule", "Pascal"}, Answer: "a3"},
	{ID: "5", Topic: "biologi", Text: "What is the powerhouse of the cell?", Options: [4]string{"Nucleus", "Ribosome", "Mitochondria", "Chloroplast"}, Answer: "a3"},
	{ID: "6", Topic: "biologi", Text: "What is the process by which plants make food?", Options: [4]string{"Respiration", "Photosynthesis", "Digestion", "Fermentation"}, Answer: "a2"},
	{ID: "7", Topic: "biologi", Text: "What is DNA?", Options: [4]string{"A protein", "A genetic material", "A carbohydrate", "A lipid"}, Answer: "a2"},
	{ID: "8", Topic: "biologi", Text: "What is the largest organ in the human body?", Options: [4]string{"Heart", "Liver", "Brain", "Skin"}, Answer: "a4"},
}
