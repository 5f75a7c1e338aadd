package classifier

//nolint:gochecknoglobals // Shared test fixtures
var (
	specificWeightPhrasings = []string{
		"What is the specific weight of water?",
		"what's the specific weight of water",
		"specific weight of water?",
		"Tell me the specific weight of water",
		"Calculate the specific weight of water",
		"Find the specific weight of water",
		"What is water's specific weight?",
		"I need the specific weight of water",
		"Can you give me the specific weight of water?",
		"What's the specific weight for water?",
		"Specific weight of H2O?",
		"Give me specific weight of water",
		"What is the specific weight of pure water?",
		"What is the specific weight of fresh water?",
		"specific weight water",
		"water specific weight",
		"What would be the specific weight of water?",
		"Please calculate the specific weight of water",
		"Looking for the specific weight of water",
		"Need to know specific weight of water",
		"What's water's specific weight value?",
	}

	poundPhrasings = []string{
		"Convert 10 lb to kg",
		"How many kg in 10 lb?",
		"10 lb in kilograms",
		"What is 10 lb in kg?",
		"10 pounds to kg",
		"10 lb = ? kg",
		"I have 10 lb, how much is that in kg?",
	}

	unambiguousPhrasings = []string{
		"What is 2 + 2?",
		"Calculate 2 plus 2",
		"2+2=?",
		"What does 2 + 2 equal?",
		"What is the value of standard gravity?",
		"What is the acceleration due to gravity?",
		"What is pi?",
		"Calculate the area of a circle with radius 5 meters",
		"Area of circle, r = 5m",
		"What is the circumference of a circle with diameter 10 m?",
	}

	fluidsPhrasings = []string{
		"Calculate the hydrostatic pressure at 10m depth",
		"What is the pressure at 10 meters underwater?",
		"Pressure at depth of 10m in water",
		"Find hydrostatic pressure, depth = 10m",
		"What's the water pressure 10 meters down?",
	}
)
